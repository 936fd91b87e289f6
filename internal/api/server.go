// Package api provides the HTTP and WebSocket API for remote control
// of the recorder and player.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"

	"tinytask/internal/config"
	"tinytask/internal/control"
	"tinytask/internal/library"
	"tinytask/internal/macro"
	"tinytask/internal/player"
)

// Server provides HTTP API for remote control
type Server struct {
	configMgr  *config.Manager
	controller *control.Controller
	library    *library.Library
	token      string
	wsMgr      *WSManager
}

// NewServer creates a new API server
func NewServer(configMgr *config.Manager, ctrl *control.Controller, lib *library.Library) *Server {
	s := &Server{
		configMgr:  configMgr,
		controller: ctrl,
		library:    lib,
	}
	s.wsMgr = newWSManager(s)
	ctrl.Subscribe(s.wsMgr.BroadcastStatus)
	return s
}

// Start starts the API server on the specified port. Blocks until the
// listener fails or the server is closed.
func (s *Server) Start(port int) error {
	go s.wsMgr.start()

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Starting API server on %s", addr)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("ERROR: API server failed to listen on %s: %v", addr, err)
		return err
	}

	server := &http.Server{
		Handler: s.handler(true),
	}

	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Printf("ERROR: API server stopped: %v", err)
		return err
	}
	return nil
}

// Handler returns the middleware-wrapped handler without the WebSocket
// endpoint, used by tests that never start the hub.
func (s *Server) Handler() http.Handler {
	return s.handler(false)
}

func (s *Server) handler(withWS bool) http.Handler {
	s.token = s.configMgr.Get().API.Token

	mux := http.NewServeMux()
	mux.HandleFunc("/api/record/start", s.handleRecordStart)
	mux.HandleFunc("/api/record/stop", s.handleRecordStop)
	mux.HandleFunc("/api/play", s.handlePlay)
	mux.HandleFunc("/api/pause", s.handlePause)
	mux.HandleFunc("/api/resume", s.handleResume)
	mux.HandleFunc("/api/stop", s.handleStop)
	mux.HandleFunc("/api/macros", s.handleMacros)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/health", s.handleHealth)
	if withWS {
		mux.HandleFunc("/ws", s.wsMgr.handleWebSocket)
	}
	return s.authMiddleware(s.recoverMiddleware(mux))
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC RECOV: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks API token if configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("API: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		// Skip auth for health check
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		if s.token != "" {
			authHeader := r.Header.Get("Authorization")
			expectedAuth := "Bearer " + s.token

			if authHeader != expectedAuth {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, control.ErrBusy),
		errors.Is(err, macro.ErrAlreadyRecording),
		errors.Is(err, macro.ErrNotRecording),
		errors.Is(err, player.ErrAlreadyPlaying),
		errors.Is(err, player.ErrNotPlaying),
		errors.Is(err, player.ErrNotPaused):
		status = http.StatusConflict
	case errors.Is(err, player.ErrInvalidParameter),
		errors.Is(err, player.ErrEmptyMacro),
		errors.Is(err, macro.ErrEmptyMacro),
		errors.Is(err, macro.ErrMalformedMacro):
		status = http.StatusBadRequest
	case errors.Is(err, os.ErrNotExist):
		status = http.StatusNotFound
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// handleRecordStart handles POST /api/record/start?name=<name>
func (s *Server) handleRecordStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("name")
	if err := s.controller.StartRecording(name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "recording"})
}

// handleRecordStop handles POST /api/record/stop
func (s *Server) handleRecordStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	m, err := s.controller.StopRecording()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"status":      "ok",
		"name":        m.Name(),
		"event_count": m.Len(),
		"duration_ms": m.Duration().Milliseconds(),
	})
}

// handlePlay handles POST /api/play?name=<name>&speed=<f>&loops=<n>
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg := s.configMgr.Get()
	opts := player.Options{
		Speed:            cfg.Playback.Speed,
		Loops:            cfg.Playback.Loops,
		ReplayMouseMoves: cfg.Playback.ReplayMouseMoves,
	}

	if v := r.URL.Query().Get("speed"); v != "" {
		speed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "Invalid speed parameter", http.StatusBadRequest)
			return
		}
		opts.Speed = speed
	}
	if v := r.URL.Query().Get("loops"); v != "" {
		loops, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid loops parameter", http.StatusBadRequest)
			return
		}
		opts.Loops = loops
	}

	name := r.URL.Query().Get("name")
	if err := s.controller.Play(name, opts); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "playing"})
}

// handlePause handles POST /api/pause
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.controller.Pause(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "paused"})
}

// handleResume handles POST /api/resume
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.controller.Resume(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "playing"})
}

// handleStop handles POST /api/stop - stops playback
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.controller.StopPlayback(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "stopped"})
}

// handleMacros handles GET (list) and DELETE (remove) on /api/macros
func (s *Server) handleMacros(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		entries, err := s.library.List()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, entries)

	case "DELETE":
		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "Missing name parameter", http.StatusBadRequest)
			return
		}
		if err := s.library.Delete(name); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]string{"status": "ok"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.controller.Status())
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}
