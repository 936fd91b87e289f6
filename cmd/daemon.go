package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tinytask/internal/api"
	"tinytask/internal/control"
	"tinytask/internal/input"
	"tinytask/internal/macro"
	"tinytask/internal/player"
	"tinytask/internal/tray"
)

var daemonNoTray bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background recorder with hotkeys, tray and API",
	Long: `Run tinytask as a resident process: the configured global hotkeys
toggle recording and playback, a system tray menu mirrors them, and the
HTTP/WebSocket API serves remote control when enabled.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cfgMgr.Get()
		lib := openLibrary()
		defer lib.Close()

		if err := lib.Watch(func() {
			log.Printf("Daemon: macro library changed on disk")
		}); err != nil {
			log.Printf("Warning: library watcher unavailable: %v", err)
		}

		inj, err := input.NewInjector(input.InjectorOptions{
			ScreenWidth:  cfg.ScreenWidth,
			ScreenHeight: cfg.ScreenHeight,
		})
		if err != nil {
			fmt.Printf("Error acquiring input synthesis: %v\n", err)
			os.Exit(1)
		}
		defer inj.Close()

		ctrl := control.New(input.NewListener(), inj, lib, cfgMgr)
		if err := ctrl.Run(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		cfgMgr.Watch()

		if cfg.API.Enabled {
			srv := api.NewServer(cfgMgr, ctrl, lib)
			go srv.Start(cfg.API.Port)
		}

		log.Printf("Daemon: hotkeys %s=record %s=play %s=stop",
			cfg.Hotkeys.Record, cfg.Hotkeys.Play, cfg.Hotkeys.Stop)

		if daemonNoTray {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			ctrl.Shutdown()
			return
		}

		t := tray.New("TinyTask macro recorder")
		recordItem := t.AddMenuItem("Start Recording", func() {
			if ctrl.Recording() {
				if _, err := ctrl.StopRecording(); err != nil && !errors.Is(err, macro.ErrEmptyMacro) {
					log.Printf("Daemon: stop recording: %v", err)
				}
				return
			}
			if err := ctrl.StartRecording(""); err != nil {
				log.Printf("Daemon: start recording: %v", err)
			}
		})
		t.AddMenuItem("Play Last", func() {
			c := cfgMgr.Get()
			err := ctrl.Play("", player.Options{
				Speed:            c.Playback.Speed,
				Loops:            c.Playback.Loops,
				ReplayMouseMoves: c.Playback.ReplayMouseMoves,
			})
			if err != nil {
				log.Printf("Daemon: play: %v", err)
			}
		})
		t.AddMenuItem("Stop Playback", func() {
			ctrl.StopPlayback()
		})
		t.AddSeparator()
		t.AddMenuItem("Quit", func() {
			t.Stop()
		})

		ctrl.Subscribe(func(st control.Status) {
			if st.Recording {
				t.SetItemTitle(recordItem, "Stop Recording")
			} else {
				t.SetItemTitle(recordItem, "Start Recording")
			}
		})

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			t.Stop()
		}()

		// Blocks until Quit or a signal.
		t.Run()
		ctrl.Shutdown()
	},
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonNoTray, "no-tray", false, "run without the system tray menu")
	rootCmd.AddCommand(daemonCmd)
}
