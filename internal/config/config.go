// Package config provides configuration management for the macro
// recorder.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Recording contains recorder settings
	Recording RecordingConfig `mapstructure:"recording"`

	// Playback contains default playback parameters
	Playback PlaybackConfig `mapstructure:"playback"`

	// Hotkeys contains the global hotkey bindings
	Hotkeys HotkeyConfig `mapstructure:"hotkeys"`

	// API contains HTTP API server settings
	API APIConfig `mapstructure:"api"`

	// MacroDir is the directory where macros are stored
	MacroDir string `mapstructure:"macro_dir"`

	// ScreenWidth and ScreenHeight size the virtual input device's
	// absolute pointer range
	ScreenWidth  int `mapstructure:"screen_width"`
	ScreenHeight int `mapstructure:"screen_height"`
}

// RecordingConfig contains recorder settings
type RecordingConfig struct {
	// RecordMouseMoves enables capture of mouse movement samples
	RecordMouseMoves bool `mapstructure:"record_mouse_moves"`

	// MoveThresholdPx is the minimum pointer travel between recorded
	// movement samples
	MoveThresholdPx int `mapstructure:"move_threshold_px"`

	// MoveMinIntervalMs is the minimum time between recorded movement
	// samples
	MoveMinIntervalMs int `mapstructure:"move_min_interval_ms"`
}

// PlaybackConfig contains default playback parameters
type PlaybackConfig struct {
	// Speed is the default speed multiplier (0.1 - 5.0)
	Speed float64 `mapstructure:"speed"`

	// Loops is the default repeat count (1 - 999)
	Loops int `mapstructure:"loops"`

	// ReplayMouseMoves controls whether movement events are replayed
	ReplayMouseMoves bool `mapstructure:"replay_mouse_moves"`
}

// HotkeyConfig contains the global hotkey bindings
type HotkeyConfig struct {
	// Record toggles recording (default "f8")
	Record string `mapstructure:"record"`

	// Play replays the most recent macro (default "f5")
	Play string `mapstructure:"play"`

	// Stop stops recording or playback (default "f9")
	Stop string `mapstructure:"stop"`
}

// APIConfig contains HTTP API server settings
type APIConfig struct {
	// Enabled starts the HTTP/WebSocket API with the daemon
	Enabled bool `mapstructure:"enabled"`

	// Port is the API listen port
	Port int `mapstructure:"port"`

	// Token is an optional bearer token required on API requests
	Token string `mapstructure:"token"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Recording: RecordingConfig{
			RecordMouseMoves:  true,
			MoveThresholdPx:   5,
			MoveMinIntervalMs: 15,
		},
		Playback: PlaybackConfig{
			Speed:            1.0,
			Loops:            1,
			ReplayMouseMoves: true,
		},
		Hotkeys: HotkeyConfig{
			Record: "f8",
			Play:   "f5",
			Stop:   "f9",
		},
		API: APIConfig{
			Enabled: false,
			Port:    18320,
		},
		MacroDir:     defaultMacroDir(),
		ScreenWidth:  1920,
		ScreenHeight: 1080,
	}
}

// MoveMinInterval returns the movement sampling interval as a duration.
func (c *Config) MoveMinInterval() time.Duration {
	return time.Duration(c.Recording.MoveMinIntervalMs) * time.Millisecond
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	v          *viper.Viper
	configPath string
	config     *Config
	onChanged  []func()
}

// NewManager creates a new configuration manager reading from the
// platform config directory, or from path when non-empty.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		var err error
		path, err = defaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TINYTASK")
	v.AutomaticEnv()

	return &Manager{
		v:          v,
		configPath: path,
		config:     DefaultConfig(),
	}, nil
}

// defaultConfigPath returns the path to the configuration file
func defaultConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "tinytask")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "tinytask")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "tinytask")
	}

	return filepath.Join(configDir, "config.yaml"), nil
}

// defaultMacroDir is where recorded macros land unless configured.
func defaultMacroDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "macros"
	}
	return filepath.Join(home, ".local", "share", "tinytask", "macros")
}

// setDefaults seeds viper with the default configuration so a partial
// config file still yields a complete Config.
func (m *Manager) setDefaults() {
	def := DefaultConfig()
	m.v.SetDefault("recording.record_mouse_moves", def.Recording.RecordMouseMoves)
	m.v.SetDefault("recording.move_threshold_px", def.Recording.MoveThresholdPx)
	m.v.SetDefault("recording.move_min_interval_ms", def.Recording.MoveMinIntervalMs)
	m.v.SetDefault("playback.speed", def.Playback.Speed)
	m.v.SetDefault("playback.loops", def.Playback.Loops)
	m.v.SetDefault("playback.replay_mouse_moves", def.Playback.ReplayMouseMoves)
	m.v.SetDefault("hotkeys.record", def.Hotkeys.Record)
	m.v.SetDefault("hotkeys.play", def.Hotkeys.Play)
	m.v.SetDefault("hotkeys.stop", def.Hotkeys.Stop)
	m.v.SetDefault("api.enabled", def.API.Enabled)
	m.v.SetDefault("api.port", def.API.Port)
	m.v.SetDefault("api.token", def.API.Token)
	m.v.SetDefault("macro_dir", def.MacroDir)
	m.v.SetDefault("screen_width", def.ScreenWidth)
	m.v.SetDefault("screen_height", def.ScreenHeight)
}

// Load reads the configuration from disk. A missing file is not an
// error; defaults apply.
func (m *Manager) Load() error {
	m.mu.Lock()

	m.setDefaults()
	if err := m.v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				m.mu.Unlock()
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := DefaultConfig()
	if err := m.v.Unmarshal(cfg); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("parse config: %w", err)
	}
	m.config = cfg
	m.mu.Unlock()

	m.notify()
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := m.config
	m.v.Set("recording.record_mouse_moves", cfg.Recording.RecordMouseMoves)
	m.v.Set("recording.move_threshold_px", cfg.Recording.MoveThresholdPx)
	m.v.Set("recording.move_min_interval_ms", cfg.Recording.MoveMinIntervalMs)
	m.v.Set("playback.speed", cfg.Playback.Speed)
	m.v.Set("playback.loops", cfg.Playback.Loops)
	m.v.Set("playback.replay_mouse_moves", cfg.Playback.ReplayMouseMoves)
	m.v.Set("hotkeys.record", cfg.Hotkeys.Record)
	m.v.Set("hotkeys.play", cfg.Hotkeys.Play)
	m.v.Set("hotkeys.stop", cfg.Hotkeys.Stop)
	m.v.Set("api.enabled", cfg.API.Enabled)
	m.v.Set("api.port", cfg.API.Port)
	m.v.Set("api.token", cfg.API.Token)
	m.v.Set("macro_dir", cfg.MacroDir)
	m.v.Set("screen_width", cfg.ScreenWidth)
	m.v.Set("screen_height", cfg.ScreenHeight)

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	log.Printf("Config: Saving configuration to %s", m.configPath)
	return m.v.WriteConfigAs(m.configPath)
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Set updates the configuration
func (m *Manager) Set(config *Config) {
	m.mu.Lock()
	m.config = config
	m.mu.Unlock()
	m.notify()
}

// Path returns the config file path in use.
func (m *Manager) Path() string {
	return m.configPath
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = append(m.onChanged, fn)
}

// Watch reloads the configuration whenever the file changes on disk.
func (m *Manager) Watch() {
	m.v.OnConfigChange(func(_ fsnotify.Event) {
		if err := m.Load(); err != nil {
			log.Printf("Config: reload failed: %v", err)
		}
	})
	m.v.WatchConfig()
}

func (m *Manager) notify() {
	m.mu.Lock()
	callbacks := append([]func(){}, m.onChanged...)
	m.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}
