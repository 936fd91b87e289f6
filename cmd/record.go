package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tinytask/internal/event"
	"tinytask/internal/input"
	"tinytask/internal/macro"
)

var recordCmd = &cobra.Command{
	Use:   "record [name]",
	Short: "Record a macro",
	Long: `Capture global mouse and keyboard input into a macro. Recording
runs until the stop hotkey or Ctrl-C, then the macro is saved to the
library.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cfgMgr.Get()
		lib := openLibrary()

		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		if name == "" {
			name = "macro-" + time.Now().Format("20060102-150405")
		}

		opts := macro.DefaultRecorderOptions()
		opts.RecordMouseMoves = cfg.Recording.RecordMouseMoves
		opts.MoveThresholdPx = cfg.Recording.MoveThresholdPx
		opts.MoveMinInterval = cfg.MoveMinInterval()

		// A single-key stop binding ends the recording and is trimmed
		// from its tail.
		stopKey := event.KeyNone
		if !strings.Contains(cfg.Hotkeys.Stop, "+") {
			if k, r, err := event.ParseKey(cfg.Hotkeys.Stop); err == nil && r == 0 {
				stopKey = k
				opts.StopKey = k
			}
		}

		rec := macro.NewRecorder(opts)
		capture := input.NewListener()
		if err := capture.Start(); err != nil {
			fmt.Printf("Error starting capture: %v\n", err)
			os.Exit(1)
		}

		if err := rec.Start(name); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Recording %q... press %s or Ctrl-C to stop.\n", name, cfg.Hotkeys.Stop)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for raw := range capture.Events() {
				rec.HandleEvent(raw)
				if stopKey != event.KeyNone && raw.Kind == event.KindKeyDown && raw.Key == stopKey {
					return
				}
			}
		}()

		select {
		case <-sig:
		case <-done:
		}
		capture.Stop()

		m, err := rec.Stop()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if m.Len() == 0 {
			fmt.Println("Nothing recorded.")
			os.Exit(1)
		}

		path, err := lib.Save(m)
		if err != nil {
			fmt.Printf("Error saving macro: %v\n", err)
			os.Exit(1)
		}

		st := m.Stats()
		fmt.Printf("Saved %s\n", path)
		fmt.Printf("  %d events over %s (%d moves, %d clicks, %d scrolls, %d key presses)\n",
			st.TotalEvents, st.Duration.Round(time.Millisecond),
			st.MouseMoves, st.MouseClicks, st.Scrolls, st.KeyPresses)
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
}
