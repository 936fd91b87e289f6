package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tinytask/internal/input"
	"tinytask/internal/macro"
	"tinytask/internal/player"
)

var (
	playSpeed   float64
	playLoops   int
	playNoMoves bool
)

var playCmd = &cobra.Command{
	Use:   "play [name]",
	Short: "Replay a macro",
	Long: `Replay a macro from the library. Without a name the most recently
recorded macro is played. Ctrl-C stops playback and releases any held
keys or buttons.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cfgMgr.Get()
		lib := openLibrary()

		var m *macro.Macro
		var err error
		if len(args) > 0 {
			m, err = lib.Load(args[0])
		} else {
			m, err = lib.Latest()
		}
		if err != nil {
			fmt.Printf("Error loading macro: %v\n", err)
			os.Exit(1)
		}

		opts := player.Options{
			Speed:            cfg.Playback.Speed,
			Loops:            cfg.Playback.Loops,
			ReplayMouseMoves: cfg.Playback.ReplayMouseMoves,
		}
		if cmd.Flags().Changed("speed") {
			opts.Speed = playSpeed
		}
		if cmd.Flags().Changed("loops") {
			opts.Loops = playLoops
		}
		if playNoMoves {
			opts.ReplayMouseMoves = false
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

		p := player.New(inj)
		if err := p.Play(m, opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Playing %q (speed %.2f, loops %d)...\n", m.Name(), opts.Speed, opts.Loops)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			fmt.Println("Stopping...")
			p.Stop()
		}()

		if err := p.Wait(); err != nil {
			fmt.Printf("Playback failed: %v\n", err)
			os.Exit(1)
		}
		if p.State() == player.StateCompleted {
			fmt.Println("Done.")
		}
	},
}

func init() {
	playCmd.Flags().Float64Var(&playSpeed, "speed", 1.0, "speed multiplier (0.1 - 5.0)")
	playCmd.Flags().IntVar(&playLoops, "loops", 1, "repeat count (1 - 999)")
	playCmd.Flags().BoolVar(&playNoMoves, "no-moves", false, "skip mouse movement events, keeping click timing")
	rootCmd.AddCommand(playCmd)
}
