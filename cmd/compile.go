package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tinytask/internal/compiler"
)

var (
	compileOutput  string
	compileSource  string
	compileSpeed   float64
	compileLoops   int
	compileNoMoves bool
)

var compileCmd = &cobra.Command{
	Use:   "compile <name>",
	Short: "Compile a macro into a standalone replay program",
	Long: `Turn a saved macro into an independent executable that replays it
without tinytask installed. Speed and loop count are fixed into the
artifact. With --source the generated Go project is written instead of
being built.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cfgMgr.Get()
		lib := openLibrary()

		m, err := lib.Load(args[0])
		if err != nil {
			fmt.Printf("Error loading macro: %v\n", err)
			os.Exit(1)
		}

		opts := compiler.DefaultOptions()
		opts.ScreenWidth = cfg.ScreenWidth
		opts.ScreenHeight = cfg.ScreenHeight
		if cmd.Flags().Changed("speed") {
			opts.Speed = compileSpeed
		}
		if cmd.Flags().Changed("loops") {
			opts.Loops = compileLoops
		}
		if compileNoMoves {
			opts.ReplayMouseMoves = false
		}

		if compileSource != "" {
			if err := compiler.WriteProject(m, opts, compileSource); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Wrote replay project to %s\n", compileSource)
			return
		}

		output := compileOutput
		if output == "" {
			output = m.Name() + "-replay"
		}
		if err := compiler.Compile(m, opts, output); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Compiled %s\n", output)
	},
}

func init() {
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "output executable path (default <name>-replay)")
	compileCmd.Flags().StringVar(&compileSource, "source", "", "write the generated Go project to this directory instead of building")
	compileCmd.Flags().Float64Var(&compileSpeed, "speed", 1.0, "embedded speed multiplier (0.1 - 5.0)")
	compileCmd.Flags().IntVar(&compileLoops, "loops", 1, "embedded repeat count (1 - 999)")
	compileCmd.Flags().BoolVar(&compileNoMoves, "no-moves", false, "omit mouse movement events from the artifact")
	rootCmd.AddCommand(compileCmd)
}
