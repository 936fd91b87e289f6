package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// Parent Command
var macrosCmd = &cobra.Command{
	Use:   "macros",
	Short: "Manage the macro library",
	Long:  `List, inspect and delete saved macros.`,
}

// List Command
var macrosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved macros",
	Run: func(cmd *cobra.Command, args []string) {
		lib := openLibrary()
		entries, err := lib.List()
		if err != nil {
			fmt.Printf("Error listing macros: %v\n", err)
			os.Exit(1)
		}
		if len(entries) == 0 {
			fmt.Printf("No macros in %s\n", lib.Dir())
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCREATED\tEVENTS\tDURATION")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				e.Name, e.CreatedAt, e.EventCount,
				(time.Duration(e.DurationMs) * time.Millisecond).String())
		}
		w.Flush()
	},
}

// Show Command
var macrosShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a macro's events",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		lib := openLibrary()
		m, err := lib.Load(args[0])
		if err != nil {
			fmt.Printf("Error loading macro: %v\n", err)
			os.Exit(1)
		}

		st := m.Stats()
		fmt.Printf("%s (recorded %s)\n", m.Name(), m.CreatedAt().Format("2006-01-02 15:04:05"))
		fmt.Printf("%d events over %s (%d moves, %d clicks, %d scrolls, %d key presses)\n\n",
			st.TotalEvents, st.Duration.Round(time.Millisecond),
			st.MouseMoves, st.MouseClicks, st.Scrolls, st.KeyPresses)

		for i, e := range m.Events() {
			fmt.Printf("%4d  %8dms  %s\n", i, e.Offset.Milliseconds(), e.String())
		}
	},
}

// Remove Command
var macrosRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a macro",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		lib := openLibrary()
		if err := lib.Delete(args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted %s\n", args[0])
	},
}

func init() {
	macrosCmd.AddCommand(macrosListCmd)
	macrosCmd.AddCommand(macrosShowCmd)
	macrosCmd.AddCommand(macrosRmCmd)
	rootCmd.AddCommand(macrosCmd)
}
