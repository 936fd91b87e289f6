package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"tinytask/internal/config"
	"tinytask/internal/library"
)

var cfgFile string
var cfgMgr *config.Manager

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tinytask",
	Short: "Record and replay desktop mouse and keyboard macros",
	Long: `Record global mouse and keyboard input into timestamped macros,
replay them with speed scaling and looping, and compile them into
standalone replay programs.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.config/tinytask/config.yaml)")
}

func initConfig() {
	m, err := config.NewManager(cfgFile)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := m.Load(); err != nil {
		log.Printf("Warning: failed to load config: %v", err)
	}
	cfgMgr = m
}

// openLibrary opens the configured macro directory, exiting on failure.
func openLibrary() *library.Library {
	lib, err := library.Open(cfgMgr.Get().MacroDir)
	if err != nil {
		fmt.Printf("Error opening macro library: %v\n", err)
		os.Exit(1)
	}
	return lib
}
