package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fentz26/daylog/internal/client"
	"github.com/fentz26/daylog/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "daylog",
	Short: "daylog - personal time tracking",
	Long: `daylog tracks time against a per-day todo list. A local daemon owns the
data and keeps a single timer running across midnight; the CLI and TUI talk
to it over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		return nil
	},
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr string
	dataDir string
	noColor bool

	loadedConfig *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "", "API server address (default: listen address from config)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default $DAYLOG_DATA_DIR or ~/.daylog)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(statsCmd, timelineCmd, datesCmd, activityCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the configuration once per process.
func loadConfig() (*config.Config, error) {
	if loadedConfig != nil {
		return loadedConfig, nil
	}
	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}
	loadedConfig = cfg
	return cfg, nil
}

// resolveAPIAddr returns --api, falling back to the configured listen
// address.
func resolveAPIAddr() (string, error) {
	if apiAddr != "" {
		return apiAddr, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Listen, nil
}

func newClient() (*client.Client, error) {
	addr, err := resolveAPIAddr()
	if err != nil {
		return nil, err
	}
	return client.New(addr), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
