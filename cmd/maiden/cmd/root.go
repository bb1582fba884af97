package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tormodhaugland/maiden/internal/config"
	"github.com/tormodhaugland/maiden/internal/dust"
)

// version is set at build time.
var version = "dev"

var (
	cfgFile   string
	dataDir   string
	remoteURL string
)

var rootCmd = &cobra.Command{
	Use:   "maiden",
	Short: "Script explorer for a dust directory",
	Long: `maiden browses and manages the scripts, data and audio kept in a
dust directory, either on this machine or on a remote 'maiden serve'.

Running 'maiden' without arguments launches the TUI.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tuiCmd.RunE(cmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/maiden/config.json)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "dust directory (overrides data_dir)")
	rootCmd.PersistentFlags().StringVar(&remoteURL, "remote", "", "base URL of a running 'maiden serve' to use instead of the dust directory")
}

// loadConfig loads the config and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if remoteURL != "" {
		cfg.Server = remoteURL
	}
	return cfg, nil
}

// openStore returns the store commands work against: the remote server
// when one is configured, the dust directory otherwise.
func openStore(cfg *config.Config, logger *slog.Logger) dust.Store {
	if cfg.Server != "" {
		return dust.NewClient(cfg.Server, logger)
	}
	return dust.NewLocalStore(cfg.DataDir, logger)
}

// prepareDataDir makes sure a local dust directory has its scripts
// folder, where new scripts are created.
func prepareDataDir(cfg *config.Config) error {
	if cfg.Server != "" {
		return nil
	}
	if err := os.MkdirAll(cfg.ScriptsDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create scripts dir: %w", err)
	}
	return nil
}
