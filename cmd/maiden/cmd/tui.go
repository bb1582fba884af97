package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tormodhaugland/maiden/internal/session"
	"github.com/tormodhaugland/maiden/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the explorer TUI",
	Long: `Opens the terminal explorer with the scripts, data and audio sections.

Logs go to ~/.config/maiden/maiden.log while the TUI owns the terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if err := prepareDataDir(cfg); err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.StateDir(), 0o755); err != nil {
			return fmt.Errorf("failed to create state dir: %w", err)
		}
		logFile, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log: %w", err)
		}
		defer logFile.Close()
		logger := cfg.NewLogger(logFile)

		root := cfg.DataDir
		if cfg.Server != "" {
			root = cfg.Server
		}
		db, err := session.Open(cfg.SessionPath(), root)
		if err != nil {
			logger.Warn("session disabled", "error", err)
			db = nil
		} else {
			defer db.Close()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return tui.Run(ctx, tui.Options{
			Store:   openStore(cfg, logger),
			Session: db,
			Watch:   cfg.Server == "",
			Editor:  cfg.Editor,
			Logger:  logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
