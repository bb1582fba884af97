package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tormodhaugland/maiden/internal/dust"
	"github.com/tormodhaugland/maiden/internal/server"
)

var (
	servePort   int
	serveAppDir string
	serveDocDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dust directory over HTTP",
	Long: `Starts the dust API so another maiden can browse this machine with
--remote. Routes live under /api/v1/dust.

Optionally serves a web app from --app at /maiden and docs from --doc
at /doc.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Server != "" {
			return fmt.Errorf("serve works on a local dust directory, not --remote")
		}

		info, err := os.Stat(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("dust directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("dust directory %s is not a directory", cfg.DataDir)
		}

		port := cfg.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		logger := cfg.NewLogger(os.Stderr)
		srv := server.New(server.Config{
			Store:   dust.NewLocalStore(cfg.DataDir, logger),
			Port:    port,
			AppDir:  serveAppDir,
			DocDir:  serveDocDir,
			Version: version,
			Logger:  logger,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return srv.Serve(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default: config port)")
	serveCmd.Flags().StringVar(&serveAppDir, "app", "", "directory served at /maiden")
	serveCmd.Flags().StringVar(&serveDocDir, "doc", "", "directory served at /doc")
	rootCmd.AddCommand(serveCmd)
}
