package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"github.com/tormodhaugland/maiden/internal/dust"
)

var lsJSON bool

var lsCmd = &cobra.Command{
	Use:   "ls [query]",
	Short: "List files in the dust directory",
	Long: `Lists every file under the dust directory, one resource name per line.

With a query the list is fuzzy matched and sorted by score:
  maiden ls awake     # matches scripts/awake.lua
  maiden ls lib/ut    # matches scripts/lib/util.lua`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger := cfg.NewLogger(os.Stderr)
		names, err := listFiles(cmd.Context(), openStore(cfg, logger), dust.DefaultPrefix, logger)
		if err != nil {
			return fmt.Errorf("failed to list dust: %w", err)
		}

		if len(args) == 1 {
			var matched []string
			for _, m := range fuzzy.Find(args[0], names) {
				matched = append(matched, m.Str)
			}
			names = matched
		}

		if lsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(names)
		}

		if len(names) == 0 {
			fmt.Fprintln(os.Stderr, "No files found")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

// listFiles walks the store from url and returns the resource names of
// all files below it.
func listFiles(ctx context.Context, api dust.Store, url string, logger *slog.Logger) ([]string, error) {
	listing, err := api.List(ctx, url)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range listing.Entries {
		if e.IsDir() {
			sub, err := listFiles(ctx, api, e.URL, logger)
			if err != nil {
				logger.Warn("skipping directory", "url", e.URL, "error", err)
				continue
			}
			names = append(names, sub...)
			continue
		}
		name, err := dust.ResourceName(dust.DefaultPrefix, e.URL)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func init() {
	lsCmd.Flags().BoolVar(&lsJSON, "json", false, "output in JSON format")
	rootCmd.AddCommand(lsCmd)
}
