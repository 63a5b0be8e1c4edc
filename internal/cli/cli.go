// Package cli implements the magstack command-line interface.
//
// # Commands
//
//   - run: open the card stack window
//   - tui: drive the card stack from the terminal
//   - items: list the items the content source returns
//   - config: print the effective configuration as TOML
//
// # Configuration
//
// Settings come from, lowest first: built-in defaults, magstack.toml in the
// working directory or the user config directory (or --config), MAGSTACK_*
// environment variables (MAGSTACK_ARCHIVE_ROWS, MAGSTACK_DISMISS_THRESHOLD)
// and flags.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is passed to commands through context.Context.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the version information shown by --version. main calls
// it with values injected through ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "magstack",
		Short:        "magstack shows magazine covers as a swipeable card stack",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)

			s, err := loadSettings(configPath, configDirs(), cmd.Flags())
			if err != nil {
				return err
			}
			ctx := withLogger(cmd.Context(), logger)
			cmd.SetContext(withSettings(ctx, s))
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("magstack %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default magstack.toml)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newTUICmd())
	root.AddCommand(newItemsCmd())
	root.AddCommand(newConfigCmd())
	return root
}

// configDirs lists where magstack.toml is looked for.
func configDirs() []string {
	dirs := []string{"."}
	if base, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(base, appName))
	}
	return dirs
}

// addContentFlags registers the flags of commands that fetch items.
func addContentFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("rows", 0, "number of items to fetch")
	f.String("query", "", "archive.org search query")
	f.String("base-url", "", "archive.org base URL")
}

// addThumbnailFlags registers the flags of commands that load thumbnails.
func addThumbnailFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("concurrency", 0, "parallel thumbnail downloads")
	f.String("cache-dir", "", "thumbnail cache directory")
	f.String("redis-url", "", "redis URL for a shared thumbnail cache")
	f.Bool("no-cache", false, "disable the thumbnail cache")
}
