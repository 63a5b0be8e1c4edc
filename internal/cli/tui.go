package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/phanxgames/magstack"
	"github.com/phanxgames/magstack/internal/tui"
)

func newTUICmd() *cobra.Command {
	var (
		offline      bool
		cellW, cellH float64
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Drive the card stack from the terminal",
		Long: `Drive a card stack without a window.

The front card follows left-button mouse drags, converted from cells to
pixels, so the thresholds and commits match the window. Keys: t toggle,
enter select, d dismiss, esc cancel, q quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			s := settingsFromContext(ctx)

			items := offlineItems(s.MaxVisible)
			if !offline {
				var err error
				items, err = newSource(s, logger).FetchItems(ctx)
				if err != nil {
					return err
				}
			}

			// The terminal belongs to the model from here on.
			quiet := log.New(cmd.ErrOrStderr())
			quiet.SetLevel(log.ErrorLevel)

			m, err := tui.New(items, magstack.WithConfig(s.Config), magstack.WithLogger(quiet))
			if err != nil {
				return err
			}
			m.SetLogger(quiet)
			m.SetCellSize(cellW, cellH)
			return tui.Run(m)
		},
	}

	addContentFlags(cmd)
	cmd.Flags().BoolVar(&offline, "offline", false, "use placeholder items instead of fetching")
	cmd.Flags().Float64Var(&cellW, "cell-width", tui.DefaultCellWidth, "pixels per terminal column")
	cmd.Flags().Float64Var(&cellH, "cell-height", tui.DefaultCellHeight, "pixels per terminal row")
	cmd.Flags().Bool("select-commit", true, "let right and up drags select a card")
	return cmd
}
