package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	styleIndex = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleID    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	styleURL   = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
)

func newItemsCmd() *cobra.Command {
	var urls bool

	cmd := &cobra.Command{
		Use:   "items",
		Short: "List the items the content source returns",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			s := settingsFromContext(ctx)

			items, err := newSource(s, logger).FetchItems(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, item := range items {
				line := styleIndex.Render(fmt.Sprintf("%3d", i+1)) + "  " + styleID.Render(item.ID)
				if urls {
					line += "  " + styleURL.Render(item.ThumbnailURL)
				}
				fmt.Fprintln(out, line)
			}
			logger.Debug("items listed", "count", len(items))
			return nil
		},
	}

	addContentFlags(cmd)
	cmd.Flags().BoolVar(&urls, "urls", false, "also print thumbnail URLs")
	return cmd
}
