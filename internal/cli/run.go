package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phanxgames/magstack"
	"github.com/phanxgames/magstack/internal/detail"
)

func newRunCmd() *cobra.Command {
	var (
		offline bool
		script  string
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the card stack window",
		Long: `Open a window showing the card stack.

Drag the front card down to dismiss it, right or up to select it. Tap to
toggle between the stacked and expanded layouts; long press to open the
card.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			s := settingsFromContext(ctx)

			width := int(2 * s.HalfWidth)
			height := int(2 * s.HalfHeight)

			scene := magstack.NewScene()
			scene.SetLogger(logger)
			scene.SetDebugMode(debug)
			scene.ClearColor = magstack.Color{R: 0.08, G: 0.08, B: 0.1, A: 1}
			scene.ScreenshotDir = s.Window.ScreenshotDir

			if script != "" {
				data, err := os.ReadFile(script)
				if err != nil {
					return fmt.Errorf("read script: %w", err)
				}
				runner, err := magstack.LoadTestScript(data)
				if err != nil {
					return err
				}
				scene.SetTestRunner(runner)
			}

			presenter := detail.NewPresenter(scene, float64(width), float64(height), logger)
			st, err := magstack.NewStack(scene, nil,
				magstack.WithConfig(s.Config),
				magstack.WithLogger(logger),
				magstack.WithHaptics(magstack.DefaultVibration),
				magstack.WithPresenter(presenter),
				magstack.WithRemovalListener(removalLog{logger}),
				magstack.WithEventSink(eventLog(logger)),
			)
			if err != nil {
				return err
			}

			if offline {
				st.Append(offlineItems(s.MaxVisible)...)
			} else {
				c, err := openCache(ctx, s, logger)
				if err != nil {
					return err
				}
				defer c.Close()
				loader, err := newLoader(c, s, logger)
				if err != nil {
					return err
				}
				if err := populate(ctx, st, newSource(s, logger), loader); err != nil {
					return err
				}
			}

			return magstack.Run(scene, magstack.RunConfig{
				Title:   s.Window.Title,
				Width:   width,
				Height:  height,
				ShowFPS: s.Window.ShowFPS,
			})
		},
	}

	addContentFlags(cmd)
	addThumbnailFlags(cmd)
	cmd.Flags().BoolVar(&offline, "offline", false, "use placeholder items instead of fetching")
	cmd.Flags().StringVar(&script, "script", "", "JSON input script to replay")
	cmd.Flags().BoolVar(&debug, "debug", false, "log frame timings and check the node tree")
	cmd.Flags().Bool("fps", false, "show FPS")
	cmd.Flags().String("screenshot-dir", "", "directory for script screenshots")
	cmd.Flags().Bool("select-commit", true, "let right and up drags select a card")
	return cmd
}
