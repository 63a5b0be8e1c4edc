package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Long: `Print the configuration after defaults, the config file, MAGSTACK_*
environment variables and flags are applied. The output is a valid
magstack.toml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := settingsFromContext(cmd.Context())
			if err := toml.NewEncoder(cmd.OutOrStdout()).Encode(s); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			return nil
		},
	}
	addContentFlags(cmd)
	addThumbnailFlags(cmd)
	return cmd
}
