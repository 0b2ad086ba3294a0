package main

import (
	"fmt"
	"os"

	"github.com/danmuck/densecode/internal/config"
	"github.com/spf13/cobra"
)

var defaultPaths = map[string]string{
	"channel":    "cmd/channelctl/config.toml",
	"experiment": "cmd/densectl/config.toml",
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "configgen: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		kind     string
		output   string
		validate bool
		input    string
		force    bool
	)
	cmd := &cobra.Command{
		Use:          "configgen",
		Short:        "Write or validate densecode config files",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaultPath, ok := defaultPaths[kind]
			if !ok {
				return fmt.Errorf("unknown kind: %s", kind)
			}
			out := cmd.OutOrStdout()

			if validate {
				if kind != "channel" {
					return fmt.Errorf("validate supports kind channel; experiment configs are checked by densectl -c")
				}
				path := input
				if path == "" {
					path = defaultPath
				}
				if _, err := config.LoadChannelServerConfig(path); err != nil {
					return err
				}
				fmt.Fprintf(out, "Validated %s config at %s\n", kind, path)
				return nil
			}

			target := output
			if target == "" {
				target = defaultPath
			}
			if err := config.WriteTemplate(target, kind, force); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %s config template to %s\n", kind, target)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "channel", "config kind: channel|experiment")
	cmd.Flags().StringVar(&output, "output", "", "output path for config template")
	cmd.Flags().BoolVar(&validate, "validate", false, "validate an existing config file")
	cmd.Flags().StringVar(&input, "input", "", "config path for validation (defaults to per-kind cmd path)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config file")
	return cmd
}
