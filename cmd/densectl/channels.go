package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/danmuck/densecode/internal/report"
	"github.com/spf13/cobra"
)

func newChannelsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "List the channels densectl can transmit through",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			reg, err := cfg.registry()
			if err != nil {
				return err
			}
			list := reg.ListMetadata()
			out := cmd.OutOrStdout()
			if opts.output != "table" {
				return report.Encode(out, opts.output, list)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tMAX SYMBOLS\tDESCRIPTION")
			for _, m := range list {
				marker := ""
				if m.ID == cfg.Channel {
					marker = okFmt(" *")
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s%s\n", m.ID, m.Name, m.MaxSymbols, m.Description, marker)
			}
			return tw.Flush()
		},
	}
}
