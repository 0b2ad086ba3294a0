package main

import (
	"fmt"

	"github.com/danmuck/densecode/internal/bitstream"
	"github.com/danmuck/densecode/internal/orchestrator"
	"github.com/spf13/cobra"
)

func newSendCmd(opts *options) *cobra.Command {
	var text bool
	cmd := &cobra.Command{
		Use:   "send <bits|text>",
		Short: "Transmit a bit-string, or text with --text",
		Example: `  densectl send 1100 --capacity 4
  densectl send --text "hello" --channel noisy --trials 32 --code repetition:3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			var bits bitstream.Bits
			if text {
				bits = bitstream.FromBytes([]byte(args[0]))
			} else if bits, err = bitstream.Parse(args[0]); err != nil {
				return err
			}

			orch, err := opts.orchestrator(cfg)
			if err != nil {
				return err
			}
			res, err := orch.Transmit(cmd.Context(), bits, cfg.Params)
			if err != nil {
				return err
			}
			summary := orch.Summarize(res)
			out := cmd.OutOrStdout()
			if err := writeSummaries(out, opts.output, []orchestrator.Summary{summary}); err != nil {
				return err
			}
			if opts.output == "table" {
				printSample(out, summary)
				if text && len(res.Trials) > 0 && res.Trials[0].Len()%8 == 0 {
					fmt.Fprintf(out, "%s %q\n", dimFmt("text:"), string(res.Trials[0].Bytes()))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "treat the argument as UTF-8 text")
	return cmd
}
