package main

import (
	"github.com/danmuck/densecode/internal/bitstream"
	"github.com/danmuck/densecode/internal/orchestrator"
	"github.com/danmuck/densecode/internal/report"
	"github.com/spf13/cobra"
)

func newSweepCmd(opts *options) *cobra.Command {
	var (
		states   []float64
		plotPath string
		text     bool
	)
	cmd := &cobra.Command{
		Use:     "sweep <bits|text>",
		Short:   "Transmit once per channel state and report fidelity for each",
		Example: `  densectl sweep 10110100 --channel noisy --trials 64 --states 0,100,200,400 --plot fidelity.png`,
		Args:    cobra.ExactArgs(1),
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
			results, err := orch.Sweep(cmd.Context(), bits, cfg.Params, states)
			if err != nil {
				return err
			}

			summaries := make([]orchestrator.Summary, len(results))
			for i, res := range results {
				summaries[i] = orch.Summarize(res)
			}
			out := cmd.OutOrStdout()
			if opts.output == "table" {
				printHeading(out, "fidelity by channel state")
			}
			if err := writeSummaries(out, opts.output, summaries); err != nil {
				return err
			}
			if plotPath == "" {
				return nil
			}
			p, err := report.FidelityPlot("Fidelity vs channel state", report.AxisState, summaries)
			if err != nil {
				return err
			}
			return report.SavePlot(p, report.DefaultWidth, report.DefaultHeight, plotPath)
		},
	}
	cmd.Flags().Float64SliceVar(&states, "states", []float64{0, 100, 200, 400, 800}, "channel states to sweep")
	cmd.Flags().StringVar(&plotPath, "plot", "", "write a fidelity plot (png, svg, pdf)")
	cmd.Flags().BoolVar(&text, "text", false, "treat the argument as UTF-8 text")
	return cmd
}
