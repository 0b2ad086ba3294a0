package main

import (
	"fmt"

	"github.com/danmuck/densecode/internal/orchestrator"
	"github.com/danmuck/densecode/internal/payload"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newImageCmd(opts *options) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:     "image <input>",
		Short:   "Transmit an image and write the first reconstructed trial",
		Example: `  densectl image cat.png --out cat.rx.png --channel noisy --code repetition:3`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			codec, closeCodec, err := cfg.codec()
			if err != nil {
				return err
			}
			defer closeCodec()

			img, err := payload.LoadImage(args[0])
			if err != nil {
				return err
			}
			orch, err := opts.orchestrator(cfg)
			if err != nil {
				return err
			}
			res, err := orch.TransmitPayload(cmd.Context(), img, codec, cfg.Params)
			if err != nil {
				return err
			}
			if res.DecodeErr != nil {
				log.Warn().Err(res.DecodeErr).Msg("some trials did not decode")
			}

			summary := orch.Summarize(res.Result)
			out := cmd.OutOrStdout()
			if err := writeSummaries(out, opts.output, []orchestrator.Summary{summary}); err != nil {
				return err
			}
			if outPath == "" {
				return nil
			}
			for t, p := range res.Payloads {
				if p.Data == nil {
					continue
				}
				if err := payload.SaveImage(p, outPath); err != nil {
					return err
				}
				if opts.output == "table" {
					fmt.Fprintf(out, "%s trial %d -> %s\n", dimFmt("wrote"), t, outPath)
				}
				return nil
			}
			return fmt.Errorf("no trial decoded into an image: %w", res.DecodeErr)
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write the first decodable trial to this PNG")
	return cmd
}
