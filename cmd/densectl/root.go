package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/densecode/internal/channel"
	"github.com/danmuck/densecode/internal/orchestrator"
	"github.com/danmuck/densecode/internal/protocol"
	"github.com/danmuck/densecode/internal/protocol/ecc"
	"github.com/spf13/cobra"
)

var Version = "0.1.0"

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	output     string

	channel  string
	remote   string
	token    string
	capacity int
	trials   int
	state    float64
	mapping  string
	codes    []string
	workers  int
	timeout  time.Duration
	fidelity string
	seed     int64
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "densectl",
		Short: "Send payloads across a four-symbol dense coding link",
		Long: `densectl encodes payloads into 2-bit symbols, sends them through a
channel in capacity-bounded packets and scores how faithfully each
trial comes back.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "experiment config (TOML)")
	flags.StringVarP(&opts.output, "output", "o", "table", "output format: table, json, yaml")
	flags.StringVar(&opts.channel, "channel", "", "channel id: ideal, noisy, remote")
	flags.StringVar(&opts.remote, "remote", "", "channel server base URL")
	flags.StringVar(&opts.token, "token", "", "channel server token")
	flags.IntVar(&opts.capacity, "capacity", 0, "packet capacity in bits (even, at most 28)")
	flags.IntVar(&opts.trials, "trials", 0, "trials per packet")
	flags.Float64Var(&opts.state, "state", 0, "channel state (non-negative)")
	flags.StringVar(&opts.mapping, "mapping", "", "symbols for groups 00,01,10,11, e.g. I,X,Z,ZX")
	flags.StringSliceVar(&opts.codes, "code", nil, "error correction step, repeatable: repetition:N, bitflip:N[:T]")
	flags.IntVar(&opts.workers, "workers", 0, "parallel channel calls")
	flags.DurationVar(&opts.timeout, "timeout", 0, "deadline for the send phase")
	flags.StringVar(&opts.fidelity, "fidelity", "", "fidelity method: per_bit, exact_match")
	flags.Int64Var(&opts.seed, "seed", 0, "noisy channel seed")

	root.AddCommand(
		newSendCmd(opts),
		newImageCmd(opts),
		newSweepCmd(opts),
		newChannelsCmd(opts),
	)
	return root
}

// resolve loads the config file, if any, and applies explicitly set flags.
func (o *options) resolve(cmd *cobra.Command) (experimentConfig, error) {
	cfg := defaultExperimentConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = loadExperimentConfig(o.configPath); err != nil {
			return experimentConfig{}, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("channel") {
		cfg.Channel = strings.ToLower(strings.TrimSpace(o.channel))
	}
	if changed("remote") {
		cfg.Remote = strings.TrimSpace(o.remote)
		if !changed("channel") {
			cfg.Channel = "remote"
		}
	}
	if changed("token") {
		cfg.Token = o.token
	}
	if changed("seed") {
		cfg.Seed = o.seed
	}
	if changed("capacity") {
		cfg.Params.Capacity = o.capacity
	}
	if changed("trials") {
		cfg.Params.Trials = o.trials
	}
	if changed("state") {
		cfg.Params.State = o.state
	}
	if changed("workers") {
		cfg.Params.Workers = o.workers
	}
	if changed("timeout") {
		cfg.Params.Timeout = o.timeout
	}
	if changed("mapping") {
		m, err := protocol.ParseMapping(o.mapping)
		if err != nil {
			return experimentConfig{}, err
		}
		cfg.Params.Mapping = m
	}
	if changed("code") {
		chain, err := ecc.ParseChain(o.codes)
		if err != nil {
			return experimentConfig{}, err
		}
		cfg.Params.Codes = chain
	}
	if changed("fidelity") {
		m, err := orchestrator.ParseFidelityMethod(o.fidelity)
		if err != nil {
			return experimentConfig{}, err
		}
		cfg.Params.Fidelity = m
	}
	return cfg, nil
}

// orchestrator resolves the configured channel and binds an orchestrator to it.
func (o *options) orchestrator(cfg experimentConfig) (*orchestrator.Orchestrator, error) {
	reg, err := cfg.registry()
	if err != nil {
		return nil, err
	}
	adapter, err := reg.Resolve(cfg.Channel)
	if err != nil {
		return nil, fmt.Errorf("%w (known: %s)", err, knownChannels(reg))
	}
	return orchestrator.New(adapter, orchestrator.WithName(cfg.Channel)), nil
}

func knownChannels(reg *channel.Registry) string {
	ids := make([]string, 0)
	for _, meta := range reg.ListMetadata() {
		ids = append(ids, meta.ID)
	}
	return strings.Join(ids, ", ")
}
