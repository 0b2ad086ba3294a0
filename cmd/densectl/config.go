package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/densecode/internal/bitcodec"
	"github.com/danmuck/densecode/internal/channel"
	"github.com/danmuck/densecode/internal/orchestrator"
	"github.com/danmuck/densecode/internal/protocol"
	"github.com/danmuck/densecode/internal/protocol/ecc"
	"github.com/danmuck/densecode/internal/protocol/session"
)

type noiseFile struct {
	BaseError     float64 `toml:"base_error"`
	StateRate     float64 `toml:"state_rate"`
	SymbolPenalty float64 `toml:"symbol_penalty"`
	MaxSymbols    int     `toml:"max_symbols"`
	Latency       string  `toml:"latency"`
}

type remoteTLSFile struct {
	Mode               string `toml:"mode"`
	Enabled            bool   `toml:"enabled"`
	Mutual             bool   `toml:"mutual"`
	CertFile           string `toml:"cert_file"`
	KeyFile            string `toml:"key_file"`
	CAFile             string `toml:"ca_file"`
	ServerName         string `toml:"server_name"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

type fileConfig struct {
	Channel   string        `toml:"channel"`
	Remote    string        `toml:"remote"`
	Token     string        `toml:"token"`
	Capacity  int           `toml:"capacity"`
	Trials    int           `toml:"trials"`
	State     float64       `toml:"state"`
	Mapping   string        `toml:"mapping"`
	Codes     []string      `toml:"codes"`
	Workers   int           `toml:"workers"`
	Timeout   string        `toml:"timeout"`
	Fidelity  string        `toml:"fidelity"`
	Precision int           `toml:"precision"`
	Compress  bool          `toml:"compress"`
	Seed      int64         `toml:"seed"`
	Noise     noiseFile     `toml:"noise"`
	RemoteTLS remoteTLSFile `toml:"remote_tls"`
}

// experimentConfig is everything one densectl run needs.
type experimentConfig struct {
	Channel   string
	Remote    string
	Token     string
	Seed      int64
	Noise     channel.NoiseModel
	Precision int
	Compress  bool
	Params    orchestrator.Params
	Transport session.Config
}

func defaultExperimentConfig() experimentConfig {
	return experimentConfig{
		Channel:   "ideal",
		Seed:      1,
		Noise:     channel.DefaultNoiseModel(),
		Precision: bitcodec.DefaultPrecision,
		Params:    orchestrator.DefaultParams(),
		Transport: session.DefaultConfig(),
	}
}

func loadExperimentConfig(path string) (experimentConfig, error) {
	cfg := defaultExperimentConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return experimentConfig{}, fmt.Errorf("load experiment config: %w", err)
	}

	if meta.IsDefined("channel") {
		cfg.Channel = strings.ToLower(strings.TrimSpace(raw.Channel))
	}
	if meta.IsDefined("remote") {
		cfg.Remote = strings.TrimSpace(raw.Remote)
	}
	if meta.IsDefined("token") {
		cfg.Token = strings.TrimSpace(raw.Token)
	}
	if meta.IsDefined("seed") {
		cfg.Seed = raw.Seed
	}
	if meta.IsDefined("precision") {
		cfg.Precision = raw.Precision
	}
	if meta.IsDefined("compress") {
		cfg.Compress = raw.Compress
	}
	if meta.IsDefined("capacity") {
		cfg.Params.Capacity = raw.Capacity
	}
	if meta.IsDefined("trials") {
		cfg.Params.Trials = raw.Trials
	}
	if meta.IsDefined("state") {
		cfg.Params.State = raw.State
	}
	if meta.IsDefined("workers") {
		cfg.Params.Workers = raw.Workers
	}
	if meta.IsDefined("mapping") {
		m, err := protocol.ParseMapping(raw.Mapping)
		if err != nil {
			return experimentConfig{}, fmt.Errorf("parse mapping: %w", err)
		}
		cfg.Params.Mapping = m
	}
	if meta.IsDefined("codes") {
		chain, err := ecc.ParseChain(raw.Codes)
		if err != nil {
			return experimentConfig{}, fmt.Errorf("parse codes: %w", err)
		}
		cfg.Params.Codes = chain
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return experimentConfig{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Params.Timeout = d
	}
	if meta.IsDefined("fidelity") {
		m, err := orchestrator.ParseFidelityMethod(raw.Fidelity)
		if err != nil {
			return experimentConfig{}, fmt.Errorf("parse fidelity: %w", err)
		}
		cfg.Params.Fidelity = m
	}

	if meta.IsDefined("noise", "base_error") {
		cfg.Noise.BaseError = raw.Noise.BaseError
	}
	if meta.IsDefined("noise", "state_rate") {
		cfg.Noise.StateRate = raw.Noise.StateRate
	}
	if meta.IsDefined("noise", "symbol_penalty") {
		cfg.Noise.SymbolPenalty = raw.Noise.SymbolPenalty
	}
	if meta.IsDefined("noise", "max_symbols") {
		cfg.Noise.MaxSymbols = raw.Noise.MaxSymbols
	}
	if meta.IsDefined("noise", "latency") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Noise.Latency))
		if err != nil {
			return experimentConfig{}, fmt.Errorf("parse noise latency: %w", err)
		}
		cfg.Noise.Latency = d
	}

	if meta.IsDefined("remote_tls", "mode") {
		cfg.Transport.SecurityMode = session.NormalizeSecurityMode(session.SecurityMode(raw.RemoteTLS.Mode))
	}
	if meta.IsDefined("remote_tls", "enabled") {
		cfg.Transport.TLS.Enabled = raw.RemoteTLS.Enabled
	}
	if meta.IsDefined("remote_tls", "mutual") {
		cfg.Transport.TLS.Mutual = raw.RemoteTLS.Mutual
	}
	if meta.IsDefined("remote_tls", "cert_file") {
		cfg.Transport.TLS.CertFile = strings.TrimSpace(raw.RemoteTLS.CertFile)
	}
	if meta.IsDefined("remote_tls", "key_file") {
		cfg.Transport.TLS.KeyFile = strings.TrimSpace(raw.RemoteTLS.KeyFile)
	}
	if meta.IsDefined("remote_tls", "ca_file") {
		cfg.Transport.TLS.CAFile = strings.TrimSpace(raw.RemoteTLS.CAFile)
	}
	if meta.IsDefined("remote_tls", "server_name") {
		cfg.Transport.TLS.ServerName = strings.TrimSpace(raw.RemoteTLS.ServerName)
	}
	if meta.IsDefined("remote_tls", "insecure_skip_verify") {
		cfg.Transport.TLS.InsecureSkipVerify = raw.RemoteTLS.InsecureSkipVerify
	}

	return cfg, nil
}

// codec builds the payload codec the config asks for. The returned close
// releases the compressor, if any.
func (c experimentConfig) codec() (bitcodec.Codec, func(), error) {
	if !c.Compress {
		codec, err := bitcodec.New(c.Precision)
		return codec, func() {}, err
	}
	z, err := bitcodec.NewZstd()
	if err != nil {
		return bitcodec.Codec{}, nil, err
	}
	codec, err := bitcodec.New(c.Precision, bitcodec.WithCompressor(z))
	if err != nil {
		z.Close()
		return bitcodec.Codec{}, nil, err
	}
	return codec, z.Close, nil
}

// registry exposes the built-in channels plus the remote one when configured.
func (c experimentConfig) registry() (*channel.Registry, error) {
	r := channel.NewRegistry()
	if err := r.Register(channel.Metadata{
		ID:          "ideal",
		Name:        "Ideal",
		Description: "Lossless channel, every trial reads back what was sent",
	}, &channel.Ideal{Max: c.Noise.MaxSymbols}); err != nil {
		return nil, err
	}
	noisy, err := channel.NewNoisy(c.Noise, c.Seed)
	if err != nil {
		return nil, err
	}
	if err := r.Register(channel.Metadata{
		ID:          "noisy",
		Name:        "Noisy",
		Description: "Seeded bit-flip channel, error grows with state and gates",
	}, noisy); err != nil {
		return nil, err
	}
	if c.Remote != "" {
		remote, err := channel.NewRemote(c.Remote,
			channel.WithToken(c.Token),
			channel.WithMaxSymbols(c.Noise.MaxSymbols),
			channel.WithSession(c.Transport),
		)
		if err != nil {
			return nil, fmt.Errorf("remote channel: %w", err)
		}
		if err := r.Register(channel.Metadata{
			ID:          "remote",
			Name:        "Remote",
			Description: "Channel server at " + c.Remote,
		}, remote); err != nil {
			return nil, err
		}
	}
	return r, nil
}
