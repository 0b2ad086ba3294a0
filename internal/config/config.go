// Package config loads channel server configuration files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/densecode/internal/channel"
	"github.com/danmuck/densecode/internal/protocol/frame"
	"github.com/danmuck/densecode/internal/protocol/session"
	"github.com/pelletier/go-toml/v2"
)

const (
	KindIdeal = "ideal"
	KindNoisy = "noisy"
)

type ChannelServerConfig struct {
	ID              string         `toml:"id"`
	Addr            string         `toml:"addr"`
	Kind            string         `toml:"kind"`
	Token           string         `toml:"token"`
	Seed            int64          `toml:"seed"`
	CorsOrigins     []string       `toml:"cors_origins"`
	MaxPayloadBytes uint64         `toml:"max_payload_bytes"`
	Noise           NoiseConfig    `toml:"noise"`
	Security        SecurityConfig `toml:"security"`
}

// SecurityConfig is the [security] table. Production mode requires mTLS.
type SecurityConfig struct {
	Mode       string `toml:"mode"`
	TLSEnabled bool   `toml:"tls_enabled"`
	TLSMutual  bool   `toml:"tls_mutual"`
	CertFile   string `toml:"cert_file"`
	KeyFile    string `toml:"key_file"`
	CAFile     string `toml:"ca_file"`
}

type NoiseConfig struct {
	BaseError     float64 `toml:"base_error"`
	StateRate     float64 `toml:"state_rate"`
	SymbolPenalty float64 `toml:"symbol_penalty"`
	MaxSymbols    int     `toml:"max_symbols"`
	LatencyMS     int64   `toml:"latency_ms"`
}

// DefaultChannelServerConfig is the configuration missing keys fall back to.
func DefaultChannelServerConfig() ChannelServerConfig {
	m := channel.DefaultNoiseModel()
	return ChannelServerConfig{
		ID:              "channel",
		Addr:            ":9400",
		Kind:            KindNoisy,
		Seed:            1,
		MaxPayloadBytes: frame.DefaultLimits().MaxPayloadBytes,
		Security:        SecurityConfig{Mode: string(session.SecurityModeDevelopment)},
		Noise: NoiseConfig{
			BaseError:     m.BaseError,
			StateRate:     m.StateRate,
			SymbolPenalty: m.SymbolPenalty,
			MaxSymbols:    m.MaxSymbols,
		},
	}
}

func LoadChannelServerConfig(path string) (ChannelServerConfig, error) {
	cfg := DefaultChannelServerConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ChannelServerConfig{}, err
	}
	cfg.Kind = strings.ToLower(strings.TrimSpace(cfg.Kind))
	if err := ValidateChannelServerConfig(cfg); err != nil {
		return ChannelServerConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateChannelServerConfig(cfg ChannelServerConfig) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return fmt.Errorf("channel config missing id")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("channel config missing addr")
	}
	if cfg.Kind != KindIdeal && cfg.Kind != KindNoisy {
		return fmt.Errorf("channel config kind %q must be %q or %q", cfg.Kind, KindIdeal, KindNoisy)
	}
	if cfg.MaxPayloadBytes == 0 {
		return fmt.Errorf("channel config max_payload_bytes must be positive")
	}
	if err := cfg.Noise.Model().Validate(); err != nil {
		return fmt.Errorf("channel config noise invalid: %w", err)
	}
	if err := cfg.Transport().ValidateServerTransport(); err != nil {
		return fmt.Errorf("channel config security invalid: %w", err)
	}
	return nil
}

// Transport maps the [security] table onto the session transport policy.
func (cfg ChannelServerConfig) Transport() session.Config {
	out := session.DefaultConfig()
	out.SecurityMode = session.NormalizeSecurityMode(session.SecurityMode(cfg.Security.Mode))
	out.TLS = session.TLSConfig{
		Enabled:  cfg.Security.TLSEnabled,
		Mutual:   cfg.Security.TLSMutual,
		CertFile: strings.TrimSpace(cfg.Security.CertFile),
		KeyFile:  strings.TrimSpace(cfg.Security.KeyFile),
		CAFile:   strings.TrimSpace(cfg.Security.CAFile),
	}
	return out
}

func (n NoiseConfig) Model() channel.NoiseModel {
	return channel.NoiseModel{
		BaseError:     n.BaseError,
		StateRate:     n.StateRate,
		SymbolPenalty: n.SymbolPenalty,
		MaxSymbols:    n.MaxSymbols,
		Latency:       time.Duration(n.LatencyMS) * time.Millisecond,
	}
}

// Adapter builds the channel the server fronts.
func (cfg ChannelServerConfig) Adapter() (channel.Adapter, error) {
	switch cfg.Kind {
	case KindIdeal:
		return &channel.Ideal{Max: cfg.Noise.MaxSymbols}, nil
	case KindNoisy:
		return channel.NewNoisy(cfg.Noise.Model(), cfg.Seed)
	default:
		return nil, fmt.Errorf("unknown channel kind: %s", cfg.Kind)
	}
}

func (cfg ChannelServerConfig) Limits() frame.Limits {
	limits := frame.DefaultLimits()
	limits.MaxPayloadBytes = cfg.MaxPayloadBytes
	return limits
}
