package session

import "time"

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// SecurityMode selects how strictly transport security is enforced.
type SecurityMode string

const (
	SecurityModeDevelopment SecurityMode = "development"
	SecurityModeProduction  SecurityMode = "production"
)

// TLSConfig names the certificate material for one side of a channel link.
// ServerName overrides the host taken from the dialled URL.
type TLSConfig struct {
	Enabled            bool
	Mutual             bool
	CertFile           string
	KeyFile            string
	CAFile             string
	ServerName         string
	InsecureSkipVerify bool
}

// Config defines remote channel reliability and transport defaults.
type Config struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	MaxAttempts    int
	SecurityMode   SecurityMode
	TLS            TLSConfig
	Backoff        BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		DialTimeout:    5 * time.Second,
		RequestTimeout: 30 * time.Second,
		MaxAttempts:    3,
		SecurityMode:   SecurityModeDevelopment,
		Backoff: BackoffConfig{
			InitialDelay: 100 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     2 * time.Second,
			Jitter:       true,
		},
	}
}
