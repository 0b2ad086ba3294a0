package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/densecode/internal/protocol"
	"github.com/danmuck/densecode/internal/protocol/ecc"
)

// FidelityMethod selects how reconstructed trials are scored.
type FidelityMethod string

const (
	// FidelityPerBit is the mean positional match rate across trials.
	FidelityPerBit FidelityMethod = "per_bit"
	// FidelityExactMatch is the fraction of trials equal to the original.
	FidelityExactMatch FidelityMethod = "exact_match"
)

func ParseFidelityMethod(raw string) (FidelityMethod, error) {
	switch m := FidelityMethod(strings.ToLower(strings.TrimSpace(raw))); m {
	case FidelityPerBit, FidelityExactMatch:
		return m, nil
	case "":
		return FidelityPerBit, nil
	default:
		return "", fmt.Errorf("%w: unknown fidelity method %q", protocol.ErrInvalidParameter, raw)
	}
}

// Params governs one transmission. Timeout bounds the send phase; zero leaves
// only the caller's deadline.
type Params struct {
	Capacity int
	Trials   int
	State    float64
	Mapping  protocol.Mapping
	Codes    ecc.Chain
	Workers  int
	Timeout  time.Duration
	Fidelity FidelityMethod
}

func DefaultParams() Params {
	return Params{
		Capacity: protocol.DefaultMaxCapacity,
		Trials:   1,
		Mapping:  protocol.DefaultMapping(),
		Workers:  4,
		Fidelity: FidelityPerBit,
	}
}

// Validate checks everything that does not depend on the channel.
func (p Params) Validate() error {
	if p.Trials < 1 || p.Trials > protocol.MaxTrials {
		return fmt.Errorf("%w: trials %d must be between 1 and %d", protocol.ErrInvalidParameter, p.Trials, protocol.MaxTrials)
	}
	if p.State < 0 {
		return fmt.Errorf("%w: channel state %v must be non-negative", protocol.ErrInvalidParameter, p.State)
	}
	if p.Workers < 1 {
		return fmt.Errorf("%w: workers %d must be at least 1", protocol.ErrInvalidParameter, p.Workers)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("%w: timeout %s must be non-negative", protocol.ErrInvalidParameter, p.Timeout)
	}
	if _, err := ParseFidelityMethod(string(p.Fidelity)); err != nil {
		return err
	}
	if err := p.Mapping.Validate(); err != nil {
		return err
	}
	return p.Codes.Validate()
}
