// Package channel holds the adapters the link transmits symbols through.
//
// An adapter receives one packet's symbols and returns one readout per trial.
// A readout is the two-bit measurement outcome of every symbol, so it is
// always twice as long as the symbol sequence. Noise shows up as flipped
// readout bits.
package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/densecode/internal/bitstream"
	"github.com/danmuck/densecode/internal/protocol"
)

// DefaultMaxSymbols matches the 28-bit packet ceiling of the reference channel.
const DefaultMaxSymbols = protocol.DefaultMaxCapacity / 2

// Request is one packet transmission. State is an opaque non-negative
// channel parameter (an injected delay in microseconds for the reference
// channels) that worsens expected fidelity as it grows.
type Request struct {
	Symbols []protocol.Symbol
	Trials  int
	State   float64
}

// Adapter is the channel capability the orchestrator is given.
type Adapter interface {
	Transmit(ctx context.Context, req Request) ([]bitstream.Bits, error)
	MaxSymbols() int
}

// Validate checks the request against an adapter's symbol ceiling.
func (r Request) Validate(maxSymbols int) error {
	if r.Trials < 1 || r.Trials > protocol.MaxTrials {
		return fmt.Errorf("%w: trials %d must be between 1 and %d", protocol.ErrInvalidParameter, r.Trials, protocol.MaxTrials)
	}
	if r.State < 0 {
		return fmt.Errorf("%w: channel state %v must be non-negative", protocol.ErrInvalidParameter, r.State)
	}
	if maxSymbols > 0 && len(r.Symbols) > maxSymbols {
		return fmt.Errorf("%w: %d symbols, maximum %d", protocol.ErrChannelCapacityExceeded, len(r.Symbols), maxSymbols)
	}
	for i, s := range r.Symbols {
		if !s.Valid() {
			return fmt.Errorf("%w: symbol %d at position %d", protocol.ErrInvalidPacket, uint8(s), i)
		}
	}
	return nil
}

// ContextError maps a finished context to the channel error taxonomy.
func ContextError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", protocol.ErrChannelTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", protocol.ErrChannelUnavailable, err)
	default:
		return err
	}
}
