package channel

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/danmuck/densecode/internal/bitstream"
	"github.com/danmuck/densecode/internal/protocol"
)

// NoiseModel describes an independent bit-flip channel. The flip probability
// of each readout bit is BaseError + StateRate*state + SymbolPenalty*gates,
// clamped to [0, 0.5], where gates counts the non-identity operations of the
// symbol the bit belongs to.
type NoiseModel struct {
	BaseError     float64
	StateRate     float64
	SymbolPenalty float64
	MaxSymbols    int
	Latency       time.Duration
}

func DefaultNoiseModel() NoiseModel {
	return NoiseModel{
		BaseError:     0.01,
		StateRate:     0.0005,
		SymbolPenalty: 0.005,
		MaxSymbols:    DefaultMaxSymbols,
	}
}

func (m NoiseModel) Validate() error {
	if m.BaseError < 0 || m.StateRate < 0 || m.SymbolPenalty < 0 {
		return fmt.Errorf("%w: noise rates must be non-negative", protocol.ErrInvalidParameter)
	}
	if m.MaxSymbols <= 0 {
		return fmt.Errorf("%w: max symbols %d must be positive", protocol.ErrInvalidParameter, m.MaxSymbols)
	}
	if m.Latency < 0 {
		return fmt.Errorf("%w: latency %s must be non-negative", protocol.ErrInvalidParameter, m.Latency)
	}
	return nil
}

// FlipProbability is the per-bit error rate for a symbol at the given state.
func (m NoiseModel) FlipProbability(s protocol.Symbol, state float64) float64 {
	p := m.BaseError + m.StateRate*state + m.SymbolPenalty*float64(s.Gates())
	return min(max(p, 0), 0.5)
}

// Noisy simulates a seeded NoiseModel. Calls are safe for concurrent use; the
// shared generator is guarded so a fixed seed with one worker is reproducible.
type Noisy struct {
	model NoiseModel

	mu  sync.Mutex
	rng *rand.Rand
}

func NewNoisy(model NoiseModel, seed int64) (*Noisy, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return &Noisy{model: model, rng: rand.New(rand.NewSource(seed))}, nil
}

func (c *Noisy) Model() NoiseModel {
	return c.model
}

func (c *Noisy) MaxSymbols() int {
	return c.model.MaxSymbols
}

func (c *Noisy) Transmit(ctx context.Context, req Request) ([]bitstream.Bits, error) {
	if err := req.Validate(c.model.MaxSymbols); err != nil {
		return nil, err
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	probs := make([]float64, len(req.Symbols))
	for i, s := range req.Symbols {
		probs[i] = c.model.FlipProbability(s, req.State)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]bitstream.Bits, req.Trials)
	for trial := range out {
		b := bitstream.NewBuilder(2 * len(req.Symbols))
		for i, s := range req.Symbols {
			readout := s.Readout()
			for bit := 1; bit >= 0; bit-- {
				v := readout>>uint(bit)&1 == 1
				if c.rng.Float64() < probs[i] {
					v = !v
				}
				b.AppendBit(v)
			}
		}
		out[trial] = b.Bits()
	}
	return out, nil
}

func (c *Noisy) wait(ctx context.Context) error {
	if c.model.Latency <= 0 {
		return ContextError(ctx.Err())
	}
	timer := time.NewTimer(c.model.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ContextError(ctx.Err())
	case <-timer.C:
		return nil
	}
}
