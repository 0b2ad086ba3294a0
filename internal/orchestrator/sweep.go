package orchestrator

import (
	"context"
	"fmt"

	"github.com/danmuck/densecode/internal/bitstream"
)

// Sweep transmits bits once per channel state, in order. It stops at the
// first failure and returns the results gathered so far.
func (o *Orchestrator) Sweep(ctx context.Context, bits bitstream.Bits, params Params, states []float64) ([]Result, error) {
	results := make([]Result, 0, len(states))
	for i, state := range states {
		p := params
		p.State = state
		res, err := o.Transmit(ctx, bits, p)
		if err != nil {
			return results, fmt.Errorf("sweep state[%d]=%v: %w", i, state, err)
		}
		results = append(results, res)
	}
	return results, nil
}
