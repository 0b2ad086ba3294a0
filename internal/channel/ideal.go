package channel

import (
	"context"

	"github.com/danmuck/densecode/internal/bitstream"
	"github.com/danmuck/densecode/internal/protocol"
)

// Ideal is a lossless channel: every trial reads back exactly what was sent.
type Ideal struct {
	Max int
}

func NewIdeal() *Ideal {
	return &Ideal{Max: DefaultMaxSymbols}
}

func (c *Ideal) MaxSymbols() int {
	return c.Max
}

func (c *Ideal) Transmit(ctx context.Context, req Request) ([]bitstream.Bits, error) {
	if err := req.Validate(c.Max); err != nil {
		return nil, err
	}
	if err := ContextError(ctx.Err()); err != nil {
		return nil, err
	}
	readout := protocol.ReadoutBits(req.Symbols)
	out := make([]bitstream.Bits, req.Trials)
	for i := range out {
		out[i] = readout
	}
	return out, nil
}
