package channel

import (
	"context"
	"testing"
	"time"

	"github.com/danmuck/densecode/internal/bitstream"
	"github.com/danmuck/densecode/internal/protocol"
	"github.com/danmuck/densecode/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allSymbols = []protocol.Symbol{
	protocol.SymbolIdentity,
	protocol.SymbolFlipA,
	protocol.SymbolFlipB,
	protocol.SymbolFlipBoth,
}

func TestIdealReturnsCanonicalReadoutPerTrial(t *testing.T) {
	testlog.Start(t)
	out, err := NewIdeal().Transmit(context.Background(), Request{Symbols: allSymbols, Trials: 3})
	require.NoError(t, err)
	require.Len(t, out, 3)
	for _, ro := range out {
		assert.Equal(t, "00100111", ro.String())
	}
}

func TestIdealRejectsOversizedPacket(t *testing.T) {
	testlog.Start(t)
	symbols := make([]protocol.Symbol, DefaultMaxSymbols+1)
	_, err := NewIdeal().Transmit(context.Background(), Request{Symbols: symbols, Trials: 1})
	require.ErrorIs(t, err, protocol.ErrChannelCapacityExceeded)
}

func TestRequestValidate(t *testing.T) {
	testlog.Start(t)
	require.ErrorIs(t, Request{Trials: 0}.Validate(4), protocol.ErrInvalidParameter)
	require.ErrorIs(t, Request{Trials: 1, State: -1}.Validate(4), protocol.ErrInvalidParameter)
	require.ErrorIs(t, Request{Trials: protocol.MaxTrials + 1}.Validate(4), protocol.ErrInvalidParameter)
	require.ErrorIs(t, Request{Trials: 1, Symbols: []protocol.Symbol{7}}.Validate(4), protocol.ErrInvalidPacket)
	require.NoError(t, Request{Trials: 1, Symbols: allSymbols}.Validate(4))
}

func TestNoisyIsReproducibleForSeed(t *testing.T) {
	testlog.Start(t)
	model := DefaultNoiseModel()
	model.BaseError = 0.2
	a, err := NewNoisy(model, 7)
	require.NoError(t, err)
	b, err := NewNoisy(model, 7)
	require.NoError(t, err)

	req := Request{Symbols: allSymbols, Trials: 20, State: 10}
	ra, err := a.Transmit(context.Background(), req)
	require.NoError(t, err)
	rb, err := b.Transmit(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, ra, 20)
	for i := range ra {
		assert.True(t, ra[i].Equal(rb[i]), "trial %d differs", i)
		assert.Equal(t, 2*len(allSymbols), ra[i].Len())
	}
}

func TestNoisyZeroModelIsLossless(t *testing.T) {
	testlog.Start(t)
	c, err := NewNoisy(NoiseModel{MaxSymbols: DefaultMaxSymbols}, 1)
	require.NoError(t, err)
	out, err := c.Transmit(context.Background(), Request{Symbols: allSymbols, Trials: 5, State: 1000})
	require.NoError(t, err)
	want := protocol.ReadoutBits(allSymbols)
	for _, ro := range out {
		assert.True(t, ro.Equal(want))
	}
}

func TestNoiseGrowsWithStateAndGates(t *testing.T) {
	testlog.Start(t)
	m := DefaultNoiseModel()
	assert.Less(t, m.FlipProbability(protocol.SymbolIdentity, 0), m.FlipProbability(protocol.SymbolIdentity, 100))
	assert.Less(t, m.FlipProbability(protocol.SymbolFlipA, 0), m.FlipProbability(protocol.SymbolFlipBoth, 0))
	assert.Equal(t, 0.5, m.FlipProbability(protocol.SymbolFlipBoth, 1e9))
}

func TestNoisyMaxNoiseFlipsAboutHalf(t *testing.T) {
	testlog.Start(t)
	c, err := NewNoisy(NoiseModel{BaseError: 1, MaxSymbols: DefaultMaxSymbols}, 3)
	require.NoError(t, err)
	symbols := make([]protocol.Symbol, DefaultMaxSymbols)
	out, err := c.Transmit(context.Background(), Request{Symbols: symbols, Trials: 200})
	require.NoError(t, err)
	ones := 0
	for _, ro := range out {
		ones += ro.Ones()
	}
	rate := float64(ones) / float64(200*2*DefaultMaxSymbols)
	assert.InDelta(t, 0.5, rate, 0.05)
}

func TestNoisyLatencyHonoursDeadline(t *testing.T) {
	testlog.Start(t)
	model := DefaultNoiseModel()
	model.Latency = time.Second
	c, err := NewNoisy(model, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Transmit(ctx, Request{Symbols: allSymbols, Trials: 1})
	require.ErrorIs(t, err, protocol.ErrChannelTimeout)
}

func TestNoiseModelValidate(t *testing.T) {
	testlog.Start(t)
	_, err := NewNoisy(NoiseModel{BaseError: -0.1, MaxSymbols: 1}, 1)
	require.ErrorIs(t, err, protocol.ErrInvalidParameter)
	_, err = NewNoisy(NoiseModel{}, 1)
	require.ErrorIs(t, err, protocol.ErrInvalidParameter)
}

func TestContextErrorMapping(t *testing.T) {
	testlog.Start(t)
	assert.NoError(t, ContextError(nil))
	assert.ErrorIs(t, ContextError(context.DeadlineExceeded), protocol.ErrChannelTimeout)
	assert.ErrorIs(t, ContextError(context.Canceled), protocol.ErrChannelUnavailable)
}

func TestWireRequestRoundTrip(t *testing.T) {
	testlog.Start(t)
	in := Request{Symbols: allSymbols, Trials: 4, State: 12.5}
	out, err := DecodeRequest(EncodeRequest(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWireRequestTrialsAboveCeilingFailValidation(t *testing.T) {
	testlog.Start(t)
	wire := EncodeRequest(Request{Symbols: allSymbols[:1], Trials: 1<<32 - 1})
	req, err := DecodeRequest(wire)
	require.NoError(t, err)
	require.ErrorIs(t, req.Validate(DefaultMaxSymbols), protocol.ErrInvalidParameter)
}

func TestWireReadoutsTrimPadding(t *testing.T) {
	testlog.Start(t)
	in := []bitstream.Bits{bitstream.MustParse("0110"), bitstream.MustParse("1111")}
	out, err := DecodeReadouts(EncodeReadouts(in))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "0110", out[0].String())
	assert.Equal(t, "1111", out[1].String())
}

func TestWireErrorKeepsSentinel(t *testing.T) {
	testlog.Start(t)
	err := DecodeError(EncodeError(Request{Symbols: make([]protocol.Symbol, 20), Trials: 1}.Validate(14)))
	require.ErrorIs(t, err, protocol.ErrChannelCapacityExceeded)
}

func TestRegistry(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	require.NoError(t, r.Register(Metadata{ID: "ideal", Name: "Ideal", Description: "lossless"}, NewIdeal()))
	noisy, err := NewNoisy(DefaultNoiseModel(), 1)
	require.NoError(t, err)
	require.NoError(t, r.Register(Metadata{ID: "noisy.sim", Name: "Noisy", Description: "bit flips"}, noisy))

	require.ErrorIs(t, r.Register(Metadata{ID: "ideal", Name: "x", Description: "x"}, NewIdeal()), ErrChannelExists)
	require.ErrorIs(t, r.Register(Metadata{ID: "Bad..id", Name: "x", Description: "x"}, NewIdeal()), ErrInvalidMetadata)
	require.ErrorIs(t, r.Register(Metadata{ID: "x"}, nil), ErrChannelNil)

	_, err = r.Resolve("missing")
	require.ErrorIs(t, err, ErrUnknownChannel)
	got, err := r.Resolve("ideal")
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxSymbols, got.MaxSymbols())

	list := r.ListMetadata()
	require.Len(t, list, 2)
	assert.Equal(t, "ideal", list[0].ID)
	assert.Equal(t, "noisy.sim", list[1].ID)
	assert.Equal(t, DefaultMaxSymbols, list[1].MaxSymbols)
}

func TestRegistryStoresTrimmedID(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	require.NoError(t, r.Register(Metadata{ID: " ideal ", Name: "Ideal", Description: "lossless"}, NewIdeal()))

	_, err := r.Resolve("ideal")
	require.NoError(t, err)
	require.ErrorIs(t, r.Register(Metadata{ID: "ideal", Name: "x", Description: "x"}, NewIdeal()), ErrChannelExists)
	assert.Equal(t, "ideal", r.ListMetadata()[0].ID)
}
