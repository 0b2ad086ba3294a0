// Package orchestrator drives payloads across a channel adapter: encode,
// packetize, symbolize, send, demap, reassemble, decode and score.
//
// An Orchestrator keeps no state between transmissions. Packets are sent as
// independent tasks on a bounded worker pool and merged by index, so the
// only cross-task invariant is positional.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/densecode/internal/bitstream"
	"github.com/danmuck/densecode/internal/channel"
	"github.com/danmuck/densecode/internal/observability"
	"github.com/danmuck/densecode/internal/protocol"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Orchestrator struct {
	channel    channel.Adapter
	name       string
	packetizer protocol.Packetizer
	logger     zerolog.Logger
}

type Option func(*Orchestrator)

// WithName labels metrics and summaries with the channel's name.
func WithName(name string) Option {
	return func(o *Orchestrator) { o.name = name }
}

func WithPacketizer(p protocol.Packetizer) Option {
	return func(o *Orchestrator) { o.packetizer = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New binds an orchestrator to ch. Packet capacity is bounded by the
// channel's symbol ceiling unless WithPacketizer overrides it.
func New(ch channel.Adapter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		channel:    ch,
		name:       "channel",
		packetizer: protocol.NewPacketizer(2 * ch.MaxSymbols()),
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Name() string {
	return o.name
}

// Result is the outcome of one transmission. Trials holds one reconstructed
// bit-string per trial, in trial order.
type Result struct {
	Params   Params
	Original bitstream.Bits
	Encoded  bitstream.Bits
	Packets  int
	Trials   []bitstream.Bits
	Fidelity float64
	// Consensus is built from the received packets before error correction.
	Consensus Consensus
	Duration  time.Duration
}

// Transmit sends bits through the channel. Every parameter is checked and
// every packet symbolized before the first channel call; a failure on any
// packet aborts the whole result with a *protocol.PacketError.
func (o *Orchestrator) Transmit(ctx context.Context, bits bitstream.Bits, params Params) (Result, error) {
	start := time.Now()
	res, err := o.transmit(ctx, bits, params)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	res.Duration = time.Since(start)
	observability.RecordTransmission(o.name, outcome, res.Duration)
	if err != nil {
		o.logger.Warn().
			Str("channel", o.name).
			Int("bits", bits.Len()).
			Int("capacity", params.Capacity).
			Err(err).
			Msg("transmission failed")
		return Result{}, err
	}
	observability.ObserveFidelity(o.name, string(params.Fidelity), res.Fidelity)
	o.logger.Info().
		Str("channel", o.name).
		Int("bits", bits.Len()).
		Int("encoded_bits", res.Encoded.Len()).
		Int("packets", res.Packets).
		Int("trials", params.Trials).
		Float64("state", params.State).
		Str("codes", params.Codes.String()).
		Float64("fidelity", res.Fidelity).
		Dur("duration", res.Duration).
		Msg("transmission complete")
	return res, nil
}

func (o *Orchestrator) transmit(ctx context.Context, bits bitstream.Bits, params Params) (Result, error) {
	// INIT
	if params.Fidelity == "" {
		params.Fidelity = FidelityPerBit
	}
	if err := params.Validate(); err != nil {
		return Result{}, err
	}
	if err := o.packetizer.ValidateCapacity(params.Capacity); err != nil {
		return Result{}, err
	}
	if bits.Len() == 0 {
		return Result{}, fmt.Errorf("%w: empty payload", protocol.ErrInvalidEncoding)
	}
	mapper, err := protocol.NewMapper(params.Mapping)
	if err != nil {
		return Result{}, err
	}

	// ENCODE
	encoded, err := params.Codes.Encode(bits)
	if err != nil {
		return Result{}, err
	}

	// PACKETIZE
	packets, err := o.packetizer.Split(encoded, params.Capacity)
	if err != nil {
		return Result{}, err
	}

	// SYMBOLIZE
	symbols := make([][]protocol.Symbol, len(packets))
	for i, pkt := range packets {
		if symbols[i], err = mapper.Encode(pkt.Bits); err != nil {
			return Result{}, &protocol.PacketError{Index: pkt.Index, Err: err}
		}
	}

	// SEND, RECEIVE, DEMAP
	received, err := o.send(ctx, symbols, mapper, params)
	if err != nil {
		return Result{}, err
	}

	// REASSEMBLE, DECODE
	trials := make([]bitstream.Bits, params.Trials)
	for t := range trials {
		parts := make([]protocol.Packet, len(received))
		for i := range received {
			parts[i] = protocol.Packet{Index: i, Bits: received[i][t]}
		}
		if trials[t], err = params.Codes.Decode(protocol.Join(parts)); err != nil {
			return Result{}, fmt.Errorf("trial %d: %w", t, err)
		}
	}

	consensus := buildConsensus(received, params.Capacity)
	if decoded, err := params.Codes.Decode(consensus.Bits); err == nil {
		consensus.Decoded = decoded
	}

	// SCORE
	return Result{
		Params:    params,
		Original:  bits,
		Encoded:   encoded,
		Packets:   len(packets),
		Trials:    trials,
		Fidelity:  Fidelity(bits, trials, params.Fidelity),
		Consensus: consensus,
	}, nil
}

// send runs one channel call per packet and returns received[packet][trial].
func (o *Orchestrator) send(ctx context.Context, symbols [][]protocol.Symbol, mapper *protocol.Mapper, params Params) ([][]bitstream.Bits, error) {
	if params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	received := make([][]bitstream.Bits, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(params.Workers)
	for i := range symbols {
		i := i
		g.Go(func() error {
			trials, err := o.sendPacket(gctx, symbols[i], mapper, params)
			if err != nil {
				return &protocol.PacketError{Index: i, Err: err}
			}
			received[i] = trials
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return received, nil
}

func (o *Orchestrator) sendPacket(ctx context.Context, symbols []protocol.Symbol, mapper *protocol.Mapper, params Params) ([]bitstream.Bits, error) {
	if err := ctx.Err(); err != nil {
		return nil, channel.ContextError(err)
	}
	readouts, err := o.channel.Transmit(ctx, channel.Request{
		Symbols: symbols,
		Trials:  params.Trials,
		State:   params.State,
	})
	observability.RecordPacketCall(o.name, err)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, channel.ContextError(err)
		}
		return nil, err
	}
	if len(readouts) != params.Trials {
		return nil, fmt.Errorf("%w: channel returned %d readouts for %d trials", protocol.ErrInvalidEncoding, len(readouts), params.Trials)
	}

	out := make([]bitstream.Bits, len(readouts))
	for t, ro := range readouts {
		if ro.Len() != 2*len(symbols) {
			return nil, fmt.Errorf("%w: trial %d readout has %d bits, want %d", protocol.ErrInvalidEncoding, t, ro.Len(), 2*len(symbols))
		}
		got, err := protocol.SymbolsFromReadout(ro)
		if err != nil {
			return nil, err
		}
		if out[t], err = mapper.Decode(got); err != nil {
			return nil, err
		}
	}
	return out, nil
}
