package orchestrator

import (
	"context"
	"fmt"

	"github.com/danmuck/densecode/internal/bitcodec"
	"github.com/hashicorp/go-multierror"
)

// PayloadResult carries one reconstructed payload per trial. A trial whose
// bits no longer decode leaves a zero Payload and contributes to DecodeErr.
type PayloadResult struct {
	Result
	Payloads  []bitcodec.Payload
	DecodeErr error
}

// TransmitPayload encodes p with codec, transmits it and decodes every trial
// back into a payload of the same shape.
func (o *Orchestrator) TransmitPayload(ctx context.Context, p bitcodec.Payload, codec bitcodec.Codec, params Params) (PayloadResult, error) {
	bits, err := codec.Encode(p)
	if err != nil {
		return PayloadResult{}, fmt.Errorf("payload encode: %w", err)
	}
	res, err := o.Transmit(ctx, bits, params)
	if err != nil {
		return PayloadResult{}, err
	}

	out := PayloadResult{Result: res, Payloads: make([]bitcodec.Payload, len(res.Trials))}
	var errs *multierror.Error
	for t, trial := range res.Trials {
		decoded, err := codec.Decode(trial, p.Width, p.Height, p.Channels)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("trial %d: %w", t, err))
			continue
		}
		out.Payloads[t] = decoded
	}
	out.DecodeErr = errs.ErrorOrNil()
	if out.DecodeErr != nil {
		o.logger.Warn().
			Str("channel", o.name).
			Int("failed_trials", len(errs.Errors)).
			Int("trials", len(res.Trials)).
			Msg("payload decode failed for some trials")
	}
	return out, nil
}
