package orchestrator

import (
	"github.com/google/uuid"
)

// SampleBits caps the reconstructed sample carried in a Summary.
const SampleBits = 256

// ParamsSummary is the printable form of Params.
type ParamsSummary struct {
	Capacity int      `json:"capacity" yaml:"capacity"`
	Trials   int      `json:"trials" yaml:"trials"`
	State    float64  `json:"state" yaml:"state"`
	Mapping  string   `json:"mapping" yaml:"mapping"`
	Codes    []string `json:"codes" yaml:"codes"`
	Workers  int      `json:"workers" yaml:"workers"`
	Timeout  string   `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Summary is the record reporting and plotting consume.
type Summary struct {
	RunID             string        `json:"run_id" yaml:"run_id"`
	Channel           string        `json:"channel" yaml:"channel"`
	Parameters        ParamsSummary `json:"parameters" yaml:"parameters"`
	Fidelity          float64       `json:"fidelity" yaml:"fidelity"`
	Method            string        `json:"method" yaml:"method"`
	ConsensusFidelity float64       `json:"consensus_fidelity" yaml:"consensus_fidelity"`
	Packets           int           `json:"packets" yaml:"packets"`
	PayloadBits       int           `json:"payload_bits" yaml:"payload_bits"`
	EncodedBits       int           `json:"encoded_bits" yaml:"encoded_bits"`
	Reconstructed     string        `json:"reconstructed" yaml:"reconstructed"`
	DurationMS        int64         `json:"duration_ms" yaml:"duration_ms"`
}

// Summarize builds the reporting record for res under a fresh run id.
// Reconstructed holds at most SampleBits of the first trial.
func (o *Orchestrator) Summarize(res Result) Summary {
	sample := ""
	if len(res.Trials) > 0 {
		first := res.Trials[0]
		sample = first.Slice(0, min(first.Len(), SampleBits)).String()
	}
	timeout := ""
	if res.Params.Timeout > 0 {
		timeout = res.Params.Timeout.String()
	}
	return Summary{
		RunID:   uuid.NewString(),
		Channel: o.name,
		Parameters: ParamsSummary{
			Capacity: res.Params.Capacity,
			Trials:   res.Params.Trials,
			State:    res.Params.State,
			Mapping:  res.Params.Mapping.String(),
			Codes:    res.Params.Codes.Strings(),
			Workers:  res.Params.Workers,
			Timeout:  timeout,
		},
		Fidelity:          res.Fidelity,
		Method:            string(res.Params.Fidelity),
		ConsensusFidelity: res.Consensus.Fidelity,
		Packets:           res.Packets,
		PayloadBits:       res.Original.Len(),
		EncodedBits:       res.Encoded.Len(),
		Reconstructed:     sample,
		DurationMS:        res.Duration.Milliseconds(),
	}
}
