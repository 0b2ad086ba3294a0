package orchestrator

import (
	"github.com/danmuck/densecode/internal/bitstream"
)

// Fidelity scores trials against the expected bit-string with method.
func Fidelity(expected bitstream.Bits, trials []bitstream.Bits, method FidelityMethod) float64 {
	if len(trials) == 0 {
		return 0
	}
	if method == FidelityExactMatch {
		return ExactMatchRate(expected, trials)
	}
	return PerBitMatchRate(expected, trials)
}

func PerBitMatchRate(expected bitstream.Bits, trials []bitstream.Bits) float64 {
	if len(trials) == 0 {
		return 0
	}
	if expected.Len() == 0 {
		return 1
	}
	total := 0.0
	for _, t := range trials {
		total += float64(expected.Matches(t)) / float64(expected.Len())
	}
	return total / float64(len(trials))
}

func ExactMatchRate(expected bitstream.Bits, trials []bitstream.Bits) float64 {
	if len(trials) == 0 {
		return 0
	}
	hits := 0
	for _, t := range trials {
		if expected.Equal(t) {
			hits++
		}
	}
	return float64(hits) / float64(len(trials))
}

// Candidate is the most frequent reading of one packet across trials.
type Candidate struct {
	Index     int
	Bits      bitstream.Bits
	Frequency float64
}

// Consensus collapses every packet to its most frequent reading.
type Consensus struct {
	Candidates []Candidate
	// Fidelity averages each candidate's frequency weighted by its length
	// relative to the packet capacity.
	Fidelity float64
	Bits     bitstream.Bits
	Decoded  bitstream.Bits
}

// buildConsensus expects received[packet][trial]. On ties the reading that
// reached the winning count first is kept.
func buildConsensus(received [][]bitstream.Bits, capacity int) Consensus {
	out := Consensus{Candidates: make([]Candidate, len(received))}
	parts := make([]bitstream.Bits, len(received))
	weighted := 0.0
	for i, trials := range received {
		counts := make(map[string]int, len(trials))
		best, bestCount := 0, 0
		for t, r := range trials {
			key := r.String()
			counts[key]++
			if counts[key] > bestCount {
				best, bestCount = t, counts[key]
			}
		}
		freq := float64(bestCount) / float64(len(trials))
		out.Candidates[i] = Candidate{Index: i, Bits: trials[best], Frequency: freq}
		parts[i] = trials[best]
		weighted += freq * float64(trials[best].Len()) / float64(capacity)
	}
	if len(received) > 0 {
		out.Fidelity = weighted / float64(len(received))
	}
	out.Bits = bitstream.Concat(parts...)
	return out
}
