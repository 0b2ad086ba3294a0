package ecc

import (
	"fmt"

	"github.com/danmuck/densecode/internal/bitstream"
	"github.com/danmuck/densecode/internal/protocol"
)

func flag(n int, set bool) bitstream.Bits {
	out := bitstream.NewBuilder(n)
	for i := 0; i < n; i++ {
		out.AppendBit(set)
	}
	return out.Bits()
}

// bitFlipEncode keeps the number of transmitted ones low: streams dominated by
// ones are sent inverted behind an all-ones flag.
func bitFlipEncode(bits bitstream.Bits, n int, threshold float64) bitstream.Bits {
	ratio := 0.0
	if bits.Len() > 0 {
		ratio = float64(bits.Ones()) / float64(bits.Len())
	}
	if ratio > threshold {
		return bitstream.Concat(flag(n, true), bits.Invert())
	}
	return bitstream.Concat(flag(n, false), bits)
}

// bitFlipDecode treats any flag other than all zeros as "inverted".
func bitFlipDecode(bits bitstream.Bits, n int) (bitstream.Bits, error) {
	if bits.Len() < n {
		return bitstream.Bits{}, fmt.Errorf("%w: length %d shorter than bit-flip flag %d", protocol.ErrInvalidEncoding, bits.Len(), n)
	}
	body := bits.Slice(n, bits.Len())
	if bits.Slice(0, n).Ones() == 0 {
		return body, nil
	}
	return body.Invert(), nil
}
