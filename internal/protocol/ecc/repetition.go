package ecc

import (
	"fmt"

	"github.com/danmuck/densecode/internal/bitstream"
	"github.com/danmuck/densecode/internal/protocol"
)

func repetitionEncode(bits bitstream.Bits, n int) bitstream.Bits {
	out := bitstream.NewBuilder(bits.Len() * n)
	for i := 0; i < bits.Len(); i++ {
		bit := bits.At(i)
		for k := 0; k < n; k++ {
			out.AppendBit(bit)
		}
	}
	return out.Bits()
}

// repetitionDecode takes a majority vote over each n-bit group.
func repetitionDecode(bits bitstream.Bits, n int) (bitstream.Bits, error) {
	if bits.Len()%n != 0 {
		return bitstream.Bits{}, fmt.Errorf("%w: length %d is not a multiple of repetition factor %d", protocol.ErrInvalidEncoding, bits.Len(), n)
	}
	threshold := (n - 1) / 2
	groups := bits.Len() / n
	out := bitstream.NewBuilder(groups)
	for g := 0; g < groups; g++ {
		ones := 0
		for k := 0; k < n; k++ {
			if bits.At(g*n + k) {
				ones++
			}
		}
		out.AppendBit(ones > threshold)
	}
	return out.Bits(), nil
}
