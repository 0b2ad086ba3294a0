package ecc

import (
	"fmt"
	"strings"

	"github.com/danmuck/densecode/internal/bitstream"
)

// Chain applies codes in order on Encode and in reverse order on Decode.
type Chain []Code

// ParseChain parses each entry with ParseCode. Identity entries are dropped.
func ParseChain(raw []string) (Chain, error) {
	chain := make(Chain, 0, len(raw))
	for i, entry := range raw {
		c, err := ParseCode(entry)
		if err != nil {
			return nil, fmt.Errorf("code[%d]: %w", i, err)
		}
		if c.Kind == KindIdentity {
			continue
		}
		chain = append(chain, c)
	}
	return chain, nil
}

func (ch Chain) Validate() error {
	for i, c := range ch {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("code[%d]: %w", i, err)
		}
	}
	return nil
}

func (ch Chain) Encode(bits bitstream.Bits) (bitstream.Bits, error) {
	out := bits
	for i, c := range ch {
		var err error
		if out, err = c.Encode(out); err != nil {
			return bitstream.Bits{}, fmt.Errorf("code[%d] %s encode: %w", i, c, err)
		}
	}
	return out, nil
}

func (ch Chain) Decode(bits bitstream.Bits) (bitstream.Bits, error) {
	out := bits
	for i := len(ch) - 1; i >= 0; i-- {
		var err error
		if out, err = ch[i].Decode(out); err != nil {
			return bitstream.Bits{}, fmt.Errorf("code[%d] %s decode: %w", i, ch[i], err)
		}
	}
	return out, nil
}

func (ch Chain) EncodedLen(n int) int {
	for _, c := range ch {
		n = c.EncodedLen(n)
	}
	return n
}

func (ch Chain) Strings() []string {
	out := make([]string, len(ch))
	for i, c := range ch {
		out[i] = c.String()
	}
	return out
}

func (ch Chain) String() string {
	if len(ch) == 0 {
		return "identity"
	}
	return strings.Join(ch.Strings(), "+")
}
