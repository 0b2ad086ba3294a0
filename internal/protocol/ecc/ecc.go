package ecc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/densecode/internal/bitstream"
	"github.com/danmuck/densecode/internal/protocol"
)

// Kind tags an error correction variant.
type Kind uint8

const (
	KindIdentity Kind = iota
	KindRepetition
	KindBitFlip
)

func (k Kind) String() string {
	switch k {
	case KindIdentity:
		return "identity"
	case KindRepetition:
		return "repetition"
	case KindBitFlip:
		return "bitflip"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// DefaultFlipThreshold is the ones fraction above which bit-flip pre-coding
// inverts the stream.
const DefaultFlipThreshold = 0.7

// Code is one error correction step. N is the repetition factor or the
// bit-flip flag width; Threshold only applies to KindBitFlip.
type Code struct {
	Kind      Kind
	N         int
	Threshold float64
}

func Identity() Code {
	return Code{Kind: KindIdentity}
}

// Repetition repeats every bit n times; n must be odd so majority votes
// cannot tie.
func Repetition(n int) (Code, error) {
	c := Code{Kind: KindRepetition, N: n}
	return c, c.Validate()
}

// BitFlip prepends an n-bit flag and inverts streams whose ones fraction
// exceeds threshold. n must be even to keep the flag symbol aligned.
func BitFlip(n int, threshold float64) (Code, error) {
	c := Code{Kind: KindBitFlip, N: n, Threshold: threshold}
	return c, c.Validate()
}

func (c Code) Validate() error {
	switch c.Kind {
	case KindIdentity:
		return nil
	case KindRepetition:
		if c.N < 1 || c.N%2 == 0 {
			return fmt.Errorf("%w: repetition factor %d must be odd and positive", protocol.ErrInvalidParameter, c.N)
		}
		return nil
	case KindBitFlip:
		if c.N < 2 || c.N%2 != 0 {
			return fmt.Errorf("%w: bit-flip flag width %d must be even and positive", protocol.ErrInvalidParameter, c.N)
		}
		if c.Threshold <= 0 || c.Threshold >= 1 {
			return fmt.Errorf("%w: bit-flip threshold %v must be in (0,1)", protocol.ErrInvalidParameter, c.Threshold)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown code kind %d", protocol.ErrInvalidParameter, uint8(c.Kind))
	}
}

func (c Code) Encode(bits bitstream.Bits) (bitstream.Bits, error) {
	if err := c.Validate(); err != nil {
		return bitstream.Bits{}, err
	}
	switch c.Kind {
	case KindRepetition:
		return repetitionEncode(bits, c.N), nil
	case KindBitFlip:
		return bitFlipEncode(bits, c.N, c.Threshold), nil
	default:
		return bits, nil
	}
}

func (c Code) Decode(bits bitstream.Bits) (bitstream.Bits, error) {
	if err := c.Validate(); err != nil {
		return bitstream.Bits{}, err
	}
	switch c.Kind {
	case KindRepetition:
		return repetitionDecode(bits, c.N)
	case KindBitFlip:
		return bitFlipDecode(bits, c.N)
	default:
		return bits, nil
	}
}

// EncodedLen is the length Encode produces for an n-bit input.
func (c Code) EncodedLen(n int) int {
	switch c.Kind {
	case KindRepetition:
		return n * c.N
	case KindBitFlip:
		return n + c.N
	default:
		return n
	}
}

func (c Code) String() string {
	switch c.Kind {
	case KindIdentity:
		return "identity"
	case KindBitFlip:
		if c.Threshold != DefaultFlipThreshold {
			return fmt.Sprintf("bitflip:%d:%s", c.N, strconv.FormatFloat(c.Threshold, 'g', -1, 64))
		}
		return fmt.Sprintf("bitflip:%d", c.N)
	default:
		return fmt.Sprintf("%s:%d", c.Kind, c.N)
	}
}

// ParseCode reads "identity", "repetition:<n>", "bitflip:<n>" or
// "bitflip:<n>:<threshold>".
func ParseCode(raw string) (Code, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(raw)), ":")
	switch parts[0] {
	case "identity", "none", "":
		if len(parts) != 1 {
			return Code{}, fmt.Errorf("%w: identity takes no argument: %q", protocol.ErrInvalidParameter, raw)
		}
		return Identity(), nil
	case "repetition", "rep":
		if len(parts) != 2 {
			return Code{}, fmt.Errorf("%w: expected repetition:<n>, got %q", protocol.ErrInvalidParameter, raw)
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return Code{}, fmt.Errorf("%w: repetition factor %q: %v", protocol.ErrInvalidParameter, parts[1], err)
		}
		return Repetition(n)
	case "bitflip", "flip":
		if len(parts) < 2 || len(parts) > 3 {
			return Code{}, fmt.Errorf("%w: expected bitflip:<n>[:threshold], got %q", protocol.ErrInvalidParameter, raw)
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return Code{}, fmt.Errorf("%w: bit-flip width %q: %v", protocol.ErrInvalidParameter, parts[1], err)
		}
		threshold := DefaultFlipThreshold
		if len(parts) == 3 {
			threshold, err = strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return Code{}, fmt.Errorf("%w: bit-flip threshold %q: %v", protocol.ErrInvalidParameter, parts[2], err)
			}
		}
		return BitFlip(n, threshold)
	default:
		return Code{}, fmt.Errorf("%w: unknown code %q", protocol.ErrInvalidParameter, raw)
	}
}
