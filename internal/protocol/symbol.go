package protocol

import (
	"fmt"
	"strings"

	"github.com/danmuck/densecode/internal/bitstream"
)

// Symbol is one of the four operations applied to the sender's half of a
// Bell pair.
type Symbol uint8

const (
	SymbolIdentity Symbol = iota
	SymbolFlipA
	SymbolFlipB
	SymbolFlipBoth
)

var symbolNames = [...]string{"I", "Z", "X", "ZX"}

func (s Symbol) Valid() bool {
	return s <= SymbolFlipBoth
}

func (s Symbol) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Symbol(%d)", uint8(s))
	}
	return symbolNames[s]
}

// Readout is the two-bit Bell measurement outcome the symbol produces:
// Identity 00, FlipA 10, FlipB 01, FlipBoth 11.
func (s Symbol) Readout() uint8 {
	switch s {
	case SymbolFlipA:
		return 0b10
	case SymbolFlipB:
		return 0b01
	case SymbolFlipBoth:
		return 0b11
	default:
		return 0b00
	}
}

// Gates is the number of non-identity operations in the symbol.
func (s Symbol) Gates() int {
	switch s {
	case SymbolFlipA, SymbolFlipB:
		return 1
	case SymbolFlipBoth:
		return 2
	default:
		return 0
	}
}

func symbolFromReadout(v uint8) Symbol {
	switch v & 0b11 {
	case 0b10:
		return SymbolFlipA
	case 0b01:
		return SymbolFlipB
	case 0b11:
		return SymbolFlipBoth
	default:
		return SymbolIdentity
	}
}

// ParseSymbol accepts the symbol names I, Z, X and ZX.
func ParseSymbol(raw string) (Symbol, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	for i, n := range symbolNames {
		if n == name {
			return Symbol(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown symbol %q", ErrInvalidMapping, raw)
}

// Mapping assigns a symbol to each 2-bit group, indexed by the group's value
// (00, 01, 10, 11).
type Mapping [4]Symbol

// DefaultMapping sends each group as the symbol whose readout equals it.
func DefaultMapping() Mapping {
	return Mapping{SymbolIdentity, SymbolFlipB, SymbolFlipA, SymbolFlipBoth}
}

// ParseMapping reads four comma separated symbol names for groups 00,01,10,11.
func ParseMapping(raw string) (Mapping, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return Mapping{}, fmt.Errorf("%w: expected 4 symbols, got %d", ErrInvalidMapping, len(parts))
	}
	var m Mapping
	for i, part := range parts {
		s, err := ParseSymbol(part)
		if err != nil {
			return Mapping{}, err
		}
		m[i] = s
	}
	if err := m.Validate(); err != nil {
		return Mapping{}, err
	}
	return m, nil
}

// Validate checks the mapping is a bijection onto the four symbols.
func (m Mapping) Validate() error {
	var seen [4]bool
	for group, s := range m {
		if !s.Valid() {
			return fmt.Errorf("%w: group %02b maps to %s", ErrInvalidMapping, group, s)
		}
		if seen[s] {
			return fmt.Errorf("%w: symbol %s assigned twice", ErrInvalidMapping, s)
		}
		seen[s] = true
	}
	return nil
}

func (m Mapping) String() string {
	names := make([]string, len(m))
	for i, s := range m {
		names[i] = s.String()
	}
	return strings.Join(names, ",")
}

// Mapper converts packets to symbols and back under one mapping.
type Mapper struct {
	enc Mapping
	dec [4]uint8
}

func NewMapper(m Mapping) (*Mapper, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	mp := &Mapper{enc: m}
	for group, s := range m {
		mp.dec[s] = uint8(group)
	}
	return mp, nil
}

func (m *Mapper) Mapping() Mapping {
	return m.enc
}

// Encode maps each adjacent 2-bit group of bits to a symbol.
func (m *Mapper) Encode(bits bitstream.Bits) ([]Symbol, error) {
	if bits.Len()%2 != 0 {
		return nil, fmt.Errorf("%w: length %d is not a whole number of 2-bit groups", ErrInvalidPacket, bits.Len())
	}
	out := make([]Symbol, bits.Len()/2)
	for i := range out {
		out[i] = m.enc[bits.Uint(2*i, 2)]
	}
	return out, nil
}

// Decode inverts Encode. A sequence encoded under a different mapping decodes
// without error into a deterministically permuted bit-string.
func (m *Mapper) Decode(symbols []Symbol) (bitstream.Bits, error) {
	out := bitstream.NewBuilder(2 * len(symbols))
	for i, s := range symbols {
		if !s.Valid() {
			return bitstream.Bits{}, fmt.Errorf("%w: symbol %d at position %d", ErrInvalidPacket, uint8(s), i)
		}
		out.AppendUint(uint64(m.dec[s]), 2)
	}
	return out.Bits(), nil
}

// ReadoutBits returns the measurement outcomes an error-free channel yields.
func ReadoutBits(symbols []Symbol) bitstream.Bits {
	out := bitstream.NewBuilder(2 * len(symbols))
	for _, s := range symbols {
		out.AppendUint(uint64(s.Readout()), 2)
	}
	return out.Bits()
}

// SymbolsFromReadout recovers the symbols implied by measurement outcomes.
func SymbolsFromReadout(readout bitstream.Bits) ([]Symbol, error) {
	if readout.Len()%2 != 0 {
		return nil, fmt.Errorf("%w: readout length %d is odd", ErrInvalidPacket, readout.Len())
	}
	out := make([]Symbol, readout.Len()/2)
	for i := range out {
		out[i] = symbolFromReadout(uint8(readout.Uint(2*i, 2)))
	}
	return out, nil
}
