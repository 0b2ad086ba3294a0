package protocol

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/danmuck/densecode/internal/bitstream"
)

func randomBits(r *rand.Rand, n int) bitstream.Bits {
	b := bitstream.NewBuilder(n)
	for i := 0; i < n; i++ {
		b.AppendBit(r.Intn(2) == 1)
	}
	return b.Bits()
}

func TestSplitJoinRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(2024))
	p := DefaultPacketizer()
	for _, n := range []int{0, 2, 4, 27, 28, 29, 100, 562} {
		bits := randomBits(r, n)
		for capacity := 2; capacity <= DefaultMaxCapacity; capacity += 2 {
			packets, err := p.Split(bits, capacity)
			if err != nil {
				t.Fatalf("split n=%d capacity=%d: %v", n, capacity, err)
			}
			for i, pkt := range packets {
				if pkt.Index != i {
					t.Fatalf("packet %d has index %d", i, pkt.Index)
				}
				if pkt.Bits.Len() > capacity {
					t.Fatalf("packet %d exceeds capacity: %d", i, pkt.Bits.Len())
				}
			}
			if got := Join(packets); !got.Equal(bits) {
				t.Fatalf("round-trip mismatch n=%d capacity=%d", n, capacity)
			}
		}
	}
}

func TestSplitLastPacketShorter(t *testing.T) {
	packets, err := DefaultPacketizer().Split(bitstream.MustParse("1100101"), 4)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(packets) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(packets))
	}
	if packets[0].Bits.String() != "1100" || packets[1].Bits.String() != "101" {
		t.Fatalf("unexpected packets: %s %s", packets[0].Bits, packets[1].Bits)
	}
}

func TestSplitCapacityViolations(t *testing.T) {
	p := DefaultPacketizer()
	bits := bitstream.MustParse("1100")
	for _, capacity := range []int{30, 0, -2, 3} {
		if _, err := p.Split(bits, capacity); !errors.Is(err, ErrInvalidCapacity) {
			t.Fatalf("capacity %d: expected ErrInvalidCapacity, got %v", capacity, err)
		}
	}
}

func TestMapperRoundTripAllBijections(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	bits := randomBits(r, 64)
	perms := permutations([]Symbol{SymbolIdentity, SymbolFlipA, SymbolFlipB, SymbolFlipBoth})
	if len(perms) != 24 {
		t.Fatalf("expected 24 permutations, got %d", len(perms))
	}
	for _, perm := range perms {
		m := Mapping{perm[0], perm[1], perm[2], perm[3]}
		mp, err := NewMapper(m)
		if err != nil {
			t.Fatalf("mapper %s: %v", m, err)
		}
		symbols, err := mp.Encode(bits)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := mp.Decode(symbols)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !got.Equal(bits) {
			t.Fatalf("round-trip mismatch under %s", m)
		}
	}
}

func TestMapperDefaultReadoutIsIdentity(t *testing.T) {
	mp, err := NewMapper(DefaultMapping())
	if err != nil {
		t.Fatalf("mapper: %v", err)
	}
	bits := bitstream.MustParse("00011011")
	symbols, err := mp.Encode(bits)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []Symbol{SymbolIdentity, SymbolFlipB, SymbolFlipA, SymbolFlipBoth}
	for i := range want {
		if symbols[i] != want[i] {
			t.Fatalf("symbol %d: expected %s, got %s", i, want[i], symbols[i])
		}
	}
	if got := ReadoutBits(symbols); !got.Equal(bits) {
		t.Fatalf("default readout should reproduce the bits, got %s", got)
	}
	back, err := SymbolsFromReadout(ReadoutBits(symbols))
	if err != nil {
		t.Fatalf("from readout: %v", err)
	}
	for i := range want {
		if back[i] != want[i] {
			t.Fatalf("readout symbol %d: expected %s, got %s", i, want[i], back[i])
		}
	}
}

func TestMapperOddPacket(t *testing.T) {
	mp, _ := NewMapper(DefaultMapping())
	_, err := mp.Encode(bitstream.MustParse("101"))
	if !errors.Is(err, ErrInvalidPacket) {
		t.Fatalf("expected ErrInvalidPacket, got %v", err)
	}
}

func TestMappingNotBijective(t *testing.T) {
	_, err := NewMapper(Mapping{SymbolIdentity, SymbolIdentity, SymbolFlipA, SymbolFlipBoth})
	if !errors.Is(err, ErrInvalidMapping) {
		t.Fatalf("expected ErrInvalidMapping, got %v", err)
	}
	_, err = NewMapper(Mapping{SymbolIdentity, SymbolFlipB, SymbolFlipA, Symbol(9)})
	if !errors.Is(err, ErrInvalidMapping) {
		t.Fatalf("expected ErrInvalidMapping for out-of-range symbol, got %v", err)
	}
}

func TestMismatchedMappingIsDeterministic(t *testing.T) {
	sender, _ := NewMapper(DefaultMapping())
	receiver, err := NewMapper(Mapping{SymbolFlipB, SymbolIdentity, SymbolFlipBoth, SymbolFlipA})
	if err != nil {
		t.Fatalf("receiver: %v", err)
	}
	bits := bitstream.MustParse("0001101100011011")
	symbols, _ := sender.Encode(bits)

	first, err := receiver.Decode(symbols)
	if err != nil {
		t.Fatalf("decode should not fail under a foreign mapping: %v", err)
	}
	second, _ := receiver.Decode(symbols)
	if !first.Equal(second) {
		t.Fatalf("decoding is not deterministic")
	}
	if first.Equal(bits) {
		t.Fatalf("mismatched mapping should not reproduce the original")
	}
	// receiver swaps 00<->01 and 10<->11
	if first.String() != "0100111001001110" {
		t.Fatalf("unexpected corruption pattern: %s", first)
	}
}

func TestParseMapping(t *testing.T) {
	m, err := ParseMapping("I, X, Z, zx")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m != DefaultMapping() {
		t.Fatalf("expected default mapping, got %s", m)
	}
	if _, err := ParseMapping("I,X,Z"); !errors.Is(err, ErrInvalidMapping) {
		t.Fatalf("expected ErrInvalidMapping, got %v", err)
	}
	if _, err := ParseMapping("I,X,Z,Y"); !errors.Is(err, ErrInvalidMapping) {
		t.Fatalf("expected ErrInvalidMapping, got %v", err)
	}
}

func permutations(in []Symbol) [][]Symbol {
	if len(in) <= 1 {
		return [][]Symbol{append([]Symbol(nil), in...)}
	}
	var out [][]Symbol
	for i := range in {
		rest := make([]Symbol, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]Symbol{in[i]}, p...))
		}
	}
	return out
}
