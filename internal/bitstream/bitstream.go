package bitstream

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

var ErrInvalidDigit = errors.New("bitstream: invalid digit")

// Bits is an immutable sequence of binary digits packed MSB first.
// Unused trailing bits of the last byte are always zero.
type Bits struct {
	data []byte
	n    int
}

// Parse converts a string of '0' and '1' characters to Bits.
func Parse(s string) (Bits, error) {
	b := NewBuilder(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			b.AppendBit(false)
		case '1':
			b.AppendBit(true)
		default:
			return Bits{}, fmt.Errorf("%w: %q at position %d", ErrInvalidDigit, s[i], i)
		}
	}
	return b.Bits(), nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) Bits {
	b, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return b
}

// FromBytes converts a byte slice to Bits, 8 bits per byte, MSB first.
func FromBytes(data []byte) Bits {
	if len(data) == 0 {
		return Bits{}
	}
	out := make([]byte, len(data))
	copy(out, data)
	return Bits{data: out, n: len(data) * 8}
}

// Bytes packs the bits into bytes, padding the last byte with zeros.
func (b Bits) Bytes() []byte {
	if b.n == 0 {
		return nil
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

func (b Bits) Len() int {
	return b.n
}

// At reports whether bit i is set.
func (b Bits) At(i int) bool {
	if i < 0 || i >= b.n {
		panic(fmt.Sprintf("bitstream: index %d out of range [0,%d)", i, b.n))
	}
	return b.data[i/8]&(1<<(7-uint(i%8))) != 0
}

// Slice returns a copy of bits [i, j).
func (b Bits) Slice(i, j int) Bits {
	if i < 0 || j > b.n || i > j {
		panic(fmt.Sprintf("bitstream: slice [%d:%d] out of range [0,%d]", i, j, b.n))
	}
	out := NewBuilder(j - i)
	if i%8 == 0 {
		out.data = append(out.data, b.data[i/8:(j+7)/8]...)
		out.n = j - i
		out.clearTail()
		return out.Bits()
	}
	for k := i; k < j; k++ {
		out.AppendBit(b.At(k))
	}
	return out.Bits()
}

// Invert returns the bitwise complement.
func (b Bits) Invert() Bits {
	out := Builder{data: make([]byte, len(b.data)), n: b.n}
	for i, v := range b.data {
		out.data[i] = ^v
	}
	out.clearTail()
	return out.Bits()
}

// Ones counts set bits.
func (b Bits) Ones() int {
	total := 0
	for _, v := range b.data {
		total += bits.OnesCount8(v)
	}
	return total
}

func (b Bits) Equal(o Bits) bool {
	if b.n != o.n {
		return false
	}
	for i := range b.data {
		if b.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// Matches counts positions where b and o agree over the shorter length.
func (b Bits) Matches(o Bits) int {
	n := min(b.n, o.n)
	full := n / 8
	same := 0
	for i := 0; i < full; i++ {
		same += 8 - bits.OnesCount8(b.data[i]^o.data[i])
	}
	for i := full * 8; i < n; i++ {
		if b.At(i) == o.At(i) {
			same++
		}
	}
	return same
}

// Uint reads width bits starting at i as an unsigned integer, MSB first.
func (b Bits) Uint(i, width int) uint64 {
	var v uint64
	for k := 0; k < width; k++ {
		v <<= 1
		if b.At(i + k) {
			v |= 1
		}
	}
	return v
}

func (b Bits) String() string {
	var sb strings.Builder
	sb.Grow(b.n)
	for i := 0; i < b.n; i++ {
		if b.At(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Concat joins parts in order.
func Concat(parts ...Bits) Bits {
	total := 0
	for _, p := range parts {
		total += p.n
	}
	out := NewBuilder(total)
	for _, p := range parts {
		out.AppendBits(p)
	}
	return out.Bits()
}

// Builder accumulates bits. The zero value is ready to use.
type Builder struct {
	data []byte
	n    int
}

func NewBuilder(capacity int) *Builder {
	return &Builder{data: make([]byte, 0, (capacity+7)/8)}
}

func (b *Builder) Len() int {
	return b.n
}

func (b *Builder) AppendBit(v bool) {
	if b.n%8 == 0 {
		b.data = append(b.data, 0)
	}
	if v {
		b.data[b.n/8] |= 1 << (7 - uint(b.n%8))
	}
	b.n++
}

func (b *Builder) AppendBits(o Bits) {
	if b.n%8 == 0 {
		b.data = append(b.data, o.data...)
		b.n += o.n
		return
	}
	for i := 0; i < o.n; i++ {
		b.AppendBit(o.At(i))
	}
}

// AppendUint appends the low width bits of v, MSB first.
func (b *Builder) AppendUint(v uint64, width int) {
	for k := width - 1; k >= 0; k-- {
		b.AppendBit(v&(1<<uint(k)) != 0)
	}
}

// Bits returns a snapshot; later appends do not affect it.
func (b *Builder) Bits() Bits {
	if b.n == 0 {
		return Bits{}
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return Bits{data: out, n: b.n}
}

func (b *Builder) clearTail() {
	if rem := b.n % 8; rem != 0 {
		b.data[len(b.data)-1] &= byte(0xFF << (8 - uint(rem)))
	}
}
