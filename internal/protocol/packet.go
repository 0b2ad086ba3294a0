package protocol

import (
	"fmt"

	"github.com/danmuck/densecode/internal/bitstream"
)

// DefaultMaxCapacity is the largest packet, in bits, the reference channel accepts.
const DefaultMaxCapacity = 28

// MaxTrials caps how many readouts one transmission may ask a channel for.
const MaxTrials = 1 << 16

// Packet is one capacity-bounded slice of a bit-stream. Index is its position
// in the stream.
type Packet struct {
	Index int
	Bits  bitstream.Bits
}

// Packetizer splits streams into packets no larger than MaxCapacity bits.
type Packetizer struct {
	MaxCapacity int
}

func NewPacketizer(maxCapacity int) Packetizer {
	return Packetizer{MaxCapacity: maxCapacity}
}

func DefaultPacketizer() Packetizer {
	return NewPacketizer(DefaultMaxCapacity)
}

// ValidateCapacity checks capacity is positive, even and within MaxCapacity.
func (p Packetizer) ValidateCapacity(capacity int) error {
	if capacity <= 0 || capacity%2 != 0 {
		return fmt.Errorf("%w: capacity %d must be a positive even number", ErrInvalidCapacity, capacity)
	}
	if capacity > p.MaxCapacity {
		return fmt.Errorf("%w: capacity %d exceeds channel maximum %d", ErrInvalidCapacity, capacity, p.MaxCapacity)
	}
	return nil
}

// Split partitions bits left to right; the last packet may be shorter.
func (p Packetizer) Split(bits bitstream.Bits, capacity int) ([]Packet, error) {
	if err := p.ValidateCapacity(capacity); err != nil {
		return nil, err
	}
	count := (bits.Len() + capacity - 1) / capacity
	packets := make([]Packet, 0, count)
	for start := 0; start < bits.Len(); start += capacity {
		end := min(start+capacity, bits.Len())
		packets = append(packets, Packet{Index: len(packets), Bits: bits.Slice(start, end)})
	}
	return packets, nil
}

// Join concatenates packets in slice order.
func Join(packets []Packet) bitstream.Bits {
	parts := make([]bitstream.Bits, len(packets))
	for i, pkt := range packets {
		parts[i] = pkt.Bits
	}
	return bitstream.Concat(parts...)
}
