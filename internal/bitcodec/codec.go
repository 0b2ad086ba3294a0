// Package bitcodec converts payload bytes to canonical bit-strings and back.
package bitcodec

import (
	"errors"
	"fmt"

	"github.com/danmuck/densecode/internal/bitstream"
	"github.com/danmuck/densecode/internal/protocol"
)

// DefaultPrecision keeps every bit of every byte.
const DefaultPrecision = 8

var ErrCompression = errors.New("bitcodec: compression stage failed")

// Payload is raw content plus the shape needed to rebuild it.
type Payload struct {
	Data     []byte
	Width    int
	Height   int
	Channels int
}

// Size is the byte count implied by the shape, or 0 when the shape is unset.
func (p Payload) Size() int {
	if p.Width <= 0 || p.Height <= 0 || p.Channels <= 0 {
		return 0
	}
	return p.Width * p.Height * p.Channels
}

// Compressor is an optional lossless stage run before quantisation.
type Compressor interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// Codec quantises each byte to its top Precision bits.
type Codec struct {
	Precision  int
	Compressor Compressor
}

type Option func(*Codec)

func WithCompressor(c Compressor) Option {
	return func(codec *Codec) {
		codec.Compressor = c
	}
}

func New(precision int, opts ...Option) (Codec, error) {
	c := Codec{Precision: precision}
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.Validate(); err != nil {
		return Codec{}, err
	}
	return c, nil
}

func Default() Codec {
	return Codec{Precision: DefaultPrecision}
}

func (c Codec) Validate() error {
	if c.Precision < 1 || c.Precision > 8 {
		return fmt.Errorf("%w: precision %d must be between 1 and 8", protocol.ErrInvalidParameter, c.Precision)
	}
	if c.Compressor != nil && c.Precision != 8 {
		return fmt.Errorf("%w: compression requires precision 8, got %d", protocol.ErrInvalidParameter, c.Precision)
	}
	return nil
}

func (c Codec) Encode(p Payload) (bitstream.Bits, error) {
	if err := c.Validate(); err != nil {
		return bitstream.Bits{}, err
	}
	data := p.Data
	if c.Compressor != nil {
		var err error
		if data, err = c.Compressor.Compress(data); err != nil {
			return bitstream.Bits{}, fmt.Errorf("%w: %s: %v", ErrCompression, c.Compressor.Name(), err)
		}
	}
	if c.Precision == 8 {
		return bitstream.FromBytes(data), nil
	}
	shift := uint(8 - c.Precision)
	out := bitstream.NewBuilder(len(data) * c.Precision)
	for _, v := range data {
		out.AppendUint(uint64(v>>shift), c.Precision)
	}
	return out.Bits(), nil
}

// Decode rebuilds a payload of the given shape. A zero shape skips the size
// check.
func (c Codec) Decode(bits bitstream.Bits, width, height, channels int) (Payload, error) {
	if err := c.Validate(); err != nil {
		return Payload{}, err
	}
	if bits.Len()%c.Precision != 0 {
		return Payload{}, fmt.Errorf("%w: length %d is not a multiple of precision %d", protocol.ErrInvalidEncoding, bits.Len(), c.Precision)
	}
	var data []byte
	if c.Precision == 8 {
		data = bits.Bytes()
	} else {
		shift := uint(8 - c.Precision)
		data = make([]byte, bits.Len()/c.Precision)
		for i := range data {
			data[i] = byte(bits.Uint(i*c.Precision, c.Precision) << shift)
		}
	}
	if c.Compressor != nil {
		var err error
		if data, err = c.Compressor.Decompress(data); err != nil {
			return Payload{}, fmt.Errorf("%w: %w: %s: %v", protocol.ErrInvalidEncoding, ErrCompression, c.Compressor.Name(), err)
		}
	}
	p := Payload{Data: data, Width: width, Height: height, Channels: channels}
	if size := p.Size(); size > 0 && size != len(data) {
		return Payload{}, fmt.Errorf("%w: %d bytes do not fill a %dx%dx%d payload", protocol.ErrInvalidEncoding, len(data), width, height, channels)
	}
	return p, nil
}
