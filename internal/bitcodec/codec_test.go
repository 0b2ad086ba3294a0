package bitcodec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/densecode/internal/bitstream"
	"github.com/danmuck/densecode/internal/protocol"
)

func TestEncodeDecodeRoundTripFullPrecision(t *testing.T) {
	codec := Default()
	in := Payload{Data: []byte("123"), Width: 1, Height: 1, Channels: 3}
	bits, err := codec.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if bits.String() != "001100010011001000110011" {
		t.Fatalf("unexpected bits: %s", bits)
	}
	out, err := codec.Decode(bits, 1, 1, 3)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(out.Data, in.Data) {
		t.Fatalf("expected %q, got %q", in.Data, out.Data)
	}
}

func TestReducedPrecisionQuantises(t *testing.T) {
	codec, err := New(3)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	bits, err := codec.Encode(Payload{Data: []byte{0xFF, 0x20, 0x1F}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if bits.String() != "111001000" {
		t.Fatalf("unexpected quantised bits: %s", bits)
	}
	out, err := codec.Decode(bits, 0, 0, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(out.Data, []byte{0xE0, 0x20, 0x00}) {
		t.Fatalf("unexpected rescaled bytes: %x", out.Data)
	}

	representable := []byte{0x00, 0x20, 0xE0}
	bits, _ = codec.Encode(Payload{Data: representable})
	out, _ = codec.Decode(bits, 0, 0, 0)
	if !bytes.Equal(out.Data, representable) {
		t.Fatalf("representable bytes should survive: %x", out.Data)
	}
}

func TestDecodeRejectsRaggedLength(t *testing.T) {
	_, err := Default().Decode(bitstream.MustParse("1010101"), 0, 0, 0)
	if !errors.Is(err, protocol.ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestDecodeRejectsShapeMismatch(t *testing.T) {
	bits, _ := Default().Encode(Payload{Data: []byte{1, 2, 3, 4}})
	_, err := Default().Decode(bits, 2, 1, 3)
	if !errors.Is(err, protocol.ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestNewRejectsBadPrecision(t *testing.T) {
	for _, p := range []int{0, 9, -1} {
		if _, err := New(p); !errors.Is(err, protocol.ErrInvalidParameter) {
			t.Fatalf("precision %d: expected ErrInvalidParameter, got %v", p, err)
		}
	}
	z, err := NewZstd()
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer z.Close()
	if _, err := New(4, WithCompressor(z)); !errors.Is(err, protocol.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for lossy compression, got %v", err)
	}
}

func TestCompressedRoundTrip(t *testing.T) {
	z, err := NewZstd()
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer z.Close()
	codec, err := New(8, WithCompressor(z))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	data := bytes.Repeat([]byte{0x10, 0x20, 0x30}, 200)
	bits, err := codec.Encode(Payload{Data: data})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if bits.Len() >= len(data)*8 {
		t.Fatalf("expected compression to shrink %d bytes, got %d bits", len(data), bits.Len())
	}
	out, err := codec.Decode(bits, 20, 10, 3)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(out.Data, data) {
		t.Fatalf("compressed round trip mismatch")
	}
}

func TestCompressedCorruptionIsSurfaced(t *testing.T) {
	z, err := NewZstd()
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer z.Close()
	codec, _ := New(8, WithCompressor(z))
	bits, _ := codec.Encode(Payload{Data: bytes.Repeat([]byte("densecode"), 40)})
	corrupted := bits.Slice(0, 16).Invert()
	damaged := bitstream.Concat(corrupted, bits.Slice(16, bits.Len()))

	_, err = codec.Decode(damaged, 0, 0, 0)
	if !errors.Is(err, ErrCompression) || !errors.Is(err, protocol.ErrInvalidEncoding) {
		t.Fatalf("expected compression failure, got %v", err)
	}
}
