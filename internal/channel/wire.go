package channel

import (
	"errors"
	"fmt"

	"github.com/danmuck/densecode/internal/auth"
	"github.com/danmuck/densecode/internal/bitstream"
	"github.com/danmuck/densecode/internal/protocol"
	"github.com/danmuck/densecode/internal/protocol/tlv"
)

// Field ids of the transmit exchange.
const (
	FieldSymbols    uint16 = 1
	FieldTrials     uint16 = 2
	FieldState      uint16 = 3
	FieldReadout    uint16 = 4
	FieldReadoutLen uint16 = 5
	FieldErrorCode  uint16 = 6
	FieldErrorText  uint16 = 7
)

// Error codes carried by error frames.
const (
	CodeInvalidRequest   = "invalid_request"
	CodeCapacityExceeded = "capacity_exceeded"
	CodeUnavailable      = "unavailable"
	CodeTimeout          = "timeout"
	CodeUnauthorized     = "unauthorized"
)

var ErrRemote = errors.New("channel: remote error")

// EncodeRequest writes req as TLV fields, one byte per symbol.
func EncodeRequest(req Request) []byte {
	symbols := make([]byte, len(req.Symbols))
	for i, s := range req.Symbols {
		symbols[i] = byte(s)
	}
	return tlv.EncodeFields([]tlv.Field{
		tlv.Bytes(FieldSymbols, symbols),
		tlv.U32(FieldTrials, uint32(req.Trials)),
		tlv.F64(FieldState, req.State),
	})
}

func DecodeRequest(payload []byte) (Request, error) {
	fields, err := tlv.DecodeFields(payload)
	if err != nil {
		return Request{}, err
	}
	symField, err := tlv.Require(fields, FieldSymbols, tlv.TypeBytes)
	if err != nil {
		return Request{}, err
	}
	trialsField, err := tlv.Require(fields, FieldTrials, tlv.TypeU32)
	if err != nil {
		return Request{}, err
	}
	trials, err := tlv.U32FromBytes(trialsField.Value)
	if err != nil {
		return Request{}, err
	}
	req := Request{Symbols: make([]protocol.Symbol, len(symField.Value)), Trials: int(trials)}
	for i, v := range symField.Value {
		req.Symbols[i] = protocol.Symbol(v)
	}
	if f, ok := tlv.GetField(fields, FieldState); ok {
		if err := tlv.MustType(f, tlv.TypeF64); err != nil {
			return Request{}, err
		}
		if req.State, err = tlv.F64FromBytes(f.Value); err != nil {
			return Request{}, err
		}
	}
	return req, nil
}

// EncodeReadouts writes the per-trial readouts in trial order. All readouts
// of one response share a bit length.
func EncodeReadouts(readouts []bitstream.Bits) []byte {
	n := 0
	if len(readouts) > 0 {
		n = readouts[0].Len()
	}
	fields := make([]tlv.Field, 0, len(readouts)+1)
	fields = append(fields, tlv.U32(FieldReadoutLen, uint32(n)))
	for _, r := range readouts {
		fields = append(fields, tlv.Bytes(FieldReadout, r.Bytes()))
	}
	return tlv.EncodeFields(fields)
}

func DecodeReadouts(payload []byte) ([]bitstream.Bits, error) {
	fields, err := tlv.DecodeFields(payload)
	if err != nil {
		return nil, err
	}
	lenField, err := tlv.Require(fields, FieldReadoutLen, tlv.TypeU32)
	if err != nil {
		return nil, err
	}
	n, err := tlv.U32FromBytes(lenField.Value)
	if err != nil {
		return nil, err
	}
	raw := tlv.GetAll(fields, FieldReadout)
	out := make([]bitstream.Bits, len(raw))
	for i, f := range raw {
		if err := tlv.MustType(f, tlv.TypeBytes); err != nil {
			return nil, err
		}
		b := bitstream.FromBytes(f.Value)
		if b.Len() < int(n) || b.Len()-int(n) >= 8 {
			return nil, fmt.Errorf("%w: readout %d carries %d bytes for %d bits", protocol.ErrInvalidEncoding, i, len(f.Value), n)
		}
		out[i] = b.Slice(0, int(n))
	}
	return out, nil
}

// EncodeError maps err onto an error code and message.
func EncodeError(err error) []byte {
	return tlv.EncodeFields([]tlv.Field{
		tlv.String(FieldErrorCode, ErrorCode(err)),
		tlv.String(FieldErrorText, err.Error()),
	})
}

// DecodeError rebuilds the sentinel-wrapped error an error frame carries.
func DecodeError(payload []byte) error {
	fields, err := tlv.DecodeFields(payload)
	if err != nil {
		return err
	}
	code := ""
	if f, ok := tlv.GetField(fields, FieldErrorCode); ok {
		code = string(f.Value)
	}
	text := ""
	if f, ok := tlv.GetField(fields, FieldErrorText); ok {
		text = string(f.Value)
	}
	switch code {
	case CodeCapacityExceeded:
		return fmt.Errorf("%w: %s", protocol.ErrChannelCapacityExceeded, text)
	case CodeUnavailable:
		return fmt.Errorf("%w: %s", protocol.ErrChannelUnavailable, text)
	case CodeTimeout:
		return fmt.Errorf("%w: %s", protocol.ErrChannelTimeout, text)
	case CodeInvalidRequest:
		return fmt.Errorf("%w: %s", protocol.ErrInvalidPacket, text)
	case CodeUnauthorized:
		return fmt.Errorf("%w: %s", auth.ErrUnauthorized, text)
	default:
		return fmt.Errorf("%w: %s: %s", ErrRemote, code, text)
	}
}

func ErrorCode(err error) string {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, protocol.ErrChannelCapacityExceeded):
		return CodeCapacityExceeded
	case errors.Is(err, protocol.ErrChannelTimeout):
		return CodeTimeout
	case errors.Is(err, protocol.ErrChannelUnavailable):
		return CodeUnavailable
	case errors.Is(err, protocol.ErrInvalidPacket),
		errors.Is(err, protocol.ErrInvalidParameter),
		errors.Is(err, tlv.ErrMissingField),
		errors.Is(err, tlv.ErrShortFieldHeader),
		errors.Is(err, tlv.ErrShortFieldValue):
		return CodeInvalidRequest
	default:
		return CodeUnavailable
	}
}
