package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEncoding         = errors.New("protocol: invalid encoding")
	ErrInvalidParameter        = errors.New("protocol: invalid parameter")
	ErrInvalidCapacity         = errors.New("protocol: invalid capacity")
	ErrInvalidPacket           = errors.New("protocol: invalid packet")
	ErrInvalidMapping          = errors.New("protocol: invalid mapping")
	ErrChannelUnavailable      = errors.New("protocol: channel unavailable")
	ErrChannelCapacityExceeded = errors.New("protocol: channel capacity exceeded")
	ErrChannelTimeout          = errors.New("protocol: channel timeout")
)

// PacketError ties a failure to the packet index it occurred on.
type PacketError struct {
	Index int
	Err   error
}

func (e *PacketError) Error() string {
	return fmt.Sprintf("packet %d: %v", e.Index, e.Err)
}

func (e *PacketError) Unwrap() error {
	return e.Err
}
