package wire

import (
	"fmt"
	"io"
)

// Packet magic sequences.
var (
	// DeviceBoundMagic introduces every host-to-device packet.
	DeviceBoundMagic = [4]byte{0xC9, 0x36, 0xB8, 0x47}

	// HostBoundMagic introduces every device-to-host packet.
	HostBoundMagic = [2]byte{0xAA, 0x55}
)

// DeviceBound is a host-to-device packet envelope: the magic sequence,
// a command ID byte, the payload size as a VarU16, and the payload.
type DeviceBound[P Encoder] struct {
	id      byte
	payload P
}

// NewDeviceBound creates an envelope carrying payload under the given
// command ID.
func NewDeviceBound[P Encoder](id byte, payload P) DeviceBound[P] {
	return DeviceBound[P]{id: id, payload: payload}
}

// ID returns the command ID byte.
func (p DeviceBound[P]) ID() byte { return p.id }

// Payload returns the carried payload.
func (p DeviceBound[P]) Payload() P { return p.payload }

// Encode frames the payload. The payload is encoded once and the buffer
// reused for both the size prefix and the body.
func (p DeviceBound[P]) Encode() ([]byte, error) {
	body, err := p.payload.Encode()
	if err != nil {
		return nil, err
	}
	if len(body) > MaxVarU16 {
		return nil, fmt.Errorf("%w: payload is %d bytes", ErrValueTooLarge, len(body))
	}
	size, err := MustVarU16(uint16(len(body))).Encode()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(DeviceBoundMagic)+1+len(size)+len(body))
	out = append(out, DeviceBoundMagic[:]...)
	out = append(out, p.id)
	out = append(out, size...)
	out = append(out, body...)
	return out, nil
}

// HostBound is a device-to-host packet envelope. Live packets are
// decoded from the receive stream; use EncodeHostBound to fabricate
// replies for tests and transport mocks.
type HostBound[P Decoder] struct {
	// Payload receives the decoded packet body.
	Payload P
}

// NewHostBound creates an envelope that decodes into payload.
func NewHostBound[P Decoder](payload P) HostBound[P] {
	return HostBound[P]{Payload: payload}
}

// Decode validates the magic sequence and delegates the remainder of
// the stream to the payload.
func (p *HostBound[P]) Decode(r io.Reader) error {
	var magic [2]byte
	if err := ReadFull(r, magic[:]); err != nil {
		return err
	}
	if magic != HostBoundMagic {
		return fmt.Errorf("%w: % X", ErrInvalidMagic, magic[:])
	}
	return p.Payload.Decode(r)
}

// EncodeHostBound frames an encoded payload as a device-to-host packet.
// Real packets originate from the device; this builds fixtures.
func EncodeHostBound(payload Encoder) ([]byte, error) {
	body, err := payload.Encode()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(HostBoundMagic)+len(body))
	out = append(out, HostBoundMagic[:]...)
	out = append(out, body...)
	return out, nil
}
