package cdc2

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/sigurn/crc16"

	"github.com/v5link-protocol/v5link-go/pkg/wire"
)

// ID is the simple-protocol command ID every extended packet rides under.
const ID byte = 0x56

// Extended command IDs.
const (
	// IDGetSystemFlags reads the runtime status flag word.
	IDGetSystemFlags byte = 0x20

	// IDGetSystemStatus reads the versions of the running system.
	IDGetSystemStatus byte = 0x22

	// IDReadKeyValue reads an entry from the device key-value store.
	IDReadKeyValue byte = 0x2E

	// IDWriteKeyValue writes an entry to the device key-value store.
	IDWriteKeyValue byte = 0x2F
)

// ErrChecksum indicates a reply whose CRC16 does not match its contents.
var ErrChecksum = errors.New("checksum mismatch")

// crcTable drives every frame checksum. The device uses the XMODEM
// polynomial with big-endian transmission.
var crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)

// Command is a device-bound extended packet: the simple header under
// ID 0x56, the extended ID, a size-prefixed payload, and a trailing
// CRC16 over the whole frame.
type Command[P wire.Encoder] struct {
	ext     byte
	payload P
}

// NewCommand creates an extended command carrying payload under the
// given extended ID.
func NewCommand[P wire.Encoder](ext byte, payload P) Command[P] {
	return Command[P]{ext: ext, payload: payload}
}

// Ext returns the extended command ID.
func (c Command[P]) Ext() byte { return c.ext }

// Payload returns the carried payload.
func (c Command[P]) Payload() P { return c.payload }

// Encode frames the payload and appends the frame checksum.
func (c Command[P]) Encode() ([]byte, error) {
	body, err := c.payload.Encode()
	if err != nil {
		return nil, err
	}
	if len(body) > wire.MaxVarU16 {
		return nil, fmt.Errorf("%w: payload is %d bytes", wire.ErrValueTooLarge, len(body))
	}
	size, err := wire.MustVarU16(uint16(len(body))).Encode()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(wire.DeviceBoundMagic)+2+len(size)+len(body)+2)
	out = append(out, wire.DeviceBoundMagic[:]...)
	out = append(out, ID)
	out = append(out, c.ext)
	out = append(out, size...)
	out = append(out, body...)

	sum := crc16.Checksum(out, crcTable)
	return append(out, byte(sum>>8), byte(sum)), nil
}

// Reply is the body of a host-bound extended packet, used inside a
// wire.HostBound envelope. Decode validates the command ID echo, the
// frame checksum, and the acknowledgement before handing the remaining
// bytes to the payload.
type Reply[P wire.Decoder] struct {
	ext byte

	// Ack is the acknowledgement code the device answered with.
	Ack AckCode

	// Payload receives the decoded reply body on success.
	Payload P
}

// NewReply creates a reply that expects the given extended ID and
// decodes into payload.
func NewReply[P wire.Decoder](ext byte, payload P) *Reply[P] {
	return &Reply[P]{ext: ext, Payload: payload}
}

// Decode reads an extended reply from r. The checksum spans the whole
// frame, so the magic the envelope already consumed is folded back in.
func (p *Reply[P]) Decode(r io.Reader) error {
	var seen bytes.Buffer
	tr := io.TeeReader(r, &seen)

	id, err := wire.ReadByte(tr)
	if err != nil {
		return err
	}
	if id != ID {
		return fmt.Errorf("%w: %#02x, want %#02x", wire.ErrUnexpectedID, id, ID)
	}

	var size wire.VarU16
	if err := size.Decode(tr); err != nil {
		return err
	}
	n := int(size.Value())
	if n < 4 {
		return fmt.Errorf("%w: extended reply of %d bytes", wire.ErrTruncated, n)
	}
	block := make([]byte, n)
	if err := wire.ReadFull(tr, block); err != nil {
		return err
	}

	frame := seen.Bytes()
	sum := crc16.Init(crcTable)
	sum = crc16.Update(sum, wire.HostBoundMagic[:], crcTable)
	sum = crc16.Update(sum, frame[:len(frame)-2], crcTable)
	sum = crc16.Complete(sum, crcTable)
	want := uint16(block[n-2])<<8 | uint16(block[n-1])
	if sum != want {
		return fmt.Errorf("%w: computed %04X, frame carries %04X", ErrChecksum, sum, want)
	}

	if block[0] != p.ext {
		return fmt.Errorf("%w: extended ID %#02x, want %#02x", wire.ErrUnexpectedID, block[0], p.ext)
	}
	p.Ack = AckCode(block[1])
	if !p.Ack.IsSuccess() {
		// Failure replies carry no payload worth parsing.
		return nil
	}
	return p.Payload.Decode(bytes.NewReader(block[2 : n-2]))
}

// Result returns the decoded payload, converting a failure
// acknowledgement into a NackError. A nacked reply is a valid frame,
// so it decodes cleanly and is not retried by handshakes; callers
// surface the failure through Result.
func (p *Reply[P]) Result() (P, error) {
	if !p.Ack.IsSuccess() {
		return p.Payload, &NackError{Code: p.Ack}
	}
	return p.Payload, nil
}

// EncodeReply builds a complete host-bound extended reply frame for
// tests and transport mocks.
func EncodeReply(ext byte, ack AckCode, body []byte) ([]byte, error) {
	n := 2 + len(body) + 2
	if n > wire.MaxVarU16 {
		return nil, fmt.Errorf("%w: body is %d bytes", wire.ErrValueTooLarge, len(body))
	}
	size, err := wire.MustVarU16(uint16(n)).Encode()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(wire.HostBoundMagic)+1+len(size)+n)
	out = append(out, wire.HostBoundMagic[:]...)
	out = append(out, ID)
	out = append(out, size...)
	out = append(out, ext, byte(ack))
	out = append(out, body...)

	sum := crc16.Checksum(out, crcTable)
	return append(out, byte(sum>>8), byte(sum)), nil
}

// Compile-time interface satisfaction checks.
var (
	_ wire.Encoder = Command[wire.Empty]{}
	_ wire.Decoder = (*Reply[*wire.Empty])(nil)
)
