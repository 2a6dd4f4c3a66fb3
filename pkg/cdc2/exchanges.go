package cdc2

import (
	"encoding/binary"
	"io"

	"github.com/v5link-protocol/v5link-go/pkg/wire"
)

// Key-value store limits in bytes.
const (
	MaxKeyLen   = 31
	MaxValueLen = 255
)

// NewGetSystemFlags builds the status flag query.
func NewGetSystemFlags() Command[wire.Empty] {
	return NewCommand(IDGetSystemFlags, wire.Empty{})
}

// SystemFlagsReply carries the runtime status flag word.
type SystemFlagsReply struct {
	Flags uint32
}

// Decode reads the big-endian flag word.
func (p *SystemFlagsReply) Decode(r io.Reader) error {
	var buf [4]byte
	if err := wire.ReadFull(r, buf[:]); err != nil {
		return err
	}
	p.Flags = binary.BigEndian.Uint32(buf[:])
	return nil
}

// NewGetSystemStatus builds the system version query.
func NewGetSystemStatus() Command[wire.Empty] {
	return NewCommand(IDGetSystemStatus, wire.Empty{})
}

// SystemStatusReply carries the versions of the running system.
type SystemStatusReply struct {
	System wire.Version
	CPU0   wire.Version
	CPU1   wire.Version
	Touch  wire.Version
}

// Decode reads the reserved lead byte and the four version quads.
func (p *SystemStatusReply) Decode(r io.Reader) error {
	if _, err := wire.ReadByte(r); err != nil {
		return err
	}
	for _, v := range []*wire.Version{&p.System, &p.CPU0, &p.CPU1, &p.Touch} {
		if err := v.Decode(r); err != nil {
			return err
		}
	}
	return nil
}

// NewReadKeyValue builds a key-value store read for key.
func NewReadKeyValue(key string) (Command[wire.BoundedString], error) {
	k, err := wire.NewBoundedString(key, MaxKeyLen)
	if err != nil {
		return Command[wire.BoundedString]{}, err
	}
	return NewCommand(IDReadKeyValue, k), nil
}

// ReadKeyValueReply carries the value stored under the requested key.
type ReadKeyValueReply struct {
	Value string
}

// Decode reads the zero-terminated value.
func (p *ReadKeyValueReply) Decode(r io.Reader) error {
	s, err := wire.DecodeBoundedString(r, MaxValueLen)
	if err != nil {
		return err
	}
	p.Value = s.String()
	return nil
}

// KeyValuePair is the write payload: key and value, each zero terminated.
type KeyValuePair struct {
	Key   wire.BoundedString
	Value wire.BoundedString
}

// Encode concatenates the encoded key and value.
func (p KeyValuePair) Encode() ([]byte, error) {
	key, err := p.Key.Encode()
	if err != nil {
		return nil, err
	}
	value, err := p.Value.Encode()
	if err != nil {
		return nil, err
	}
	return append(key, value...), nil
}

// NewWriteKeyValue builds a key-value store write.
func NewWriteKeyValue(key, value string) (Command[KeyValuePair], error) {
	k, err := wire.NewBoundedString(key, MaxKeyLen)
	if err != nil {
		return Command[KeyValuePair]{}, err
	}
	v, err := wire.NewBoundedString(value, MaxValueLen)
	if err != nil {
		return Command[KeyValuePair]{}, err
	}
	return NewCommand(IDWriteKeyValue, KeyValuePair{Key: k, Value: v}), nil
}

// Compile-time interface satisfaction checks.
var (
	_ wire.Decoder = (*SystemFlagsReply)(nil)
	_ wire.Decoder = (*SystemStatusReply)(nil)
	_ wire.Decoder = (*ReadKeyValueReply)(nil)
	_ wire.Encoder = KeyValuePair{}
)
