package cdc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/v5link-protocol/v5link-go/pkg/wire"
)

// Simple protocol command IDs.
const (
	// IDQuery1 probes the device identity over the bootloader surface.
	IDQuery1 byte = 0x21

	// IDSystemVersion requests the firmware version and product type.
	IDSystemVersion byte = 0xA4
)

// NewQuery1 builds the device identity probe.
func NewQuery1() wire.DeviceBound[wire.Empty] {
	return wire.NewDeviceBound(IDQuery1, wire.Empty{})
}

// NewSystemVersion builds the firmware version request.
func NewSystemVersion() wire.DeviceBound[wire.Empty] {
	return wire.NewDeviceBound(IDSystemVersion, wire.Empty{})
}

// ReplyHeader is the command ID echo and body size carried by every
// simple-protocol reply.
type ReplyHeader struct {
	ID   byte
	Size uint16
}

// DecodeReplyHeader reads a reply header from r and validates the
// echoed command ID against want.
func DecodeReplyHeader(r io.Reader, want byte) (ReplyHeader, error) {
	id, err := wire.ReadByte(r)
	if err != nil {
		return ReplyHeader{}, err
	}
	if id != want {
		return ReplyHeader{}, fmt.Errorf("%w: %#02x, want %#02x", wire.ErrUnexpectedID, id, want)
	}

	var size wire.VarU16
	if err := size.Decode(r); err != nil {
		return ReplyHeader{}, err
	}
	return ReplyHeader{ID: id, Size: size.Value()}, nil
}

// readBody reads the size-prefixed reply body declared by the header.
// Consuming the full declared size keeps the stream aligned even when
// newer firmware appends fields this package does not parse.
func readBody(r io.Reader, h ReplyHeader) ([]byte, error) {
	body := make([]byte, h.Size)
	if err := wire.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// ProductType identifies the kind of device answering a system query.
type ProductType byte

const (
	// ProductBrain is the V5 robot brain.
	ProductBrain ProductType = 0x10

	// ProductController is the V5 wireless controller.
	ProductController ProductType = 0x11
)

// String returns the product type name.
func (p ProductType) String() string {
	switch p {
	case ProductBrain:
		return "BRAIN"
	case ProductController:
		return "CONTROLLER"
	default:
		return "UNKNOWN"
	}
}

// SystemVersionReply carries the firmware version and product identity.
type SystemVersionReply struct {
	Version     wire.Version
	ProductType ProductType

	// Flags carries product-specific status bits. On a controller,
	// bit 1 reports an active radio link to a brain.
	Flags byte
}

// Decode reads a system version reply body: four version bytes, the
// product type, and the flags byte.
func (p *SystemVersionReply) Decode(r io.Reader) error {
	h, err := DecodeReplyHeader(r, IDSystemVersion)
	if err != nil {
		return err
	}
	body, err := readBody(r, h)
	if err != nil {
		return err
	}

	br := bytes.NewReader(body)
	if err := p.Version.Decode(br); err != nil {
		return err
	}
	pt, err := wire.ReadByte(br)
	if err != nil {
		return err
	}
	p.ProductType = ProductType(pt)

	flags, err := wire.ReadByte(br)
	if err != nil {
		return err
	}
	p.Flags = flags
	return nil
}

// Tethered reports whether a controller currently holds a radio link
// to a brain.
func (p *SystemVersionReply) Tethered() bool {
	return p.ProductType == ProductController && p.Flags&0x02 != 0
}

// Query1Reply is the identity blob produced by the bootloader. Its
// layout varies across firmware revisions, so the body stays raw.
type Query1Reply struct {
	Data []byte
}

// Decode reads a query reply body.
func (p *Query1Reply) Decode(r io.Reader) error {
	h, err := DecodeReplyHeader(r, IDQuery1)
	if err != nil {
		return err
	}
	body, err := readBody(r, h)
	if err != nil {
		return err
	}
	p.Data = body
	return nil
}

// EncodeReply builds a complete host-bound reply frame: magic, ID,
// size, body. Real replies originate from the device; this builds
// fixtures for tests and transport mocks.
func EncodeReply(id byte, body []byte) ([]byte, error) {
	if len(body) > wire.MaxVarU16 {
		return nil, fmt.Errorf("%w: body is %d bytes", wire.ErrValueTooLarge, len(body))
	}
	size, err := wire.MustVarU16(uint16(len(body))).Encode()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(wire.HostBoundMagic)+1+len(size)+len(body))
	out = append(out, wire.HostBoundMagic[:]...)
	out = append(out, id)
	out = append(out, size...)
	out = append(out, body...)
	return out, nil
}

// Compile-time interface satisfaction checks.
var (
	_ wire.Decoder = (*SystemVersionReply)(nil)
	_ wire.Decoder = (*Query1Reply)(nil)
)
