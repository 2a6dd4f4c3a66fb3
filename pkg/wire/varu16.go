package wire

import (
	"fmt"
	"io"
)

// VarU16 is a variable-length unsigned 16-bit integer.
//
// Values up to 127 encode as a single byte. Larger values set the top
// bit of the first byte and carry the high bits there, with the low
// byte following. The representable domain is [0, MaxVarU16].
type VarU16 struct {
	value uint16
}

// NewVarU16 creates a VarU16, rejecting values outside the encodable domain.
func NewVarU16(v uint16) (VarU16, error) {
	if v > MaxVarU16 {
		return VarU16{}, fmt.Errorf("%w: %d > %d", ErrValueTooLarge, v, MaxVarU16)
	}
	return VarU16{value: v}, nil
}

// MustVarU16 creates a VarU16 and panics if v is outside the encodable
// domain. Use only for values known at compile time.
func MustVarU16(v uint16) VarU16 {
	u, err := NewVarU16(v)
	if err != nil {
		panic(err)
	}
	return u
}

// Value returns the integer value.
func (u VarU16) Value() uint16 { return u.value }

// Size returns the encoded length in bytes.
func (u VarU16) Size() int {
	if u.value > 0x7F {
		return 2
	}
	return 1
}

// Encode returns the one- or two-byte wire form.
func (u VarU16) Encode() ([]byte, error) {
	if u.value > MaxVarU16 {
		return nil, fmt.Errorf("%w: %d > %d", ErrValueTooLarge, u.value, MaxVarU16)
	}
	if u.value > 0x7F {
		return []byte{byte(u.value>>8) | 0x80, byte(u.value)}, nil
	}
	return []byte{byte(u.value)}, nil
}

// Decode reads a one- or two-byte value from r. The top bit of the
// first byte selects the wide form.
func (u *VarU16) Decode(r io.Reader) error {
	hi, err := ReadByte(r)
	if err != nil {
		return err
	}
	if hi&0x80 == 0 {
		u.value = uint16(hi)
		return nil
	}
	lo, err := ReadByte(r)
	if err != nil {
		return err
	}
	u.value = uint16(hi&0x7F)<<8 | uint16(lo)
	return nil
}

// Compile-time interface satisfaction checks.
var (
	_ Encoder = VarU16{}
	_ Decoder = (*VarU16)(nil)
)
