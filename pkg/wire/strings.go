package wire

import (
	"bytes"
	"fmt"
	"io"
)

// BoundedString is a string with a maximum encoded byte length,
// transmitted as its bytes followed by a single zero terminator.
type BoundedString struct {
	max int
	str string
}

// NewBoundedString creates a BoundedString, rejecting strings longer
// than max bytes.
func NewBoundedString(s string, max int) (BoundedString, error) {
	if len(s) > max {
		return BoundedString{}, fmt.Errorf("%w: %d > %d bytes", ErrStringTooLong, len(s), max)
	}
	return BoundedString{max: max, str: s}, nil
}

// String returns the contained string.
func (b BoundedString) String() string { return b.str }

// Max returns the maximum encoded byte length.
func (b BoundedString) Max() int { return b.max }

// Encode returns the string bytes followed by a zero terminator.
func (b BoundedString) Encode() ([]byte, error) {
	if len(b.str) > b.max {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrStringTooLong, len(b.str), b.max)
	}
	out := make([]byte, 0, len(b.str)+1)
	out = append(out, b.str...)
	out = append(out, 0)
	return out, nil
}

// Decode reads bytes up to the zero terminator, rejecting strings that
// run past the configured maximum.
func (b *BoundedString) Decode(r io.Reader) error {
	var buf []byte
	for {
		c, err := ReadByte(r)
		if err != nil {
			return err
		}
		if c == 0 {
			break
		}
		if len(buf) >= b.max {
			return fmt.Errorf("%w: no terminator within %d bytes", ErrStringTooLong, b.max)
		}
		buf = append(buf, c)
	}
	b.str = string(buf)
	return nil
}

// DecodeBoundedString reads a zero-terminated string of at most max
// bytes from r.
func DecodeBoundedString(r io.Reader, max int) (BoundedString, error) {
	b := BoundedString{max: max}
	if err := b.Decode(r); err != nil {
		return BoundedString{}, err
	}
	return b, nil
}

// FixedString is a string transmitted as exactly size bytes, zero
// padded, with no terminator of its own.
type FixedString struct {
	size int
	str  string
}

// NewFixedString creates a FixedString, rejecting strings longer than
// size bytes.
func NewFixedString(s string, size int) (FixedString, error) {
	if len(s) > size {
		return FixedString{}, fmt.Errorf("%w: %d > %d bytes", ErrStringTooLong, len(s), size)
	}
	return FixedString{size: size, str: s}, nil
}

// String returns the contained string.
func (f FixedString) String() string { return f.str }

// Size returns the fixed field size in bytes.
func (f FixedString) Size() int { return f.size }

// Encode returns exactly size bytes, zero padded.
func (f FixedString) Encode() ([]byte, error) {
	if len(f.str) > f.size {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrStringTooLong, len(f.str), f.size)
	}
	buf := make([]byte, f.size)
	copy(buf, f.str)
	return buf, nil
}

// Decode reads exactly size bytes and trims at the first zero.
func (f *FixedString) Decode(r io.Reader) error {
	buf := make([]byte, f.size)
	if err := ReadFull(r, buf); err != nil {
		return err
	}
	f.str = cutAtZero(buf)
	return nil
}

// DecodeFixedString reads a size-byte zero-padded string from r.
func DecodeFixedString(r io.Reader, size int) (FixedString, error) {
	f := FixedString{size: size}
	if err := f.Decode(r); err != nil {
		return FixedString{}, err
	}
	return f, nil
}

// TerminatedFixedString is a string transmitted as size bytes, zero
// padded, followed by a guaranteed zero terminator (size+1 bytes total).
type TerminatedFixedString struct {
	size int
	str  string
}

// NewTerminatedFixedString creates a TerminatedFixedString, rejecting
// strings longer than size bytes.
func NewTerminatedFixedString(s string, size int) (TerminatedFixedString, error) {
	if len(s) > size {
		return TerminatedFixedString{}, fmt.Errorf("%w: %d > %d bytes", ErrStringTooLong, len(s), size)
	}
	return TerminatedFixedString{size: size, str: s}, nil
}

// String returns the contained string.
func (f TerminatedFixedString) String() string { return f.str }

// Size returns the fixed field size in bytes, excluding the terminator.
func (f TerminatedFixedString) Size() int { return f.size }

// Encode returns size+1 bytes: the zero-padded field plus a terminator.
func (f TerminatedFixedString) Encode() ([]byte, error) {
	if len(f.str) > f.size {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrStringTooLong, len(f.str), f.size)
	}
	buf := make([]byte, f.size+1)
	copy(buf, f.str)
	return buf, nil
}

// Decode reads size+1 bytes, requiring the final byte to be zero.
func (f *TerminatedFixedString) Decode(r io.Reader) error {
	buf := make([]byte, f.size+1)
	if err := ReadFull(r, buf); err != nil {
		return err
	}
	if buf[f.size] != 0 {
		return fmt.Errorf("%w: field of %d bytes", ErrMissingTerminator, f.size)
	}
	f.str = cutAtZero(buf[:f.size])
	return nil
}

// DecodeTerminatedFixedString reads a size-byte zero-padded string plus
// its terminator from r.
func DecodeTerminatedFixedString(r io.Reader, size int) (TerminatedFixedString, error) {
	f := TerminatedFixedString{size: size}
	if err := f.Decode(r); err != nil {
		return TerminatedFixedString{}, err
	}
	return f, nil
}

// cutAtZero returns the bytes before the first zero as a string.
func cutAtZero(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// Compile-time interface satisfaction checks.
var (
	_ Encoder = BoundedString{}
	_ Decoder = (*BoundedString)(nil)
	_ Encoder = FixedString{}
	_ Decoder = (*FixedString)(nil)
	_ Encoder = TerminatedFixedString{}
	_ Decoder = (*TerminatedFixedString)(nil)
)
