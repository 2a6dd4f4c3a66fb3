package wire

import (
	"errors"
	"io"
)

// Encoding limits.
const (
	// MaxVarU16 is the largest value representable by a variable-length u16.
	MaxVarU16 = 0x7FFF
)

// Encoding and decoding errors.
var (
	// ErrStringTooLong indicates a string exceeds its maximum encoded length.
	ErrStringTooLong = errors.New("string too long")

	// ErrValueTooLarge indicates a value outside the variable-length u16 domain.
	ErrValueTooLarge = errors.New("value too large for variable-length u16")

	// ErrInvalidMagic indicates a packet header with an unknown magic sequence.
	ErrInvalidMagic = errors.New("invalid packet magic")

	// ErrUnexpectedID indicates a reply carrying a different command ID than expected.
	ErrUnexpectedID = errors.New("unexpected command id")

	// ErrMissingTerminator indicates a string field without its zero terminator.
	ErrMissingTerminator = errors.New("missing string terminator")

	// ErrTruncated indicates the input ended before a complete value was decoded.
	ErrTruncated = errors.New("truncated input")
)

// Encoder is implemented by values that serialize themselves to wire bytes.
// Encode must be deterministic and must not mutate the value.
type Encoder interface {
	// Encode returns the wire representation of the value.
	Encode() ([]byte, error)
}

// Decoder is implemented by values that deserialize themselves from a
// wire byte stream. Decode consumes exactly the bytes that make up the
// value and must return an error, never panic, on malformed input.
type Decoder interface {
	// Decode reads the wire representation of the value from r.
	Decode(r io.Reader) error
}

// Empty is a zero-length payload for commands that carry no arguments
// and replies that carry no data.
type Empty struct{}

// Encode returns no bytes.
func (Empty) Encode() ([]byte, error) { return nil, nil }

// Decode consumes no bytes.
func (*Empty) Decode(io.Reader) error { return nil }

// Bytes is a raw payload used when the byte layout is already final,
// or when a reply body is opaque to the caller.
type Bytes []byte

// Encode returns the bytes unchanged.
func (b Bytes) Encode() ([]byte, error) { return b, nil }

// Decode reads all remaining bytes from r.
func (b *Bytes) Decode(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	*b = data
	return nil
}

// ReadFull reads exactly len(buf) bytes from r, mapping premature EOF
// to ErrTruncated. Decoder implementations use it so malformed input
// classifies uniformly.
func ReadFull(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncated
		}
		return err
	}
	return nil
}

// ReadByte reads a single byte from r, mapping EOF to ErrTruncated.
func ReadByte(r io.Reader) (byte, error) {
	var b [1]byte
	if err := ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// Compile-time interface satisfaction checks.
var (
	_ Encoder = Empty{}
	_ Decoder = (*Empty)(nil)
	_ Encoder = Bytes(nil)
	_ Decoder = (*Bytes)(nil)
)
