// Package wire defines the binary wire format for the V5 serial protocol.
//
// V5 devices speak a framed binary protocol over serial and Bluetooth
// links. Every packet is an envelope: a fixed magic sequence, a command
// ID byte, a variable-length payload size, and the payload itself.
//
// # Packet Envelopes
//
// Packets are directional:
//   - DeviceBound: host to device (magic C9 36 B8 47)
//   - HostBound: device to host (magic AA 55)
//
// DeviceBound packets are encoded and transmitted; HostBound packets are
// decoded from the receive stream. EncodeHostBound exists so tests and
// transport mocks can fabricate device replies.
//
// # Primitives
//
// The payload building blocks are VarU16 (a one-or-two-byte unsigned
// integer), BoundedString (zero-terminated with a maximum length),
// FixedString and TerminatedFixedString (zero-padded fixed-size fields),
// and Version (a four-byte firmware version).
//
// # Errors
//
// Encoding fails only on size violations (ErrStringTooLong,
// ErrValueTooLarge). Decoding never panics: malformed input surfaces as
// ErrInvalidMagic, ErrMissingTerminator, or ErrTruncated.
package wire
