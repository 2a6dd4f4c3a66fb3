// Package connection defines the transport-independent device link.
//
// A Connection moves whole packets: encode and transmit on the system
// channel, receive and decode with a timeout, plus raw byte access to
// the user (program I/O) channel. Implementations live in pkg/serial
// and pkg/bluetooth; this package holds the contract, the error
// taxonomy, and the exchange helpers built on it.
//
// # Handshake
//
// Handshake is the reliability primitive: send a packet, wait for its
// reply, retry the exchange a bounded number of times. Send and encode
// failures abort immediately since resending after a failed write only
// duplicates traffic; receive, decode, and timeout failures are
// retried. After the final attempt the most recent failure is returned.
//
// # Errors
//
// Every failure surfaces as (or wraps) one sentinel of the closed set
// defined here, so callers can classify with errors.Is. Transport
// packages wrap their native errors: a serial write failure arrives as
// ErrIO wrapping ErrSerial wrapping the port error. The two exceptions
// live where the data is: wire.ErrInvalidMagic (aliased here) and
// cdc2.NackError, which carries the device's acknowledgement code.
//
// # Ownership
//
// A Connection is exclusively owned by its caller. Operations on one
// connection complete in issue order; there is no pipelining and no
// internal request queue. Callers that share a connection across
// goroutines synchronize externally.
package connection
