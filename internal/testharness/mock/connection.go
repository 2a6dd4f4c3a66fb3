// Package mock provides scripted protocol doubles for testing.
package mock

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/v5link-protocol/v5link-go/pkg/connection"
	"github.com/v5link-protocol/v5link-go/pkg/wire"
)

// Reply is one scripted receive result: a frame to decode or an error.
type Reply struct {
	Frame []byte
	Err   error
}

// Connection is a scripted connection double. Sends are recorded in
// order and receives consume the reply script, so tests can drive
// every exchange path without a transport.
type Connection struct {
	// Transport is the class reported by Kind.
	Transport connection.Kind

	// SendErrs scripts per-call send failures; calls beyond the
	// script succeed.
	SendErrs []error

	// Replies scripts receive results; calls beyond the script time out.
	Replies []Reply

	// UserData is returned by ReadUser.
	UserData []byte

	// Sent collects every encoded packet in transmit order.
	Sent [][]byte

	// UserWritten collects user channel writes.
	UserWritten []byte

	mu       sync.Mutex
	sends    int
	receives int
	closed   bool
}

// NewConnection creates a mock of the given transport class.
func NewConnection(kind connection.Kind) *Connection {
	return &Connection{Transport: kind}
}

// Kind reports the scripted transport class.
func (c *Connection) Kind() connection.Kind {
	return c.Transport
}

// SendPacket encodes pkt and records it, or fails per the script.
func (c *Connection) SendPacket(_ context.Context, pkt wire.Encoder) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return connection.ErrNotConnected
	}

	data, err := pkt.Encode()
	if err != nil {
		return fmt.Errorf("%w: %w", connection.ErrEncode, err)
	}

	call := c.sends
	c.sends++
	if call < len(c.SendErrs) && c.SendErrs[call] != nil {
		return c.SendErrs[call]
	}

	c.Sent = append(c.Sent, data)
	return nil
}

// ReceivePacket consumes the next scripted reply. An exhausted script
// times out, mirroring a silent device.
func (c *Connection) ReceivePacket(_ context.Context, into wire.Decoder, _ time.Duration) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return connection.ErrNotConnected
	}
	call := c.receives
	c.receives++
	c.mu.Unlock()

	if call >= len(c.Replies) {
		return connection.ErrTimeout
	}
	reply := c.Replies[call]
	if reply.Err != nil {
		return reply.Err
	}
	if err := into.Decode(bytes.NewReader(reply.Frame)); err != nil {
		return fmt.Errorf("%w: %w", connection.ErrDecode, err)
	}
	return nil
}

// ReadUser returns the scripted user channel bytes.
func (c *Connection) ReadUser(_ context.Context, p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, connection.ErrNotConnected
	}
	n := copy(p, c.UserData)
	c.UserData = c.UserData[n:]
	return n, nil
}

// WriteUser records user channel writes, refusing on wireless
// transports the way real connections do.
func (c *Connection) WriteUser(_ context.Context, p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, connection.ErrNotConnected
	}
	if c.Transport.Wireless() {
		return 0, connection.ErrNoWriteOnWireless
	}
	c.UserWritten = append(c.UserWritten, p...)
	return len(p), nil
}

// Close marks the connection closed. Later operations fail with
// ErrNotConnected.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Sends returns the number of SendPacket calls, including scripted
// failures.
func (c *Connection) Sends() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sends
}

// Receives returns the number of ReceivePacket calls.
func (c *Connection) Receives() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receives
}

// Compile-time interface satisfaction check.
var _ connection.Connection = (*Connection)(nil)
