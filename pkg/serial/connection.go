package serial

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/v5link-protocol/v5link-go/pkg/connection"
	"github.com/v5link-protocol/v5link-go/pkg/trace"
	"github.com/v5link-protocol/v5link-go/pkg/wire"
)

const (
	// pollInterval is the port read timeout used while waiting for a
	// frame; cancellation is checked between polls.
	pollInterval = 10 * time.Millisecond

	// userPollTimeout bounds a single user port read.
	userPollTimeout = 50 * time.Millisecond

	readChunkSize = 4096
)

// Options configure an open connection.
type Options struct {
	// BaudRate overrides the line rate (default 115200).
	BaudRate int

	// Trace receives link capture events. Nil disables capture.
	Trace trace.Logger

	// Logger receives operational logs. Nil discards them.
	Logger *slog.Logger
}

// Connection is a wired device link. It is owned by a single caller;
// see the connection package for the sharing contract.
type Connection struct {
	kind   connection.Kind
	device Device
	system Port
	user   Port

	rxBuf  []byte
	rec    *trace.Recorder
	logger *slog.Logger
	closed bool
}

// Open opens the device's ports and returns the link.
func Open(device Device, opts Options) (*Connection, error) {
	if device.SystemPort == "" {
		return nil, fmt.Errorf("%w: device has no system port", connection.ErrInvalidDevice)
	}

	baud := opts.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}

	system, err := openPort(device.SystemPort, baud)
	if err != nil {
		return nil, err
	}
	var user Port
	if device.UserPort != "" {
		user, err = openPort(device.UserPort, baud)
		if err != nil {
			system.Close()
			return nil, err
		}
	}

	return newConnection(device, system, user, opts.Trace, opts.Logger), nil
}

// newConnection wires an already-open port pair, letting tests inject
// in-memory ports.
func newConnection(device Device, system, user Port, tl trace.Logger, logger *slog.Logger) *Connection {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Connection{
		kind:   device.Kind(),
		device: device,
		system: system,
		user:   user,
		rec: &trace.Recorder{
			Logger:       tl,
			ConnectionID: uuid.NewString(),
			Transport:    device.Kind(),
			Device:       device.SystemPort,
		},
		logger: logger,
	}
	c.rec.State(trace.EntityConnection, "", "open", "")
	logger.Info("serial connection opened",
		slog.String("device", device.Product),
		slog.String("system_port", device.SystemPort),
		slog.String("user_port", device.UserPort),
		slog.String("kind", c.kind.String()))
	return c
}

// Kind reports the transport class.
func (c *Connection) Kind() connection.Kind {
	return c.kind
}

// SendPacket encodes pkt and writes the frame to the system port.
func (c *Connection) SendPacket(ctx context.Context, pkt wire.Encoder) error {
	if c.closed {
		return connection.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := pkt.Encode()
	if err != nil {
		c.rec.Error("encode", err)
		return fmt.Errorf("%w: %w", connection.ErrEncode, err)
	}
	if err := writeAll(c.system, data); err != nil {
		c.rec.Error("send", err)
		return fmt.Errorf("%w: %w", connection.ErrIO, err)
	}
	c.rec.Packet(trace.DirectionOut, data)
	return nil
}

// ReceivePacket waits up to timeout for one complete frame on the
// system port and decodes it into into.
func (c *Connection) ReceivePacket(ctx context.Context, into wire.Decoder, timeout time.Duration) error {
	if c.closed {
		return connection.ErrNotConnected
	}
	if timeout <= 0 {
		timeout = connection.DefaultTimeout
	}
	deadline := time.Now().Add(timeout)
	chunk := make([]byte, readChunkSize)

	for {
		frame, rest, discarded, ok := wire.ScanFrame(c.rxBuf)
		c.rxBuf = rest
		if discarded > 0 {
			c.rec.Error("scan", fmt.Errorf("discarded %d bytes before frame", discarded))
			c.logger.Debug("discarded noise before frame", slog.Int("bytes", discarded))
		}
		if ok {
			c.rec.Packet(trace.DirectionIn, frame)
			if err := into.Decode(bytes.NewReader(frame)); err != nil {
				c.rec.Error("decode", err)
				return fmt.Errorf("%w: %w", connection.ErrDecode, err)
			}
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return connection.ErrTimeout
		}
		poll := pollInterval
		if remaining < poll {
			poll = remaining
		}
		if err := c.system.SetReadTimeout(poll); err != nil {
			return fmt.Errorf("%w: %w", connection.ErrSerial, err)
		}
		n, err := c.system.Read(chunk)
		if err != nil {
			c.rec.Error("receive", err)
			return fmt.Errorf("%w: %w", connection.ErrIO, err)
		}
		c.rxBuf = append(c.rxBuf, chunk[:n]...)
	}
}

// ReadUser reads available program output from the user port. A
// connection without a user port reports no data.
func (c *Connection) ReadUser(ctx context.Context, p []byte) (int, error) {
	if c.closed {
		return 0, connection.ErrNotConnected
	}
	if c.user == nil {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := c.user.SetReadTimeout(userPollTimeout); err != nil {
		return 0, fmt.Errorf("%w: %w", connection.ErrSerial, err)
	}
	n, err := c.user.Read(p)
	if err != nil {
		c.rec.Error("read user", err)
		return 0, fmt.Errorf("%w: %w", connection.ErrIO, err)
	}
	if n > 0 {
		c.rec.User(trace.DirectionIn, p[:n])
	}
	return n, nil
}

// WriteUser writes program input to the user port.
func (c *Connection) WriteUser(ctx context.Context, p []byte) (int, error) {
	if c.closed {
		return 0, connection.ErrNotConnected
	}
	if c.kind.Wireless() {
		return 0, connection.ErrNoWriteOnWireless
	}
	if c.user == nil {
		return 0, connection.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := writeAll(c.user, p); err != nil {
		c.rec.Error("write user", err)
		return 0, fmt.Errorf("%w: %w", connection.ErrIO, err)
	}
	c.rec.User(trace.DirectionOut, p)
	return len(p), nil
}

// Close releases both ports. It is safe to call more than once.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.rec.State(trace.EntityConnection, "open", "closed", "")
	c.logger.Info("serial connection closed", slog.String("system_port", c.device.SystemPort))

	err := c.system.Close()
	if c.user != nil {
		err = errors.Join(err, c.user.Close())
	}
	return err
}

func writeAll(p Port, data []byte) error {
	for len(data) > 0 {
		n, err := p.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// Compile-time interface satisfaction check.
var _ connection.Connection = (*Connection)(nil)
