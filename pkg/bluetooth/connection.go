package bluetooth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/v5link-protocol/v5link-go/pkg/connection"
	"github.com/v5link-protocol/v5link-go/pkg/devices"
	"github.com/v5link-protocol/v5link-go/pkg/trace"
	"github.com/v5link-protocol/v5link-go/pkg/wire"
)

// userReadTimeout bounds a single user channel read when no program
// output is buffered.
const userReadTimeout = 50 * time.Millisecond

// pinLength is the number of digits in a pairing code.
const pinLength = 4

// pairingRequest is the magic written to the pairing characteristic to
// make the brain display a fresh code.
var pairingRequest = []byte{0xFF, 0xFF, 0xFF, 0xFF}

// Options configure an open connection.
type Options struct {
	// Trace receives link capture events. Nil disables capture.
	Trace trace.Logger

	// Logger receives operational logs. Nil discards them.
	Logger *slog.Logger

	// Device labels the peripheral in logs and trace events. Empty
	// falls back to the transport's address, then "ble".
	Device string
}

// Connection is a wireless brain link over GATT. It is owned by a
// single caller; see the connection package for the sharing contract.
//
// The system channel stays locked until Authenticate succeeds.
type Connection struct {
	gatt    GATT
	chars   devices.BluetoothCharacteristics
	payload int
	device  string

	sysRx    <-chan []byte
	sysStop  func() error
	userRx   <-chan []byte
	userStop func() error

	rxBuf   []byte
	userBuf []byte

	rec    *trace.Recorder
	logger *slog.Logger

	authenticated bool
	closed        bool
}

// Open layers the link protocol over an already-bound peripheral. All
// five characteristics must resolve; a missing one fails with
// connection.ErrMissingCharacteristic.
func Open(ctx context.Context, gatt GATT, opts Options) (*Connection, error) {
	manifest, err := devices.Load()
	if err != nil {
		return nil, err
	}
	chars := manifest.Bluetooth.Characteristics

	if err := checkCharacteristics(gatt, chars); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	device := opts.Device
	if device == "" {
		if addr, ok := gatt.(interface{ Address() string }); ok {
			device = addr.Address()
		}
	}
	if device == "" {
		device = "ble"
	}

	sysRx, sysStop, err := gatt.Subscribe(ctx, chars.SystemTx)
	if err != nil {
		return nil, err
	}
	userRx, userStop, err := gatt.Subscribe(ctx, chars.UserTx)
	if err != nil {
		sysStop()
		return nil, err
	}

	c := &Connection{
		gatt:     gatt,
		chars:    chars,
		payload:  writePayload(gatt.MTU()),
		device:   device,
		sysRx:    sysRx,
		sysStop:  sysStop,
		userRx:   userRx,
		userStop: userStop,
		rec: &trace.Recorder{
			Logger:       opts.Trace,
			ConnectionID: uuid.NewString(),
			Transport:    connection.KindBluetooth,
			Device:       device,
		},
		logger: logger,
	}
	c.rec.State(trace.EntityConnection, "", "open", "")
	logger.Info("bluetooth connection opened",
		slog.String("device", device),
		slog.Int("write_payload", c.payload))
	return c, nil
}

// checkCharacteristics verifies the peripheral exposes every logical
// channel the manifest names.
func checkCharacteristics(gatt GATT, chars devices.BluetoothCharacteristics) error {
	have := make(map[string]bool)
	for _, id := range gatt.Characteristics() {
		have[strings.ToLower(id)] = true
	}

	wanted := chars.All()
	roles := make([]string, 0, len(wanted))
	for role := range wanted {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	for _, role := range roles {
		if !have[strings.ToLower(wanted[role])] {
			return fmt.Errorf("%w: %s (%s)", connection.ErrMissingCharacteristic, role, wanted[role])
		}
	}
	return nil
}

// Kind reports the transport class.
func (c *Connection) Kind() connection.Kind {
	return connection.KindBluetooth
}

// RequestPairing makes the brain display a four digit pairing code.
func (c *Connection) RequestPairing(ctx context.Context) error {
	if c.closed {
		return connection.ErrNotConnected
	}
	if err := c.gatt.Write(ctx, c.chars.Pairing, pairingRequest); err != nil {
		c.rec.Error("request pairing", err)
		return fmt.Errorf("%w: requesting pairing code: %w", connection.ErrIO, err)
	}
	c.rec.State(trace.EntityPairing, "", "pending", "")
	c.logger.Info("pairing code requested", slog.String("device", c.device))
	return nil
}

// Authenticate submits the code shown on the brain's screen. On
// success the system channel unlocks; a rejected code fails with
// connection.ErrIncorrectPin.
func (c *Connection) Authenticate(ctx context.Context, pin string) error {
	if c.closed {
		return connection.ErrNotConnected
	}
	code, err := pinBytes(pin)
	if err != nil {
		return err
	}

	if err := c.gatt.Write(ctx, c.chars.Pairing, code); err != nil {
		c.rec.Error("authenticate", err)
		return fmt.Errorf("%w: submitting pairing code: %w", connection.ErrIO, err)
	}
	echo, err := c.gatt.Read(ctx, c.chars.Pairing)
	if err != nil {
		c.rec.Error("authenticate", err)
		return fmt.Errorf("%w: confirming pairing code: %w", connection.ErrIO, err)
	}
	if !bytes.Equal(echo, code) {
		c.rec.State(trace.EntityPairing, "pending", "rejected", "incorrect pin")
		return connection.ErrIncorrectPin
	}

	c.authenticated = true
	c.rec.State(trace.EntityPairing, "pending", "authenticated", "")
	c.logger.Info("bluetooth connection authenticated", slog.String("device", c.device))
	return nil
}

// pinBytes converts a four digit code string into the byte form the
// pairing characteristic holds.
func pinBytes(pin string) ([]byte, error) {
	if len(pin) != pinLength {
		return nil, fmt.Errorf("%w: code must be %d digits, got %d", connection.ErrIncorrectPin, pinLength, len(pin))
	}
	code := make([]byte, pinLength)
	for i := 0; i < pinLength; i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return nil, fmt.Errorf("%w: code must be digits, got %q", connection.ErrIncorrectPin, pin)
		}
		code[i] = pin[i] - '0'
	}
	return code, nil
}

// systemReady gates system channel use on the connection being open
// and authenticated.
func (c *Connection) systemReady() error {
	if c.closed {
		return connection.ErrNotConnected
	}
	if !c.authenticated {
		return connection.ErrAuthenticationRequired
	}
	return nil
}

// SendPacket encodes pkt and writes the frame to the system channel in
// MTU-sized chunks.
func (c *Connection) SendPacket(ctx context.Context, pkt wire.Encoder) error {
	if err := c.systemReady(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := pkt.Encode()
	if err != nil {
		c.rec.Error("encode", err)
		return fmt.Errorf("%w: %w", connection.ErrEncode, err)
	}
	for off := 0; off < len(data); off += c.payload {
		end := off + c.payload
		if end > len(data) {
			end = len(data)
		}
		if err := c.gatt.Write(ctx, c.chars.SystemRx, data[off:end]); err != nil {
			c.rec.Error("send", err)
			return fmt.Errorf("%w: %w", connection.ErrIO, err)
		}
	}
	c.rec.Packet(trace.DirectionOut, data)
	return nil
}

// ReceivePacket waits up to timeout for one complete frame on the
// system channel and decodes it into into.
func (c *Connection) ReceivePacket(ctx context.Context, into wire.Decoder, timeout time.Duration) error {
	if err := c.systemReady(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = connection.DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

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
		select {
		case data, open := <-c.sysRx:
			if !open {
				return fmt.Errorf("%w: notification stream closed", connection.ErrIO)
			}
			c.rxBuf = append(c.rxBuf, data...)
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return connection.ErrTimeout
		}
	}
}

// ReadUser reads available program output from the user channel.
// Authentication is not required; the brain only notifies after it.
func (c *Connection) ReadUser(ctx context.Context, p []byte) (int, error) {
	if c.closed {
		return 0, connection.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if len(c.userBuf) == 0 {
		timer := time.NewTimer(userReadTimeout)
		defer timer.Stop()
		select {
		case data, open := <-c.userRx:
			if !open {
				return 0, fmt.Errorf("%w: notification stream closed", connection.ErrIO)
			}
			c.userBuf = append(c.userBuf, data...)
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
			return 0, nil
		}
	}

	n := copy(p, c.userBuf)
	c.userBuf = c.userBuf[n:]
	if n > 0 {
		c.rec.User(trace.DirectionIn, p[:n])
	}
	return n, nil
}

// WriteUser always refuses: program input cannot be written over a
// wireless link.
func (c *Connection) WriteUser(ctx context.Context, p []byte) (int, error) {
	if c.closed {
		return 0, connection.ErrNotConnected
	}
	return 0, connection.ErrNoWriteOnWireless
}

// Close stops notification delivery and releases the peripheral. It is
// safe to call more than once.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.rec.State(trace.EntityConnection, "open", "closed", "")
	c.logger.Info("bluetooth connection closed", slog.String("device", c.device))

	return errors.Join(c.sysStop(), c.userStop(), c.gatt.Close())
}

// Compile-time interface satisfaction check.
var _ connection.Connection = (*Connection)(nil)
