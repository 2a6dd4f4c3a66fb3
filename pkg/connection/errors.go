package connection

import (
	"errors"

	"github.com/v5link-protocol/v5link-go/pkg/wire"
)

// Connection errors. Transport implementations wrap their native
// failures in these sentinels; callers classify with errors.Is.
var (
	// ErrIO indicates a transport read or write failure.
	ErrIO = errors.New("i/o failure")

	// ErrEncode indicates a packet could not be encoded for transmission.
	ErrEncode = errors.New("packet encoding failed")

	// ErrDecode indicates received bytes could not be decoded as the
	// expected packet.
	ErrDecode = errors.New("packet decoding failed")

	// ErrTimeout indicates no complete reply arrived in time.
	ErrTimeout = errors.New("connection timed out")

	// ErrSerial indicates a serial port failure.
	ErrSerial = errors.New("serial port failure")

	// ErrBluetooth indicates a bluetooth stack failure.
	ErrBluetooth = errors.New("bluetooth failure")

	// ErrNoWriteOnWireless indicates a user channel write on a
	// connection that reaches the device over a radio.
	ErrNoWriteOnWireless = errors.New("user port writes require a wired connection")

	// ErrInvalidDevice indicates the peer is not a supported device.
	ErrInvalidDevice = errors.New("invalid device")

	// ErrNotConnected indicates an operation on a closed or never
	// opened connection.
	ErrNotConnected = errors.New("not connected")

	// ErrNoBluetoothAdapter indicates no usable bluetooth adapter.
	ErrNoBluetoothAdapter = errors.New("no bluetooth adapter")

	// ErrMissingCharacteristic indicates the peer lacks a required
	// GATT characteristic.
	ErrMissingCharacteristic = errors.New("missing gatt characteristic")

	// ErrIncorrectPin indicates a failed pairing code exchange.
	ErrIncorrectPin = errors.New("incorrect pairing pin")

	// ErrAuthenticationRequired indicates an operation that needs a
	// completed pairing exchange first.
	ErrAuthenticationRequired = errors.New("authentication required")
)

// ErrInvalidMagic aliases the wire-level sentinel so the whole taxonomy
// is matchable from this package.
var ErrInvalidMagic = wire.ErrInvalidMagic
