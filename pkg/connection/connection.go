package connection

import (
	"context"
	"time"

	"github.com/v5link-protocol/v5link-go/pkg/wire"
)

// Kind identifies the transport class of a connection.
type Kind uint8

const (
	// KindWired is a USB serial link directly to a brain.
	KindWired Kind = 0

	// KindController is a USB serial link to a controller, bridged to
	// the brain over the controller's radio.
	KindController Kind = 1

	// KindBluetooth is a BLE GATT link to a brain.
	KindBluetooth Kind = 2
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindWired:
		return "WIRED"
	case KindController:
		return "CONTROLLER"
	case KindBluetooth:
		return "BLUETOOTH"
	default:
		return "UNKNOWN"
	}
}

// Wireless reports whether packets traverse a radio hop.
func (k Kind) Wireless() bool {
	return k != KindWired
}

// Connection is a packet-level link to a device. Implementations hold
// the open transport and nothing else; no state persists across
// connections.
type Connection interface {
	// Kind reports the transport class.
	Kind() Kind

	// SendPacket encodes pkt and transmits it on the system channel.
	// Encoding failures surface as ErrEncode; nothing is transmitted
	// when encoding fails.
	SendPacket(ctx context.Context, pkt wire.Encoder) error

	// ReceivePacket waits up to timeout for the next complete system
	// packet and decodes it into into. Expiry surfaces as ErrTimeout.
	ReceivePacket(ctx context.Context, into wire.Decoder, timeout time.Duration) error

	// ReadUser reads program output from the user channel.
	ReadUser(ctx context.Context, p []byte) (int, error)

	// WriteUser writes program input to the user channel. Wireless
	// connections refuse with ErrNoWriteOnWireless without
	// transmitting anything.
	WriteUser(ctx context.Context, p []byte) (int, error)

	// Close releases the transport. Operations after Close fail with
	// ErrNotConnected.
	Close() error
}

// Command is a typed device interaction: one or more packet exchanges
// producing a single output.
type Command[Output any] interface {
	// Execute runs the interaction over conn.
	Execute(ctx context.Context, conn Connection) (Output, error)
}

// Execute runs cmd over conn. It exists so call sites read uniformly
// regardless of the command's concrete type.
func Execute[Output any](ctx context.Context, conn Connection, cmd Command[Output]) (Output, error) {
	return cmd.Execute(ctx, conn)
}
