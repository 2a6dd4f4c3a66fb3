package trace

import (
	"time"

	"github.com/v5link-protocol/v5link-go/pkg/connection"
)

// MaxFrameDataSize is the largest payload recorded verbatim in an
// event. Longer frames are truncated and flagged.
const MaxFrameDataSize = 4096

// Event is one captured link event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates traffic flow.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"4,keyasint"`

	// Transport is the connection's transport class.
	Transport connection.Kind `cbor:"5,keyasint,omitempty"`

	// Device identifies the peer (port name or BLE address).
	Device string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Packet      *PacketEvent      `cbor:"7,keyasint,omitempty"`
	UserIO      *UserIOEvent      `cbor:"8,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"9,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"10,keyasint,omitempty"`
}

// Direction indicates the direction of traffic flow.
type Direction uint8

const (
	// DirectionIn indicates device-to-host traffic.
	DirectionIn Direction = 0
	// DirectionOut indicates host-to-device traffic.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryPacket indicates a framed system channel packet.
	CategoryPacket Category = 0
	// CategoryUser indicates raw user channel bytes.
	CategoryUser Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryPacket:
		return "PACKET"
	case CategoryUser:
		return "USER"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// PacketEvent captures one framed system channel packet.
type PacketEvent struct {
	// Size is the full frame size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates whether Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// UserIOEvent captures raw user channel bytes.
type UserIOEvent struct {
	// Size is the transfer size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the transferred bytes (may be truncated).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates whether Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures connection and pairing lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// EntityConnection indicates a connection state change.
	EntityConnection StateEntity = 0
	// EntityPairing indicates a pairing state change.
	EntityPairing StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case EntityConnection:
		return "CONNECTION"
	case EntityPairing:
		return "PAIRING"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures an error at any point in the link.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}

func truncate(data []byte) ([]byte, bool) {
	if len(data) > MaxFrameDataSize {
		return data[:MaxFrameDataSize], true
	}
	return data, false
}
