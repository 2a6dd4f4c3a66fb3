package trace

import (
	"time"

	"github.com/v5link-protocol/v5link-go/pkg/connection"
)

// Recorder binds a Logger to one connection's identity so transports
// emit events without repeating it. A nil Recorder, and a Recorder
// with a nil Logger, discard everything.
type Recorder struct {
	// Logger receives the events.
	Logger Logger

	// ConnectionID identifies the connection in every event.
	ConnectionID string

	// Transport is the connection's transport class.
	Transport connection.Kind

	// Device identifies the peer (port name or BLE address).
	Device string
}

func (r *Recorder) emit(e Event) {
	if r == nil || r.Logger == nil {
		return
	}
	e.Timestamp = time.Now()
	e.ConnectionID = r.ConnectionID
	e.Transport = r.Transport
	e.Device = r.Device
	r.Logger.Log(e)
}

// Packet records a framed system channel packet. Frames longer than
// MaxFrameDataSize are recorded truncated.
func (r *Recorder) Packet(dir Direction, frame []byte) {
	data, truncated := truncate(frame)
	r.emit(Event{
		Direction: dir,
		Category:  CategoryPacket,
		Packet: &PacketEvent{
			Size:      len(frame),
			Data:      data,
			Truncated: truncated,
		},
	})
}

// User records a user channel transfer.
func (r *Recorder) User(dir Direction, data []byte) {
	recorded, truncated := truncate(data)
	r.emit(Event{
		Direction: dir,
		Category:  CategoryUser,
		UserIO: &UserIOEvent{
			Size:      len(data),
			Data:      recorded,
			Truncated: truncated,
		},
	})
}

// State records a lifecycle transition.
func (r *Recorder) State(entity StateEntity, oldState, newState, reason string) {
	r.emit(Event{
		Category: CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   entity,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

// Error records a failure. context names the operation that failed.
func (r *Recorder) Error(context string, err error) {
	if err == nil {
		return
	}
	r.emit(Event{
		Category: CategoryError,
		Error: &ErrorEventData{
			Message: err.Error(),
			Context: context,
		},
	})
}
