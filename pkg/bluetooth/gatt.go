package bluetooth

import "context"

// DefaultMTU is the ATT MTU assumed when the peripheral reports none.
// Writes carry MTU minus the 3-byte ATT header per operation.
const DefaultMTU = 247

// attHeaderSize is the per-operation ATT overhead subtracted from the
// MTU to get the usable write payload.
const attHeaderSize = 3

// GATT is the characteristic access a connection needs from an
// already-connected peripheral. Characteristics are addressed by UUID
// string; implementations match them case-insensitively.
type GATT interface {
	// Characteristics lists the UUIDs the peripheral's service
	// exposes, lowercased.
	Characteristics() []string

	// Read returns the characteristic's current value.
	Read(ctx context.Context, char string) ([]byte, error)

	// Write writes p to the characteristic in one operation. The
	// caller keeps p within the MTU payload.
	Write(ctx context.Context, char string, p []byte) error

	// Subscribe starts notification delivery for the characteristic.
	// The returned channel carries one notification value per
	// receive; stop ends delivery and closes the channel.
	Subscribe(ctx context.Context, char string) (values <-chan []byte, stop func() error, err error)

	// MTU reports the negotiated ATT MTU, or 0 when unknown.
	MTU() int

	// Close releases the peripheral binding. Active subscriptions
	// are stopped.
	Close() error
}

// writePayload converts an ATT MTU into the usable bytes per write.
func writePayload(mtu int) int {
	if mtu <= attHeaderSize {
		mtu = DefaultMTU
	}
	return mtu - attHeaderSize
}
