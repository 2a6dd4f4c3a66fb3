package serial

import (
	"fmt"
	"io"
	"time"

	goserial "go.bug.st/serial"

	"github.com/v5link-protocol/v5link-go/pkg/connection"
)

// DefaultBaudRate is the line rate both device ports run at.
const DefaultBaudRate = 115200

// Port is the subset of a serial port the connection needs. Production
// ports come from go.bug.st/serial; tests substitute an in-memory
// implementation.
type Port interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds the next Read calls. A timed-out read
	// returns 0 bytes and no error.
	SetReadTimeout(t time.Duration) error
}

func openPort(name string, baud int) (Port, error) {
	mode := &goserial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
	}
	port, err := goserial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", connection.ErrSerial, name, err)
	}
	return port, nil
}
