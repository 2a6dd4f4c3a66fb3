package trace

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/v5link-protocol/v5link-go/pkg/connection"
)

func newBufferedSlog() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), &buf
}

func TestSlogAdapterPacketEvent(t *testing.T) {
	logger, buf := newBufferedSlog()
	adapter := NewSlogAdapter(logger)

	adapter.Log(Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-slog",
		Direction:    DirectionOut,
		Category:     CategoryPacket,
		Transport:    connection.KindWired,
		Device:       "/dev/ttyACM0",
		Packet:       &PacketEvent{Size: 24},
	})

	out := buf.String()
	for _, want := range []string{"conn-slog", "direction=OUT", "category=PACKET", "transport=WIRED", "frame_size=24"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSlogAdapterErrorEvent(t *testing.T) {
	logger, buf := newBufferedSlog()
	adapter := NewSlogAdapter(logger)

	adapter.Log(Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-slog",
		Category:     CategoryError,
		Error:        &ErrorEventData{Message: "pin rejected", Context: "pairing"},
	})

	out := buf.String()
	if !strings.Contains(out, "pin rejected") || !strings.Contains(out, "error_context=pairing") {
		t.Errorf("output missing error details:\n%s", out)
	}
}

func TestSlogAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	adapter := NewSlogAdapter(slog.New(handler))

	adapter.Log(Event{ConnectionID: "quiet", Category: CategoryPacket})

	if buf.Len() != 0 {
		t.Errorf("debug event emitted at info level:\n%s", buf.String())
	}
}
