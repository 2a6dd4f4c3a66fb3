// Package commands implements the v5trace CLI commands.
package commands

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/v5link-protocol/v5link-go/pkg/cdc"
	"github.com/v5link-protocol/v5link-go/pkg/cdc2"
	"github.com/v5link-protocol/v5link-go/pkg/connection"
	"github.com/v5link-protocol/v5link-go/pkg/trace"
	"github.com/v5link-protocol/v5link-go/pkg/wire"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event trace.Event) {
	// Header line: timestamp [conn:id] DIRECTION TRANSPORT Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)

	var typeLabel string
	switch {
	case event.Packet != nil:
		typeLabel = "Packet"
	case event.UserIO != nil:
		typeLabel = "UserIO"
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	// Direction only means something for traffic events.
	dir := "-"
	if event.Packet != nil || event.UserIO != nil {
		dir = event.Direction.String()
	}

	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n", ts, connID, dir, event.Transport, typeLabel)

	switch {
	case event.Packet != nil:
		formatPacketDetails(w, event.Direction, event.Packet)
	case event.UserIO != nil:
		formatUserDetails(w, event.UserIO)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatPacketDetails writes packet-specific details.
func formatPacketDetails(w io.Writer, dir trace.Direction, p *trace.PacketEvent) {
	if label := describeFrame(dir, p.Data); label != "" {
		fmt.Fprintf(w, "  Type: %s\n", label)
	}
	fmt.Fprintf(w, "  Size: %d bytes\n", p.Size)
	if len(p.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(p.Data))
		if p.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

// formatUserDetails writes user channel transfer details. User data is
// usually program stdio so it renders as quoted text.
func formatUserDetails(w io.Writer, u *trace.UserIOEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", u.Size)
	if len(u.Data) > 0 {
		fmt.Fprintf(w, "  Text: %q", u.Data)
		if u.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *trace.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, e *trace.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", e.Message)
	if e.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", e.Context)
	}
}

// describeFrame names the protocol packet a captured frame carries.
// Frames the capture cannot recognize yield "".
func describeFrame(dir trace.Direction, data []byte) string {
	var id byte
	var tail []byte
	switch {
	case dir == trace.DirectionOut && len(data) >= 5 &&
		bytes.Equal(data[:4], wire.DeviceBoundMagic[:]):
		id, tail = data[4], data[5:]
	case dir == trace.DirectionIn && len(data) >= 3 &&
		data[0] == wire.HostBoundMagic[0] && data[1] == wire.HostBoundMagic[1]:
		id, tail = data[2], data[3:]
	default:
		return ""
	}

	switch id {
	case cdc.IDQuery1:
		return "QUERY1"
	case cdc.IDSystemVersion:
		return "SYSTEM_VERSION"
	case cdc2.ID:
		// Fall through to extended decoding below.
	default:
		return fmt.Sprintf("ID 0x%02X", id)
	}

	payload := skipSizePrefix(tail)
	if len(payload) == 0 {
		return "EXTENDED"
	}
	label := "EXTENDED " + extendedName(payload[0])
	if dir == trace.DirectionIn && len(payload) >= 2 {
		label += " " + cdc2.AckCode(payload[1]).String()
	}
	return label
}

// skipSizePrefix steps over the variable-width size that follows the
// packet ID. The top bit of the first byte marks the wide form.
func skipSizePrefix(tail []byte) []byte {
	if len(tail) == 0 {
		return nil
	}
	if tail[0]&0x80 != 0 {
		if len(tail) < 2 {
			return nil
		}
		return tail[2:]
	}
	return tail[1:]
}

func extendedName(ext byte) string {
	switch ext {
	case cdc2.IDGetSystemFlags:
		return "GET_SYSTEM_FLAGS"
	case cdc2.IDGetSystemStatus:
		return "GET_SYSTEM_STATUS"
	case cdc2.IDReadKeyValue:
		return "READ_KV"
	case cdc2.IDWriteKeyValue:
		return "WRITE_KV"
	default:
		return fmt.Sprintf("0x%02X", ext)
	}
}

// ParseDirectionFlag parses a direction string from a command-line flag
// (case-insensitive).
func ParseDirectionFlag(s string) (trace.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return trace.DirectionIn, nil
	case "out":
		return trace.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from a command-line flag
// (case-insensitive).
func ParseCategoryFlag(s string) (trace.Category, error) {
	switch strings.ToLower(s) {
	case "packet":
		return trace.CategoryPacket, nil
	case "user":
		return trace.CategoryUser, nil
	case "state":
		return trace.CategoryState, nil
	case "error":
		return trace.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be packet, user, state, or error)", s)
	}
}

// ParseTransportFlag parses a transport string from a command-line flag
// (case-insensitive).
func ParseTransportFlag(s string) (connection.Kind, error) {
	switch strings.ToLower(s) {
	case "wired":
		return connection.KindWired, nil
	case "controller":
		return connection.KindController, nil
	case "bluetooth", "ble":
		return connection.KindBluetooth, nil
	default:
		return 0, fmt.Errorf("invalid transport: %s (must be wired, controller, or bluetooth)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter trace.Filter, output io.Writer) error {
	reader, err := trace.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		formatEvent(output, event)
	}

	return nil
}
