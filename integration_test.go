package v5link_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v5link-protocol/v5link-go/internal/testharness/mock"
	"github.com/v5link-protocol/v5link-go/pkg/cdc"
	"github.com/v5link-protocol/v5link-go/pkg/cdc2"
	"github.com/v5link-protocol/v5link-go/pkg/commands"
	"github.com/v5link-protocol/v5link-go/pkg/connection"
	"github.com/v5link-protocol/v5link-go/pkg/trace"
	"github.com/v5link-protocol/v5link-go/pkg/wire"
)

// versionReplyFrame builds the reply a brain sends to a system version
// query.
func versionReplyFrame(t *testing.T, v wire.Version, product cdc.ProductType, flags byte) []byte {
	t.Helper()
	body, err := v.Encode()
	require.NoError(t, err)
	body = append(body, byte(product), flags)
	frame, err := cdc.EncodeReply(cdc.IDSystemVersion, body)
	require.NoError(t, err)
	return frame
}

// TestE2E_SystemVersion runs a full version query through the command,
// handshake, envelope, and codec layers over a scripted connection.
func TestE2E_SystemVersion(t *testing.T) {
	ctx := context.Background()
	conn := mock.NewConnection(connection.KindWired)
	conn.Replies = []mock.Reply{
		{Frame: versionReplyFrame(t, wire.Version{Major: 1, Minor: 1, Build: 4, Beta: 19}, cdc.ProductBrain, 0)},
	}

	reply, err := connection.Execute(ctx, conn, commands.GetSystemVersion{})
	require.NoError(t, err)
	assert.Equal(t, cdc.ProductBrain, reply.ProductType)
	assert.Equal(t, "1.1.4-b19", reply.Version.String())

	// The request on the wire is a framed device-bound packet.
	require.Len(t, conn.Sent, 1)
	sent := conn.Sent[0]
	assert.Equal(t, wire.DeviceBoundMagic[:], sent[:4])
	assert.Equal(t, cdc.IDSystemVersion, sent[4])
}

// TestE2E_HandshakeRecoversFromCorruption verifies that one corrupted
// reply costs one retry, not the exchange.
func TestE2E_HandshakeRecoversFromCorruption(t *testing.T) {
	ctx := context.Background()
	good := versionReplyFrame(t, wire.Version{Major: 1, Minor: 0, Build: 0, Beta: 0}, cdc.ProductController, 0x02)
	conn := mock.NewConnection(connection.KindController)
	conn.Replies = []mock.Reply{
		{Frame: []byte{0xAA, 0x55, 0xFF}}, // wrong ID, decode fails
		{Frame: good},
	}

	reply, err := connection.Execute(ctx, conn, commands.GetSystemVersion{})
	require.NoError(t, err)
	assert.Equal(t, 2, conn.Sends(), "corrupted reply should cost exactly one retry")
	assert.Equal(t, cdc.ProductController, reply.ProductType)
	assert.True(t, reply.Tethered())
}

// TestE2E_KeyValueRoundTrip writes and reads back a key-value entry
// over the extended protocol, exercising the CRC-protected envelopes
// in both directions.
func TestE2E_KeyValueRoundTrip(t *testing.T) {
	ctx := context.Background()
	writeAck, err := cdc2.EncodeReply(cdc2.IDWriteKeyValue, cdc2.AckSuccess, nil)
	require.NoError(t, err)
	readReply, err := cdc2.EncodeReply(cdc2.IDReadKeyValue, cdc2.AckSuccess, append([]byte("clawbot mk2"), 0))
	require.NoError(t, err)

	conn := mock.NewConnection(connection.KindWired)
	conn.Replies = []mock.Reply{{Frame: writeAck}, {Frame: readReply}}

	_, err = connection.Execute(ctx, conn, commands.WriteKeyValue{Key: "robot_name", Value: "clawbot mk2"})
	require.NoError(t, err)

	value, err := connection.Execute(ctx, conn, commands.ReadKeyValue{Key: "robot_name"})
	require.NoError(t, err)
	assert.Equal(t, "clawbot mk2", value)

	require.Len(t, conn.Sent, 2)
	for _, sent := range conn.Sent {
		assert.Equal(t, wire.DeviceBoundMagic[:], sent[:4])
		assert.Equal(t, cdc2.ID, sent[4])
	}
	assert.Equal(t, cdc2.IDWriteKeyValue, conn.Sent[0][5])
	assert.Equal(t, cdc2.IDReadKeyValue, conn.Sent[1][5])
}

// TestE2E_NackNotRetried verifies that a failure acknowledgement is a
// clean answer: it surfaces as a NackError after a single exchange
// instead of burning the retry budget.
func TestE2E_NackNotRetried(t *testing.T) {
	ctx := context.Background()
	frame, err := cdc2.EncodeReply(cdc2.IDWriteKeyValue, cdc2.NackStorageFull, nil)
	require.NoError(t, err)

	conn := mock.NewConnection(connection.KindWired)
	conn.Replies = []mock.Reply{{Frame: frame}}

	_, err = connection.Execute(ctx, conn, commands.WriteKeyValue{Key: "robot_name", Value: "x"})
	var nack *cdc2.NackError
	require.ErrorAs(t, err, &nack)
	assert.Equal(t, cdc2.NackStorageFull, nack.Code)
	assert.Equal(t, 1, conn.Sends(), "a nacked exchange must not be retried")
}

// TestE2E_SendFailureShortCircuits verifies that a transport write
// failure aborts the handshake immediately.
func TestE2E_SendFailureShortCircuits(t *testing.T) {
	ctx := context.Background()
	broken := errors.New("cable yanked")
	conn := mock.NewConnection(connection.KindWired)
	conn.SendErrs = []error{broken}

	_, err := connection.Execute(ctx, conn, commands.GetSystemVersion{})
	require.ErrorIs(t, err, broken)
	assert.Equal(t, 1, conn.Sends())
	assert.Equal(t, 0, conn.Receives())
}

// TestE2E_WirelessUserWriteRefused verifies the user channel write
// restriction on radio-backed transports.
func TestE2E_WirelessUserWriteRefused(t *testing.T) {
	ctx := context.Background()
	for _, kind := range []connection.Kind{connection.KindController, connection.KindBluetooth} {
		conn := mock.NewConnection(kind)
		_, err := conn.WriteUser(ctx, []byte("hello"))
		assert.ErrorIs(t, err, connection.ErrNoWriteOnWireless, "kind %s", kind)
	}
}

// TestE2E_TraceCapture records events through a Recorder into a capture
// file and reads them back, the way v5ctl -trace and v5trace view do.
func TestE2E_TraceCapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.v5log")
	logger, err := trace.NewFileLogger(path)
	require.NoError(t, err)

	frame := versionReplyFrame(t, wire.Version{Major: 1, Minor: 1, Build: 4, Beta: 19}, cdc.ProductBrain, 0)
	rec := &trace.Recorder{
		Logger:       logger,
		ConnectionID: "e2e-connection",
		Transport:    connection.KindWired,
		Device:       "/dev/ttyACM0",
	}
	rec.Packet(trace.DirectionIn, frame)
	rec.Error("decode", connection.ErrTimeout)
	require.NoError(t, logger.Close())

	reader, err := trace.NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	first, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, trace.CategoryPacket, first.Category)
	assert.Equal(t, "e2e-connection", first.ConnectionID)
	require.NotNil(t, first.Packet)
	assert.Equal(t, frame, first.Packet.Data)
	assert.WithinDuration(t, time.Now(), first.Timestamp, time.Minute)

	second, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, trace.CategoryError, second.Category)

	_, err = reader.Next()
	assert.Equal(t, io.EOF, err)
}
