// Package commands provides typed device interactions over a
// connection. Each command runs a handshake exchange, surfaces a
// failure acknowledgement as a *cdc2.NackError, and returns a typed
// result. The zero value of every command uses the default exchange
// bounds; set Handshake to override them.
package commands

import (
	"context"
	"fmt"

	"github.com/v5link-protocol/v5link-go/pkg/cdc"
	"github.com/v5link-protocol/v5link-go/pkg/cdc2"
	"github.com/v5link-protocol/v5link-go/pkg/connection"
	"github.com/v5link-protocol/v5link-go/pkg/wire"
)

// withDefaults fills unset exchange bounds so the zero value of a
// command retries like the documented default.
func withDefaults(cfg connection.HandshakeConfig) connection.HandshakeConfig {
	if cfg.Retries <= 0 {
		cfg.Retries = connection.DefaultRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = connection.DefaultTimeout
	}
	return cfg
}

// GetSystemVersion queries the firmware version and product identity.
type GetSystemVersion struct {
	Handshake connection.HandshakeConfig
}

// Execute runs the query and returns the decoded reply.
func (c GetSystemVersion) Execute(ctx context.Context, conn connection.Connection) (cdc.SystemVersionReply, error) {
	reply := &cdc.SystemVersionReply{}
	pkt := wire.NewHostBound(reply)
	if err := connection.Handshake(ctx, conn, cdc.NewSystemVersion(), &pkt, withDefaults(c.Handshake)); err != nil {
		return cdc.SystemVersionReply{}, err
	}
	return *reply, nil
}

// GetSystemFlags reads the runtime status flag word.
type GetSystemFlags struct {
	Handshake connection.HandshakeConfig
}

// Execute runs the query and returns the flag word.
func (c GetSystemFlags) Execute(ctx context.Context, conn connection.Connection) (uint32, error) {
	reply := cdc2.NewReply(cdc2.IDGetSystemFlags, &cdc2.SystemFlagsReply{})
	pkt := wire.NewHostBound(reply)
	if err := connection.Handshake(ctx, conn, cdc2.NewGetSystemFlags(), &pkt, withDefaults(c.Handshake)); err != nil {
		return 0, err
	}
	payload, err := reply.Result()
	if err != nil {
		return 0, err
	}
	return payload.Flags, nil
}

// GetSystemStatus reads the versions of the running system.
type GetSystemStatus struct {
	Handshake connection.HandshakeConfig
}

// Execute runs the query and returns the decoded version set.
func (c GetSystemStatus) Execute(ctx context.Context, conn connection.Connection) (cdc2.SystemStatusReply, error) {
	reply := cdc2.NewReply(cdc2.IDGetSystemStatus, &cdc2.SystemStatusReply{})
	pkt := wire.NewHostBound(reply)
	if err := connection.Handshake(ctx, conn, cdc2.NewGetSystemStatus(), &pkt, withDefaults(c.Handshake)); err != nil {
		return cdc2.SystemStatusReply{}, err
	}
	payload, err := reply.Result()
	if err != nil {
		return cdc2.SystemStatusReply{}, err
	}
	return *payload, nil
}

// ReadKeyValue reads an entry from the device key-value store.
type ReadKeyValue struct {
	// Key names the entry, at most cdc2.MaxKeyLen bytes.
	Key string

	Handshake connection.HandshakeConfig
}

// Execute runs the read and returns the stored value.
func (c ReadKeyValue) Execute(ctx context.Context, conn connection.Connection) (string, error) {
	cmd, err := cdc2.NewReadKeyValue(c.Key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", connection.ErrEncode, err)
	}
	reply := cdc2.NewReply(cdc2.IDReadKeyValue, &cdc2.ReadKeyValueReply{})
	pkt := wire.NewHostBound(reply)
	if err := connection.Handshake(ctx, conn, cmd, &pkt, withDefaults(c.Handshake)); err != nil {
		return "", err
	}
	payload, err := reply.Result()
	if err != nil {
		return "", err
	}
	return payload.Value, nil
}

// WriteKeyValue writes an entry to the device key-value store.
type WriteKeyValue struct {
	// Key names the entry, at most cdc2.MaxKeyLen bytes.
	Key string

	// Value is the stored content, at most cdc2.MaxValueLen bytes.
	Value string

	Handshake connection.HandshakeConfig
}

// Execute runs the write. The reply carries no payload beyond the
// acknowledgement.
func (c WriteKeyValue) Execute(ctx context.Context, conn connection.Connection) (wire.Empty, error) {
	cmd, err := cdc2.NewWriteKeyValue(c.Key, c.Value)
	if err != nil {
		return wire.Empty{}, fmt.Errorf("%w: %w", connection.ErrEncode, err)
	}
	reply := cdc2.NewReply(cdc2.IDWriteKeyValue, &wire.Empty{})
	pkt := wire.NewHostBound(reply)
	if err := connection.Handshake(ctx, conn, cmd, &pkt, withDefaults(c.Handshake)); err != nil {
		return wire.Empty{}, err
	}
	if _, err := reply.Result(); err != nil {
		return wire.Empty{}, err
	}
	return wire.Empty{}, nil
}

// Compile-time interface satisfaction checks.
var (
	_ connection.Command[cdc.SystemVersionReply] = GetSystemVersion{}
	_ connection.Command[uint32]                 = GetSystemFlags{}
	_ connection.Command[cdc2.SystemStatusReply] = GetSystemStatus{}
	_ connection.Command[string]                 = ReadKeyValue{}
	_ connection.Command[wire.Empty]             = WriteKeyValue{}
)
