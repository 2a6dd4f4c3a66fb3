package connection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/v5link-protocol/v5link-go/pkg/wire"
)

// Handshake defaults.
const (
	// DefaultTimeout bounds each receive attempt.
	DefaultTimeout = 500 * time.Millisecond

	// DefaultRetries is the number of send+receive attempts.
	DefaultRetries = 5
)

// HandshakeConfig bounds a handshake exchange.
type HandshakeConfig struct {
	// Timeout bounds each receive attempt (default: 500ms).
	Timeout time.Duration

	// Retries is the total number of send+receive attempts
	// (default: 5). Zero attempts nothing and yields ErrTimeout.
	Retries int

	// Logger receives per-attempt warnings. Nil discards them.
	Logger *slog.Logger
}

// DefaultHandshakeConfig returns the exchange bounds commands use
// unless overridden.
func DefaultHandshakeConfig() HandshakeConfig {
	return HandshakeConfig{
		Timeout: DefaultTimeout,
		Retries: DefaultRetries,
	}
}

// Handshake sends pkt and decodes the reply into into, retrying the
// whole exchange up to cfg.Retries times.
//
// Send and encode failures abort immediately. Receive, decode, and
// timeout failures are retried; after the final attempt the most
// recent of them is returned. Context cancellation aborts between
// attempts.
func Handshake(ctx context.Context, conn Connection, pkt wire.Encoder, into wire.Decoder, cfg HandshakeConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	lastErr := error(ErrTimeout)
	for attempt := 1; attempt <= cfg.Retries; attempt++ {
		if err := conn.SendPacket(ctx, pkt); err != nil {
			return err
		}

		err := conn.ReceivePacket(ctx, into, cfg.Timeout)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		logger.Warn("handshake attempt failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("retries", cfg.Retries),
			slog.String("error", err.Error()))
		lastErr = err
	}

	logger.Error("handshake exhausted retries",
		slog.Int("retries", cfg.Retries),
		slog.String("error", lastErr.Error()))
	return lastErr
}
