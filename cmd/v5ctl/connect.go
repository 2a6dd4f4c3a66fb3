package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/v5link-protocol/v5link-go/pkg/bluetooth"
	"github.com/v5link-protocol/v5link-go/pkg/connection"
	"github.com/v5link-protocol/v5link-go/pkg/serial"
	"github.com/v5link-protocol/v5link-go/pkg/trace"
)

// openConnection dials the configured transport: a Bluetooth address
// when one is set, otherwise the first matching serial device. The
// returned cleanup closes the connection and any trace capture file.
func openConnection(ctx context.Context, s settings) (connection.Connection, func(), error) {
	logger := newLogger(s.LogLevel)

	var tracer trace.Logger
	var closeTrace func() error
	if s.TraceFile != "" {
		fl, err := trace.NewFileLogger(s.TraceFile)
		if err != nil {
			return nil, nil, err
		}
		tracer = fl
		closeTrace = fl.Close
	}

	conn, err := dial(ctx, s, tracer, logger)
	if err != nil {
		if closeTrace != nil {
			closeTrace()
		}
		return nil, nil, err
	}

	cleanup := func() {
		if err := conn.Close(); err != nil {
			logger.Error("closing connection", slog.Any("error", err))
		}
		if closeTrace != nil {
			if err := closeTrace(); err != nil {
				logger.Error("closing trace capture", slog.Any("error", err))
			}
		}
	}
	return conn, cleanup, nil
}

func dial(ctx context.Context, s settings, tracer trace.Logger, logger *slog.Logger) (connection.Connection, error) {
	if s.BLEAddress != "" {
		return dialBluetooth(ctx, s, tracer, logger)
	}
	return dialSerial(ctx, s, tracer, logger)
}

func dialSerial(ctx context.Context, s settings, tracer trace.Logger, logger *slog.Logger) (connection.Connection, error) {
	device, err := findDevice(ctx, s)
	if err != nil {
		return nil, err
	}
	return serial.Open(device, serial.Options{
		BaudRate: s.BaudRate,
		Trace:    tracer,
		Logger:   logger,
	})
}

// findDevice picks a discovered serial device, narrowed by the port
// setting when present. With wait enabled it polls until one appears.
func findDevice(ctx context.Context, s settings) (serial.Device, error) {
	backoff := connection.NewBackoff()
	for {
		found, err := serial.Find()
		if err != nil {
			return serial.Device{}, err
		}
		if d, ok := pickDevice(found, s.Port); ok {
			return d, nil
		}
		if !s.Wait {
			if s.Port != "" {
				return serial.Device{}, fmt.Errorf("%w: no device matching %q", connection.ErrInvalidDevice, s.Port)
			}
			return serial.Device{}, fmt.Errorf("%w: no device found", connection.ErrInvalidDevice)
		}
		select {
		case <-ctx.Done():
			return serial.Device{}, ctx.Err()
		case <-time.After(backoff.Next()):
		}
	}
}

// pickDevice returns the first device whose system port contains the
// filter, or the first device outright when the filter is empty.
func pickDevice(found []serial.Device, port string) (serial.Device, bool) {
	for _, d := range found {
		if port == "" || strings.Contains(d.SystemPort, port) {
			return d, true
		}
	}
	return serial.Device{}, false
}

func dialBluetooth(ctx context.Context, s settings, tracer trace.Logger, logger *slog.Logger) (connection.Connection, error) {
	gatt, err := bluetooth.NewBlueZ(ctx, s.BLEAddress)
	if err != nil {
		return nil, err
	}
	conn, err := bluetooth.Open(ctx, gatt, bluetooth.Options{
		Trace:  tracer,
		Logger: logger,
		Device: s.BLEAddress,
	})
	if err != nil {
		return nil, err
	}
	if err := pairBluetooth(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// pairBluetooth runs the pairing dialog: ask the brain to display its
// code, read it from the operator, submit it.
func pairBluetooth(ctx context.Context, conn *bluetooth.Connection) error {
	if err := conn.RequestPairing(ctx); err != nil {
		return err
	}

	fmt.Print("Enter the 4-digit code shown on the brain: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading code: %w", err)
	}
	return conn.Authenticate(ctx, strings.TrimSpace(line))
}
