package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/v5link-protocol/v5link-go/pkg/connection"
)

// settings are the resolved connection parameters for one command run.
// Defaults are overlaid by the config file, then by flags set
// explicitly on the command line.
type settings struct {
	Port       string
	BLEAddress string
	BaudRate   int
	Timeout    time.Duration
	Retries    int
	TraceFile  string
	LogLevel   slog.Level
	Wait       bool
}

func defaultSettings() settings {
	return settings{
		Timeout:  connection.DefaultTimeout,
		Retries:  connection.DefaultRetries,
		LogLevel: slog.LevelWarn,
	}
}

// fileConfig maps config.toml keys onto settings.
type fileConfig struct {
	Port       string `toml:"port"`
	BLEAddress string `toml:"ble_address"`
	BaudRate   int    `toml:"baud_rate"`
	Timeout    string `toml:"timeout"`
	Retries    int    `toml:"retries"`
	TraceFile  string `toml:"trace_file"`
	LogLevel   string `toml:"log_level"`
}

// defaultConfigPath returns ~/.config/v5ctl/config.toml, or "" when no
// home directory is known.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "v5ctl", "config.toml")
}

// loadConfig overlays the keys present in the TOML file at path onto s.
// Absent keys leave s untouched.
func loadConfig(path string, s *settings) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("port") {
		s.Port = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("ble_address") {
		s.BLEAddress = strings.TrimSpace(raw.BLEAddress)
	}
	if meta.IsDefined("baud_rate") {
		s.BaudRate = raw.BaudRate
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return fmt.Errorf("load config: timeout: %w", err)
		}
		s.Timeout = d
	}
	if meta.IsDefined("retries") {
		s.Retries = raw.Retries
	}
	if meta.IsDefined("trace_file") {
		s.TraceFile = strings.TrimSpace(raw.TraceFile)
	}
	if meta.IsDefined("log_level") {
		lvl, err := parseLogLevel(raw.LogLevel)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		s.LogLevel = lvl
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s (use: debug, info, warn, error)", s)
	}
}

// connectFlags registers the shared connection flags on a command's
// flag set.
type connectFlags struct {
	fs *flag.FlagSet

	configPath string
	port       string
	ble        string
	baud       int
	timeout    time.Duration
	retries    int
	traceFile  string
	logLevel   string
	wait       bool
}

func newConnectFlags(fs *flag.FlagSet) *connectFlags {
	f := &connectFlags{fs: fs}
	fs.StringVar(&f.configPath, "config", "", "Configuration file path (default ~/.config/v5ctl/config.toml)")
	fs.StringVar(&f.port, "port", "", "Serial port name or substring (default: first discovered device)")
	fs.StringVar(&f.ble, "ble", "", "Bluetooth device address; connects wireless instead of serial")
	fs.IntVar(&f.baud, "baud", 0, "Serial baud rate (default 115200)")
	fs.DurationVar(&f.timeout, "timeout", 0, "Single exchange timeout (default 500ms)")
	fs.IntVar(&f.retries, "retries", 0, "Exchange attempts before giving up (default 5)")
	fs.StringVar(&f.traceFile, "trace", "", "Write a CBOR event capture to this file")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (default warn)")
	fs.BoolVar(&f.wait, "wait", false, "Wait for a device to appear instead of failing")
	return f
}

// resolve builds the effective settings. The config file is optional
// unless named explicitly with -config.
func (f *connectFlags) resolve() (settings, error) {
	s := defaultSettings()

	path := f.configPath
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}
	if path != "" {
		if err := loadConfig(path, &s); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return settings{}, err
			}
		}
	}

	var flagErr error
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "port":
			s.Port = f.port
		case "ble":
			s.BLEAddress = f.ble
		case "baud":
			s.BaudRate = f.baud
		case "timeout":
			s.Timeout = f.timeout
		case "retries":
			s.Retries = f.retries
		case "trace":
			s.TraceFile = f.traceFile
		case "log-level":
			lvl, err := parseLogLevel(f.logLevel)
			if err != nil {
				flagErr = err
				return
			}
			s.LogLevel = lvl
		case "wait":
			s.Wait = f.wait
		}
	})
	if flagErr != nil {
		return settings{}, flagErr
	}

	return s, nil
}

// newLogger builds the operational logger for the resolved level.
// Output goes to stderr so command results stay clean on stdout.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
