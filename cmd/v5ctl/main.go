// Command v5ctl talks to VEX V5 devices over USB serial or Bluetooth.
//
// Usage:
//
//	v5ctl <command> [flags]
//
// Commands:
//
//	list      List connected V5 devices
//	version   Show device firmware versions
//	kv        Read or write a device key-value entry
//	terminal  Open an interactive console on the user port
//
// Examples:
//
//	# List plugged-in devices
//	v5ctl list
//
//	# Wait for a brain to enumerate, then show its firmware
//	v5ctl version -wait
//
//	# Read the robot name over a specific port
//	v5ctl kv get -port /dev/ttyACM0 robot_name
//
//	# Rename the robot
//	v5ctl kv set robot_name "clawbot mk2"
//
//	# Watch program output over Bluetooth, capturing frames
//	v5ctl terminal -ble A0:B1:C2:D3:E4:F5 -trace session.v5log
//
// The version, kv, and terminal commands share the connection flags.
// Defaults for them can be placed in ~/.config/v5ctl/config.toml:
//
//	port = "/dev/ttyACM0"
//	timeout = "500ms"
//	retries = 5
//	trace_file = "/tmp/v5.v5log"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/v5link-protocol/v5link-go/pkg/commands"
	"github.com/v5link-protocol/v5link-go/pkg/connection"
	"github.com/v5link-protocol/v5link-go/pkg/serial"
)

const usage = `v5ctl - VEX V5 device control

Usage:
  v5ctl <command> [flags]

Commands:
  list      List connected V5 devices
  version   Show device firmware versions
  kv        Read or write a device key-value entry
  terminal  Open an interactive console on the user port

Use "v5ctl <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "list":
		runList(args)
	case "version":
		runVersion(args)
	case "kv":
		runKV(args)
	case "terminal":
		runTerminal(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `v5ctl list - List connected V5 devices

Usage:
  v5ctl list [flags]

Flags:
`)
		fs.PrintDefaults()
	}

	wait := fs.Bool("wait", false, "Poll until at least one device appears")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	found, err := serial.Find()
	if err != nil {
		fatalf("%v", err)
	}

	if *wait && len(found) == 0 {
		backoff := connection.NewBackoff()
		for len(found) == 0 {
			time.Sleep(backoff.Next())
			found, err = serial.Find()
			if err != nil {
				fatalf("%v", err)
			}
		}
	}

	if len(found) == 0 {
		fmt.Println("No V5 devices found")
		return
	}

	fmt.Printf("Found %d device(s):\n", len(found))
	for _, d := range found {
		fmt.Printf("  %s\n", d)
	}
}

func runVersion(args []string) {
	fs := flag.NewFlagSet("version", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `v5ctl version - Show device firmware versions

Usage:
  v5ctl version [flags]

Flags:
`)
		fs.PrintDefaults()
	}

	cf := newConnectFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	s, err := cf.resolve()
	if err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, cleanup, err := openConnection(ctx, s)
	if err != nil {
		fatalf("%v", err)
	}
	defer cleanup()

	hs := connection.HandshakeConfig{Timeout: s.Timeout, Retries: s.Retries}

	reply, err := connection.Execute(ctx, conn, commands.GetSystemVersion{Handshake: hs})
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Product:  %s\n", reply.ProductType)
	fmt.Printf("Firmware: %s\n", reply.Version)

	// The extended exchanges are best effort: a radio link that is
	// still settling answers the simple protocol first.
	flags, err := connection.Execute(ctx, conn, commands.GetSystemFlags{Handshake: hs})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: system flags unavailable: %v\n", err)
	} else {
		fmt.Printf("Flags:    %#08x\n", flags)
	}

	status, err := connection.Execute(ctx, conn, commands.GetSystemStatus{Handshake: hs})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: system status unavailable: %v\n", err)
		return
	}
	fmt.Printf("System:   %s\n", status.System)
	fmt.Printf("CPU0:     %s\n", status.CPU0)
	fmt.Printf("CPU1:     %s\n", status.CPU1)
	fmt.Printf("Touch:    %s\n", status.Touch)
}

const kvUsage = `v5ctl kv - Read or write a device key-value entry

Usage:
  v5ctl kv get [flags] <key>
  v5ctl kv set [flags] <key> <value>

Known keys include robot_name and team_number.
`

func runKV(args []string) {
	if len(args) < 1 {
		fmt.Fprint(os.Stderr, kvUsage)
		os.Exit(1)
	}

	switch args[0] {
	case "get":
		runKVGet(args[1:])
	case "set":
		runKVSet(args[1:])
	case "-h", "-help", "--help", "help":
		fmt.Print(kvUsage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown kv command: %s\n", args[0])
		fmt.Fprint(os.Stderr, kvUsage)
		os.Exit(1)
	}
}

func runKVGet(args []string) {
	fs := flag.NewFlagSet("kv get", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `v5ctl kv get - Read a device key-value entry

Usage:
  v5ctl kv get [flags] <key>

Flags:
`)
		fs.PrintDefaults()
	}

	cf := newConnectFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: key required")
		fs.Usage()
		os.Exit(1)
	}

	s, err := cf.resolve()
	if err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, cleanup, err := openConnection(ctx, s)
	if err != nil {
		fatalf("%v", err)
	}
	defer cleanup()

	value, err := connection.Execute(ctx, conn, commands.ReadKeyValue{
		Key:       fs.Arg(0),
		Handshake: connection.HandshakeConfig{Timeout: s.Timeout, Retries: s.Retries},
	})
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Println(value)
}

func runKVSet(args []string) {
	fs := flag.NewFlagSet("kv set", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `v5ctl kv set - Write a device key-value entry

Usage:
  v5ctl kv set [flags] <key> <value>

Flags:
`)
		fs.PrintDefaults()
	}

	cf := newConnectFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Error: key and value required")
		fs.Usage()
		os.Exit(1)
	}

	s, err := cf.resolve()
	if err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, cleanup, err := openConnection(ctx, s)
	if err != nil {
		fatalf("%v", err)
	}
	defer cleanup()

	key, value := fs.Arg(0), fs.Arg(1)
	_, err = connection.Execute(ctx, conn, commands.WriteKeyValue{
		Key:       key,
		Value:     value,
		Handshake: connection.HandshakeConfig{Timeout: s.Timeout, Retries: s.Retries},
	})
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", key, len(value))
}

func runTerminal(args []string) {
	fs := flag.NewFlagSet("terminal", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `v5ctl terminal - Open an interactive console on the user port

Typed lines are sent to the running user program; its output streams
back. Wireless links are read-only. Exit with Ctrl-D.

Usage:
  v5ctl terminal [flags]

Flags:
`)
		fs.PrintDefaults()
	}

	cf := newConnectFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	s, err := cf.resolve()
	if err != nil {
		fatalf("%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, cleanup, err := openConnection(ctx, s)
	if err != nil {
		fatalf("%v", err)
	}
	defer cleanup()

	term, err := newTerminal(conn)
	if err != nil {
		fatalf("%v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := term.run(ctx, cancel); err != nil {
		fatalf("%v", err)
	}
}
