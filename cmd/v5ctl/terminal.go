package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"

	"github.com/v5link-protocol/v5link-go/pkg/connection"
)

// terminal bridges the device's user channel to the operator: program
// output streams to the console while typed lines are sent back.
type terminal struct {
	conn connection.Connection
	rl   *readline.Instance
}

func newTerminal(conn connection.Connection) (*terminal, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "v5> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &terminal{conn: conn, rl: rl}, nil
}

// run drives the console until EOF or cancellation. Program output is
// pumped concurrently so a chatty program never blocks the prompt.
func (t *terminal) run(ctx context.Context, cancel context.CancelFunc) error {
	defer t.rl.Close()

	fmt.Fprintln(t.rl.Stdout(), "Connected to user port. Ctrl-D exits.")

	go t.pump(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := t.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			// EOF or a closed terminal
			fmt.Fprintln(t.rl.Stdout(), "Exiting...")
			cancel()
			return nil
		}

		if _, err := t.conn.WriteUser(ctx, []byte(line+"\n")); err != nil {
			if errors.Is(err, connection.ErrNoWriteOnWireless) {
				fmt.Fprintln(t.rl.Stderr(), "Wireless links are read-only; input dropped")
				continue
			}
			cancel()
			return err
		}
	}
}

// pump copies program output to the console until the context ends.
func (t *terminal) pump(ctx context.Context) {
	buf := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := t.conn.ReadUser(ctx, buf)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				fmt.Fprintf(t.rl.Stderr(), "Read error: %v\n", err)
			}
			return
		}
		if n > 0 {
			t.rl.Stdout().Write(buf[:n])
		}
	}
}
