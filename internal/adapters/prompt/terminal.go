// Package prompt provides the confirmation and alert channels the voter
// services use to talk to a human.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Terminal asks on an interactive console. With AssumeYes every
// confirmation is accepted without reading input.
type Terminal struct {
	mu        sync.Mutex
	in        *bufio.Reader
	out       io.Writer
	AssumeYes bool
}

func NewTerminal(in io.Reader, out io.Writer, assumeYes bool) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, AssumeYes: assumeYes}
}

func (t *Terminal) Confirm(ctx context.Context, prompt string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.AssumeYes {
		fmt.Fprintf(t.out, "%s? yes\n", prompt)
		return true, nil
	}
	fmt.Fprintf(t.out, "%s? [y/N] ", prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (t *Terminal) Alert(ctx context.Context, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "! %s\n", message)
}
