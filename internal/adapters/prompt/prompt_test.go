package prompt

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		term := NewTerminal(strings.NewReader(tt.input), &out, false)
		got, err := term.Confirm(context.Background(), "Do you want to vote yes on the question Q")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "[y/N]")
	}
}

func TestTerminalAssumeYes(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(""), &out, true)
	ok, err := term.Confirm(context.Background(), "Vote")
	require.NoError(t, err)
	assert.True(t, ok)

	term.Alert(context.Background(), "trouble")
	assert.Contains(t, out.String(), "! trouble")
}

func TestQueue(t *testing.T) {
	q := NewQueue(true)
	ok, err := q.Confirm(context.Background(), "Vote?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"Vote?"}, q.Prompts())

	q.Alert(context.Background(), "one")
	q.Alert(context.Background(), "two")
	assert.Equal(t, []string{"one", "two"}, q.Drain())
	assert.Empty(t, q.Drain())
}
