package repl

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInput_ReadLine(t *testing.T) {
	in := NewInput(strings.NewReader("first\nsecond line\n"), nil)
	defer in.Close()
	ctx := context.Background()

	line, err := in.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	line, err = in.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second line", line)

	_, err = in.ReadLine(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestInput_ReadSecretFallsBackToLine(t *testing.T) {
	in := NewInput(strings.NewReader("hunter2\n"), nil)
	defer in.Close()

	assert.False(t, in.Masked())
	data, err := in.ReadSecret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("hunter2"), data)
}

func TestInput_InterruptAbandonsPendingRead(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	intr := make(chan os.Signal, 1)
	in := NewInput(pr, intr)

	intr <- os.Interrupt
	_, err := in.ReadLine(context.Background())
	require.ErrorIs(t, err, ErrInterrupted)

	// The line typed after the interrupt goes to the next read.
	go func() { _, _ = pw.Write([]byte("after\n")) }()
	line, err := in.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "after", line)
}

func TestInput_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	in := NewInput(pr, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := in.ReadLine(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInput_SecretFunc(t *testing.T) {
	in := newInput(strings.NewReader("visible\n"), nil, func() ([]byte, error) {
		return []byte("masked"), nil
	})
	defer in.Close()

	assert.True(t, in.Masked())
	data, err := in.ReadSecret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("masked"), data)

	line, err := in.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "visible", line)
}

func TestInput_AbandonedMaskedLineIsDropped(t *testing.T) {
	masked := make(chan []byte)
	intr := make(chan os.Signal, 1)
	in := newInput(strings.NewReader("list\n"), intr, func() ([]byte, error) {
		return <-masked, nil
	})
	defer in.Close()

	intr <- os.Interrupt
	_, err := in.ReadSecret(context.Background())
	require.ErrorIs(t, err, ErrInterrupted)
	assert.True(t, in.MaskedPending())

	type result struct {
		line string
		err  error
	}
	got := make(chan result, 1)
	go func() {
		line, err := in.ReadLine(context.Background())
		got <- result{line, err}
	}()
	masked <- []byte("hunter2")

	select {
	case res := <-got:
		require.NoError(t, res.err)
		assert.Equal(t, "list", res.line)
	case <-time.After(time.Second):
		t.Fatal("ReadLine did not return")
	}
	assert.False(t, in.MaskedPending())
}

func TestInput_AbandonedMaskedLineServesNextSecret(t *testing.T) {
	masked := make(chan []byte, 1)
	intr := make(chan os.Signal, 1)
	in := newInput(strings.NewReader(""), intr, func() ([]byte, error) {
		return <-masked, nil
	})
	defer in.Close()

	intr <- os.Interrupt
	_, err := in.ReadSecret(context.Background())
	require.ErrorIs(t, err, ErrInterrupted)

	masked <- []byte("hunter2")
	data, err := in.ReadSecret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("hunter2"), data)
}
