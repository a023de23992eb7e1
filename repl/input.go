package repl

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrInterrupted is returned by Input reads when an interrupt arrives
// before the line is complete.
var ErrInterrupted = errors.New("interrupted")

type readRequest struct {
	secret bool
}

type readResult struct {
	data []byte
	err  error
}

// Input serves lines from a reader on request. A single goroutine owns the
// reader so that a pending read can be abandoned when an interrupt arrives;
// the next read picks up the line that was in flight. A masked read that
// was abandoned is the exception: its line is dropped rather than handed to
// a plain read.
type Input struct {
	reqs          chan readRequest
	results       chan readResult
	interrupts    <-chan os.Signal
	pending       bool
	pendingMasked bool
	secretFn      func() ([]byte, error)
}

// NewInput starts serving lines from r. interrupts may be nil. Secret reads
// fall back to plain line reads.
func NewInput(r io.Reader, interrupts <-chan os.Signal) *Input {
	return newInput(r, interrupts, nil)
}

// NewTerminalInput is like NewInput but reads secrets without echo when f
// is a terminal.
func NewTerminalInput(f *os.File, interrupts <-chan os.Signal) *Input {
	var secretFn func() ([]byte, error)
	if fd := int(f.Fd()); term.IsTerminal(fd) {
		secretFn = func() ([]byte, error) {
			return term.ReadPassword(fd)
		}
	}
	return newInput(f, interrupts, secretFn)
}

func newInput(r io.Reader, interrupts <-chan os.Signal, secretFn func() ([]byte, error)) *Input {
	in := &Input{
		reqs:       make(chan readRequest),
		results:    make(chan readResult, 1),
		interrupts: interrupts,
		secretFn:   secretFn,
	}
	go in.loop(bufio.NewScanner(r))
	return in
}

func (in *Input) loop(sc *bufio.Scanner) {
	for req := range in.reqs {
		if req.secret && in.secretFn != nil {
			data, err := in.secretFn()
			in.results <- readResult{data: data, err: err}
			continue
		}
		if sc.Scan() {
			line := make([]byte, len(sc.Bytes()))
			copy(line, sc.Bytes())
			in.results <- readResult{data: line}
			continue
		}
		err := sc.Err()
		if err == nil {
			err = io.EOF
		}
		in.results <- readResult{err: err}
	}
}

// Masked reports whether secret reads suppress echo. Callers print their
// own newline after a masked read.
func (in *Input) Masked() bool {
	return in.secretFn != nil
}

// Interrupts exposes the interrupt channel so callers can cancel work in
// progress.
func (in *Input) Interrupts() <-chan os.Signal {
	return in.interrupts
}

// ReadLine blocks until a full line, an interrupt, or ctx cancellation.
// It returns io.EOF at end of input.
func (in *Input) ReadLine(ctx context.Context) (string, error) {
	data, err := in.read(ctx, false)
	return string(data), err
}

// ReadSecret is like ReadLine but returns the raw bytes so the caller can
// move them into protected memory, and suppresses echo on terminals.
func (in *Input) ReadSecret(ctx context.Context) ([]byte, error) {
	return in.read(ctx, true)
}

// MaskedPending reports whether an abandoned masked read is still waiting
// for its line. Until it completes, typed input is not echoed.
func (in *Input) MaskedPending() bool {
	return in.pending && in.pendingMasked
}

func (in *Input) read(ctx context.Context, secret bool) ([]byte, error) {
	for {
		if !in.pending {
			in.reqs <- readRequest{secret: secret}
			in.pending = true
			in.pendingMasked = secret && in.secretFn != nil
		}
		select {
		case res := <-in.results:
			stale := in.pendingMasked && !secret
			in.pending = false
			in.pendingMasked = false
			if stale && res.err == nil {
				clear(res.data)
				continue
			}
			return res.data, res.err
		case <-in.interrupts:
			return nil, ErrInterrupted
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close stops the reader goroutine once any in-flight read completes.
func (in *Input) Close() {
	close(in.reqs)
}
