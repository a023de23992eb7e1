// Package repl implements the interactive OurCity command loop.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/awnumar/memguard"

	"github.com/ourcity/ourcity-cli/client"
	"github.com/ourcity/ourcity-cli/internal/logging"
	"github.com/ourcity/ourcity-cli/internal/util"
	"github.com/ourcity/ourcity-cli/session"
	"github.com/ourcity/ourcity-cli/transport"
)

// API is the subset of *client.Client the REPL drives.
type API interface {
	Login(ctx context.Context, username, password string) client.Outcome[client.LoginResult]
	Logout(ctx context.Context, creds transport.Credentials) client.Outcome[struct{}]
	Whoami(ctx context.Context, creds transport.Credentials) client.Outcome[client.User]
	GetPost(ctx context.Context, id string, creds transport.Credentials) client.Outcome[client.Post]
	ListPostsPage(ctx context.Context, creds transport.Credentials, req client.PageRequest) client.Outcome[client.PostPage]
	Promote(ctx context.Context, username string, creds transport.Credentials) client.Outcome[struct{}]
}

var _ API = (*client.Client)(nil)

// REPL reads commands from an Input and writes results to an io.Writer.
type REPL struct {
	api    API
	store  *session.Store
	in     *Input
	out    io.Writer
	logger *slog.Logger
}

// Option configures a REPL.
type Option func(*REPL)

// WithLogger sets the logger for command-level diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *REPL) {
		r.logger = logger.With("component", "repl")
	}
}

// New creates a REPL. The store is owned by the caller so that session
// state can be inspected or shared outside the loop.
func New(api API, store *session.Store, in *Input, out io.Writer, opts ...Option) *REPL {
	r := &REPL{
		api:    api,
		store:  store,
		in:     in,
		out:    out,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *REPL) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *REPL) println(args ...any) {
	fmt.Fprintln(r.out, args...)
}

// Prompt returns the prompt for the current session state.
func (r *REPL) Prompt() string {
	if sess, ok := r.store.Load(); ok && r.store.IsActive() {
		return sess.Username + "@ourcity> "
	}
	return "ourcity> "
}

// Run loops until exit, end of input, or ctx cancellation. Interrupts
// while reading return to the prompt. API failures are printed, never
// returned.
func (r *REPL) Run(ctx context.Context) error {
	r.println("Welcome to OurCity CLI")
	r.println("Type 'help' for available commands or 'exit' to quit")
	r.println()

	for {
		r.printf("%s", r.Prompt())
		line, err := r.in.ReadLine(ctx)
		if err != nil {
			if done, err := r.inputError(err); done {
				return err
			}
			continue
		}

		inv := Parse(line)
		if inv.Command == CmdNone {
			continue
		}
		r.logger.Debug("dispatch", "command", inv.Line)

		exit, err := r.dispatch(ctx, inv)
		if err != nil {
			if done, err := r.inputError(err); done {
				return err
			}
			continue
		}
		if exit {
			return nil
		}
		r.println()
	}
}

// inputError handles an error from reading input. It reports whether the
// loop should stop and with which error.
func (r *REPL) inputError(err error) (bool, error) {
	switch {
	case errors.Is(err, ErrInterrupted):
		r.printf("\n\nUse 'exit' to quit\n")
		if r.in.MaskedPending() {
			r.println("Press Enter to dismiss the password prompt")
		}
		r.println()
		return false, nil
	case errors.Is(err, io.EOF):
		r.printf("\nGoodbye!\n")
		return true, nil
	default:
		return true, err
	}
}

func (r *REPL) dispatch(ctx context.Context, inv Invocation) (exit bool, err error) {
	switch inv.Command {
	case CmdExit:
		r.println("Goodbye!")
		return true, nil
	case CmdHelp:
		r.printf("%s", helpText)
	case CmdLogin:
		ok, err := r.handleLogin(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			r.println("Type 'help' to see available commands")
		}
	case CmdLogout:
		if r.handleLogout(ctx) {
			r.println("Type 'exit' to quit or 'login' to login again")
		}
	case CmdList:
		r.handleList(ctx, inv.Arg(0))
	case CmdPost:
		return false, r.handlePost(ctx, inv.Arg(0))
	case CmdPromote:
		return false, r.handlePromote(ctx, inv.Arg(0))
	case CmdWhoami:
		r.handleWhoami(ctx)
	case CmdUnknown:
		r.printf("Unknown command: %s\n", inv.Line)
		r.println("Type 'help' for available commands")
	case CmdNone:
	}
	return false, nil
}

// ask prints prompt and reads one line.
func (r *REPL) ask(ctx context.Context, prompt string) (string, error) {
	r.printf("%s", prompt)
	return r.in.ReadLine(ctx)
}

// askSecret prints prompt and reads one line into protected memory. The
// caller must Destroy the returned buffer.
func (r *REPL) askSecret(ctx context.Context, prompt string) (*memguard.LockedBuffer, error) {
	r.printf("%s", prompt)
	data, err := r.in.ReadSecret(ctx)
	if r.in.Masked() {
		r.println()
	}
	if err != nil {
		return nil, err
	}
	return memguard.NewBufferFromBytes(data), nil
}

// call returns a context that is canceled when an interrupt arrives, so a
// hung request can be abandoned with Ctrl-C.
func (r *REPL) call(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	if intr := r.in.Interrupts(); intr != nil {
		go func() {
			select {
			case <-intr:
				cancel()
			case <-ctx.Done():
			}
		}()
	}
	return ctx, cancel
}

// credentials returns the active credential set or nil when anonymous.
func (r *REPL) credentials() transport.Credentials {
	if !r.store.IsActive() {
		return nil
	}
	return r.store.Credentials()
}

func (r *REPL) handleLogin(ctx context.Context) (bool, error) {
	if sess, ok := r.store.Load(); ok && r.store.IsActive() {
		r.printf("Already logged in as %s\n", sess.Username)
		answer, err := r.ask(ctx, "Do you want to login as a different user? (y/n): ")
		if err != nil {
			return false, err
		}
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			return false, nil
		}
		r.store.Clear()
	}

	name, err := r.ask(ctx, "Username: ")
	if err != nil {
		return false, err
	}
	username := util.NormalizeUsername(name)

	password, err := r.askSecret(ctx, "Password: ")
	if err != nil {
		return false, err
	}
	defer password.Destroy()

	callCtx, cancel := r.call(ctx)
	defer cancel()
	out := r.api.Login(callCtx, username, password.String())
	if !out.OK() {
		r.logger.Info("login failed", "username", username, "kind", out.Kind.String())
		r.printf("Login failed: %s\n", out.Message)
		return false, nil
	}
	r.store.Save(out.Value.Credentials, username)
	r.println(out.Message)
	return true, nil
}

func (r *REPL) handleLogout(ctx context.Context) bool {
	if !r.store.IsActive() {
		r.println("Not currently logged in")
		return false
	}
	sess, _ := r.store.Load()

	callCtx, cancel := r.call(ctx)
	defer cancel()
	out := r.api.Logout(callCtx, sess.Credentials)

	// The local session is dropped whatever the server said.
	r.store.Clear()
	if out.OK() {
		r.printf("Logged out from %s\n", sess.Username)
	} else {
		r.printf("Cleared local session for %s\n", sess.Username)
		r.printf("Note: %s\n", out.Message)
	}
	return true
}

func (r *REPL) handleList(ctx context.Context, cursor string) {
	callCtx, cancel := r.call(ctx)
	defer cancel()
	out := r.api.ListPostsPage(callCtx, r.credentials(), client.PageRequest{Cursor: cursor})
	if !out.OK() {
		r.printf("Error: %s\n", out.Message)
		return
	}
	renderPostList(r.out, out.Value)
}

func (r *REPL) handlePost(ctx context.Context, id string) error {
	if id == "" {
		line, err := r.ask(ctx, "Enter post ID: ")
		if err != nil {
			return err
		}
		id = line
	}
	if util.IsBlank(id) {
		r.println("Post ID cannot be empty")
		return nil
	}
	id = strings.TrimSpace(id)

	callCtx, cancel := r.call(ctx)
	defer cancel()
	out := r.api.GetPost(callCtx, id, r.credentials())
	switch {
	case out.OK():
		renderPost(r.out, out.Value)
	case errors.Is(out.Err, client.ErrNotFound):
		r.println("Post was not found")
	default:
		r.printf("Error: %s\n", out.Message)
	}
	return nil
}

func (r *REPL) handlePromote(ctx context.Context, username string) error {
	if !r.store.IsActive() {
		r.println("You must be logged in to promote users")
		return nil
	}
	if username == "" {
		line, err := r.ask(ctx, "Enter username to promote to admin: ")
		if err != nil {
			return err
		}
		username = line
	}
	if util.IsBlank(username) {
		r.println("Username cannot be empty")
		return nil
	}
	username = util.NormalizeUsername(username)

	callCtx, cancel := r.call(ctx)
	defer cancel()
	out := r.api.Promote(callCtx, username, r.credentials())
	if out.OK() {
		r.println(out.Message)
		return nil
	}
	r.printf("Failed to promote user: %s\n", out.Message)
	return nil
}

func (r *REPL) handleWhoami(ctx context.Context) {
	if !r.store.IsActive() {
		r.println("Not currently logged in")
		return
	}
	callCtx, cancel := r.call(ctx)
	defer cancel()
	out := r.api.Whoami(callCtx, r.credentials())
	if !out.OK() {
		r.printf("Error: %s\n", out.Message)
		return
	}
	renderUser(r.out, out.Value)
}
