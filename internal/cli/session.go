package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/textremind"
	"github.com/aretw0/textremind/internal/config"
	"github.com/aretw0/textremind/internal/presentation/tui"
	"github.com/aretw0/textremind/pkg/form"
	"github.com/aretw0/textremind/pkg/observability"
	"github.com/aretw0/textremind/pkg/reactive"
	"golang.org/x/term"
)

var (
	// ErrNotVerified is returned when the number could not be verified within
	// the allowed attempts.
	ErrNotVerified = errors.New("number not verified")
	// ErrCheckFailed is returned when the backend could not answer a check.
	ErrCheckFailed = errors.New("check failed")
	// ErrNotScheduled is returned when the backend refused the message.
	ErrNotScheduled = errors.New("message not scheduled")
)

const defaultAttempts = 3

// SessionOptions configures an interactive scheduling session.
type SessionOptions struct {
	In  io.Reader
	Out io.Writer
	// ReadPassword reads a line without echoing it. When nil passwords are read
	// from In like any other answer.
	ReadPassword func() (string, error)
	Renderer     tui.Renderer
	// Version prints the banner when set.
	Version string
	// Attempts bounds how many codes or passwords may be tried.
	Attempts int
}

// Session walks the user through the form on the terminal.
type Session struct {
	app      *textremind.App
	out      io.Writer
	lines    *lineReader
	password func() (string, error)
	render   tui.Renderer
	styles   tui.Styles
	version  string
	attempts int
}

// NewSession prepares a session over app. The session owns the app's loop:
// nothing else may drive it while Run is active.
func NewSession(app *textremind.App, opts SessionOptions) *Session {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Renderer == nil {
		opts.Renderer = tui.PlainRenderer
	}
	if opts.Attempts <= 0 {
		opts.Attempts = defaultAttempts
	}
	return &Session{
		app:      app,
		out:      opts.Out,
		lines:    newLineReader(opts.In),
		password: opts.ReadPassword,
		render:   opts.Renderer,
		styles:   tui.NewStyles(opts.Out),
		version:  opts.Version,
		attempts: opts.Attempts,
	}
}

// Run asks for the message, number, verification and delivery time, then
// schedules the message once the user confirms.
func (s *Session) Run(ctx context.Context) error {
	if s.version != "" {
		tui.PrintBanner(s.out, s.version)
	}
	steps := []func(context.Context) error{
		s.askMessage,
		s.askNumber,
		s.verify,
		s.askDeliveryTime,
		s.confirm,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) askMessage(ctx context.Context) error {
	return s.ask(ctx, "Message:", s.app.Form.Message, false)
}

func (s *Session) askNumber(ctx context.Context) error {
	f := s.app.Form
	if err := s.ask(ctx, "Phone number:", f.Number, false); err != nil {
		return err
	}
	if err := s.checkOK(f.NumberVerified); err != nil {
		return err
	}
	if f.NumberVerified.Value() {
		s.println(s.styles.OK("%s is verified.", f.Digits()))
	}
	return nil
}

func (s *Session) verify(ctx context.Context) error {
	f := s.app.Form
	if !f.NumberVerified.Value() {
		return s.verifyByCode(ctx)
	}
	if f.Policy() == form.CodePath {
		return nil
	}
	return s.verifyByPassword(ctx)
}

func (s *Session) verifyByCode(ctx context.Context) error {
	f, act := s.app.Form, s.app.Actions

	act.StartVerification()
	if err := s.app.Settle(ctx); err != nil {
		return ErrInterrupted
	}
	if !f.CodeSent() {
		s.println(s.styles.Fail("%s", f.Notice()))
		return fmt.Errorf("%w: %s", ErrCheckFailed, f.Notice())
	}
	s.println(s.styles.OK("We texted a verification code to %s.", f.Digits()))

	for tries := 0; tries < s.attempts; {
		if err := s.ask(ctx, "Verification code:", f.Code, false); err != nil {
			return err
		}
		if f.Code.Peek() == "" {
			s.println(s.styles.Hint("Enter the 6-digit code from the text message."))
			continue
		}
		tries++
		if err := s.checkOK(f.CodeMatches); err != nil {
			return err
		}
		if f.CodeMatches.Value() {
			s.println(s.styles.OK("Code accepted."))
			return s.offerPassword(ctx)
		}
		s.println(s.styles.Fail("That code does not match."))
	}
	return ErrNotVerified
}

func (s *Session) offerPassword(ctx context.Context) error {
	f, act := s.app.Form, s.app.Actions
	s.println(s.styles.Hint("Set a password to skip the code next time, or leave it empty."))
	if err := s.ask(ctx, "New password:", f.Password, true); err != nil {
		return err
	}
	if f.Password.Peek() == "" {
		return nil
	}

	act.SetPassword()
	if err := s.app.Settle(ctx); err != nil {
		return ErrInterrupted
	}
	if f.PasswordSet() {
		s.println(s.styles.OK("Password saved."))
	} else {
		s.println(s.styles.Fail("%s", f.Notice()))
	}
	return nil
}

func (s *Session) verifyByPassword(ctx context.Context) error {
	f := s.app.Form
	for tries := 0; tries < s.attempts; {
		if err := s.ask(ctx, "Password:", f.Password, true); err != nil {
			return err
		}
		if f.Password.Peek() == "" {
			continue
		}
		tries++
		if err := s.checkOK(f.PasswordMatches); err != nil {
			return err
		}
		if f.PasswordMatches.Value() {
			s.println(s.styles.OK("Password accepted."))
			return nil
		}
		s.println(s.styles.Fail("Incorrect password."))
	}
	return ErrNotVerified
}

func (s *Session) askDeliveryTime(ctx context.Context) error {
	f := s.app.Form
	s.println(s.styles.Hint(`When should it be sent? For example "in 2 hours" or "tomorrow 9am".`))
	if err := s.ask(ctx, "Deliver at:", f.DeliveryTime, false); err != nil {
		return err
	}
	s.println(s.styles.Hint("Will be sent %s.", f.DisplayTime()))
	return nil
}

func (s *Session) confirm(ctx context.Context) error {
	f, act := s.app.Form, s.app.Actions

	summary, err := s.render(s.summary())
	if err != nil {
		return fmt.Errorf("rendering summary: %w", err)
	}
	fmt.Fprint(s.out, summary)

	fmt.Fprint(s.out, s.styles.Prompt("Schedule it? [Y/n]"))
	answer, err := s.lines.next(ctx)
	if err != nil {
		return err
	}
	if a := strings.ToLower(strings.TrimSpace(answer)); a == "n" || a == "no" {
		printSystemMessage(s.out, "Nothing was scheduled.")
		return nil
	}

	if !f.Ready() {
		for _, e := range f.Errors() {
			s.println(s.styles.Fail("%s: %s", e.Field, e.Message))
		}
		return fmt.Errorf("%w: the form is not complete", ErrNotScheduled)
	}

	act.Schedule()
	if err := s.app.Settle(ctx); err != nil {
		return ErrInterrupted
	}
	if !f.MessageSent() {
		s.println(s.styles.Fail("%s", f.ScheduleError()))
		return fmt.Errorf("%w: %s", ErrNotScheduled, f.ScheduleError())
	}
	s.println(s.styles.OK("Scheduled! %s will get your message %s.", f.Digits(), f.DisplayTime()))
	return nil
}

func (s *Session) summary() string {
	f := s.app.Form
	var b strings.Builder
	b.WriteString("## Your text message\n\n")
	fmt.Fprintf(&b, "- **To:** %s\n", f.Digits())
	fmt.Fprintf(&b, "- **When:** %s\n\n", f.DisplayTime())
	for _, line := range strings.Split(f.Message.Peek(), "\n") {
		fmt.Fprintf(&b, "> %s\n", line)
	}
	b.WriteString("\n")
	return b.String()
}

// ask reads answers into field until it has no validation errors.
func (s *Session) ask(ctx context.Context, label string, field *form.Field, hidden bool) error {
	for {
		fmt.Fprint(s.out, s.styles.Prompt(label))
		value, err := s.read(ctx, hidden)
		if err != nil {
			return err
		}
		if !hidden {
			value = strings.TrimSpace(value)
		}
		field.Set(value)
		if err := s.app.Settle(ctx); err != nil {
			return ErrInterrupted
		}
		errs := field.Errors()
		if len(errs) == 0 {
			return nil
		}
		for _, msg := range errs {
			s.println(s.styles.Fail("%s", msg))
		}
	}
}

func (s *Session) read(ctx context.Context, hidden bool) (string, error) {
	if !hidden || s.password == nil {
		return s.lines.next(ctx)
	}
	v, err := s.password()
	fmt.Fprintln(s.out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if ctx.Err() != nil {
		return "", ErrInterrupted
	}
	return v, nil
}

// checkOK turns a failed check into an error after showing the notice.
func (s *Session) checkOK(a *reactive.Async[bool]) error {
	res := a.Peek()
	if res.Status != reactive.Failed {
		return nil
	}
	s.println(s.styles.Fail("%s", s.app.Form.Notice()))
	return fmt.Errorf("%w: %s: %w", ErrCheckFailed, a.Name(), res.Err)
}

func (s *Session) println(line string) {
	fmt.Fprintln(s.out, line)
}

// TerminalPassword returns a reader of hidden input on f, or nil when f is not
// a terminal.
func TerminalPassword(f *os.File) func() (string, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return func() (string, error) {
		b, err := term.ReadPassword(fd)
		return string(b), err
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewApp builds the form application for the client settings in cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, debug bool) (*textremind.App, error) {
	policy, err := form.ParsePolicy(cfg.Client.Policy)
	if err != nil {
		return nil, err
	}
	opts := []textremind.Option{
		textremind.WithLogger(logger),
		textremind.WithPolicy(policy),
		textremind.WithTimeout(cfg.Client.Timeout),
		textremind.WithContext(ctx),
	}
	if debug {
		opts = append(opts, textremind.WithLifecycleHooks(observability.LogHooks(logger)))
	}
	return textremind.New(cfg.Client.BaseURL, opts...), nil
}
