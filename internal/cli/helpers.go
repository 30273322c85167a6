package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/aretw0/textremind/internal/config"
	"github.com/aretw0/textremind/internal/logging"
)

// ErrInterrupted is returned when the input ends or the session is canceled
// while a prompt is waiting.
var ErrInterrupted = errors.New("interrupted")

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	once   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.once.Do(func() { signal.Stop(sc.sigCh) })
	}()

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// NewLogger builds the application logger from the log settings. Debug forces
// the debug level.
func NewLogger(cfg config.LogConfig, debug bool) *slog.Logger {
	level := logging.ParseLevel(cfg.Level)
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithOptions(logging.Options{
		Level:  level,
		Format: logging.Format(cfg.Format),
		File:   cfg.File,
	})
}

// lineReader reads one line per request on its own goroutine so a prompt can
// be abandoned when the context is canceled. Nothing is read ahead of a request:
// password prompts read the same terminal in between.
type lineReader struct {
	r       *bufio.Reader
	req     chan struct{}
	res     chan lineResult
	start   sync.Once
	pending bool
	err     error
}

type lineResult struct {
	line string
	err  error
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{
		r:   bufio.NewReader(r),
		req: make(chan struct{}),
		res: make(chan lineResult, 1),
	}
}

func (lr *lineReader) loop() {
	for range lr.req {
		line, err := lr.r.ReadString('\n')
		if line != "" && errors.Is(err, io.EOF) {
			err = nil
		}
		lr.res <- lineResult{line: strings.TrimRight(line, "\r\n"), err: err}
		if err != nil {
			return
		}
	}
}

// next returns the next line without its line ending.
func (lr *lineReader) next(ctx context.Context) (string, error) {
	if lr.err != nil {
		return "", lr.err
	}
	lr.start.Do(func() { go lr.loop() })
	if !lr.pending {
		lr.req <- struct{}{}
		lr.pending = true
	}
	select {
	case r := <-lr.res:
		lr.pending = false
		if r.err != nil {
			if errors.Is(r.err, io.EOF) {
				lr.err = ErrInterrupted
			} else {
				lr.err = fmt.Errorf("reading input: %w", r.err)
			}
			return "", lr.err
		}
		return r.line, nil
	case <-ctx.Done():
		return "", ErrInterrupted
	}
}

// IsInterrupted reports whether err only means the user left.
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted) || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
