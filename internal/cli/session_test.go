package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/textremind"
	"github.com/aretw0/textremind/internal/testutils"
	"github.com/aretw0/textremind/pkg/adapters/memory"
	"github.com/aretw0/textremind/pkg/form"
	"github.com/aretw0/textremind/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const number = "5551234567"

var clock = testutils.Clock

type harness struct {
	svc   *service.Service
	queue *memory.Queue
	out   *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	queue := memory.NewQueue()
	return &harness{
		svc: service.New(memory.NewStore(), queue, memory.NewOutbox(),
			service.WithClock(clock),
			service.WithCodeGenerator(func() (string, error) { return "123456", nil }),
			service.WithHashCost(bcrypt.MinCost),
		),
		queue: queue,
		out:   &bytes.Buffer{},
	}
}

func (h *harness) run(t *testing.T, policy form.Policy, input ...string) error {
	t.Helper()
	app := textremind.New("",
		textremind.WithTransport(h.svc),
		textremind.WithClock(clock),
		textremind.WithPolicy(policy),
	)
	t.Cleanup(app.Close)

	s := NewSession(app, SessionOptions{
		In:  strings.NewReader(strings.Join(input, "\n") + "\n"),
		Out: h.out,
	})
	return s.Run(testutils.Context(t))
}

func (h *harness) queued(t *testing.T) int {
	t.Helper()
	n, err := h.queue.Len(context.Background())
	require.NoError(t, err)
	return n
}

func TestSession_VerifiesByCodeAndSchedules(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, form.CodePath,
		"call mom",
		"(555) 123-4567",
		"123456",
		"", // no password
		"2026-10-20 09:30",
		"y",
	)
	require.NoError(t, err)

	out := h.out.String()
	assert.Contains(t, out, "We texted a verification code to 5551234567.")
	assert.Contains(t, out, "Code accepted.")
	assert.Contains(t, out, "> call mom")
	assert.Contains(t, out, "Scheduled!")
	assert.Equal(t, 1, h.queued(t))
}

func TestSession_RepromptsUntilValid(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, form.CodePath,
		"",
		strings.Repeat("x", 161),
		"call mom",
		"123",
		number,
		"123456",
		"",
		"yesterday",
		"tomorrow 9am",
		"",
	)
	require.NoError(t, err)

	out := h.out.String()
	assert.Contains(t, out, "This field is required.")
	assert.Contains(t, out, form.MessageTooLong)
	assert.Contains(t, out, "Please enter at least 10 characters.")
	assert.Contains(t, out, form.InvalidTime)
	assert.Equal(t, 1, h.queued(t))
}

func TestSession_WrongCodesGiveUp(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, form.CodePath,
		"call mom",
		number,
		"000000",
		"111111",
		"222222",
	)
	assert.ErrorIs(t, err, ErrNotVerified)
	assert.Equal(t, 3, strings.Count(h.out.String(), "That code does not match."))
	assert.Zero(t, h.queued(t))
}

func TestSession_PasswordPathForVerifiedNumber(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.svc.SendVerification(ctx, number))
	_, err := h.svc.CheckVerification(ctx, number, "123456")
	require.NoError(t, err)
	require.NoError(t, h.svc.SetPassword(ctx, number, "correct horse battery"))

	err = h.run(t, form.PasswordPath,
		"pick up the kids",
		number,
		"wrong password!",
		"correct horse battery",
		"tomorrow 9am",
		"Y",
	)
	require.NoError(t, err)

	out := h.out.String()
	assert.Contains(t, out, "5551234567 is verified.")
	assert.Contains(t, out, "Incorrect password.")
	assert.Contains(t, out, "Password accepted.")
	assert.Equal(t, 1, h.queued(t))
}

func TestSession_SetsPasswordAfterCode(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, form.CodePath,
		"call mom",
		number,
		"123456",
		"short",
		"correct horse battery",
		"tomorrow 9am",
		"y",
	)
	require.NoError(t, err)
	assert.Contains(t, h.out.String(), "Password saved.")

	ok, err := h.svc.CheckPassword(context.Background(), number, "correct horse battery")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSession_DeclineSchedulesNothing(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, form.CodePath, "call mom", number, "123456", "", "tomorrow 9am", "n")
	require.NoError(t, err)
	assert.Contains(t, h.out.String(), "Nothing was scheduled.")
	assert.Zero(t, h.queued(t))
}

func TestSession_EndOfInputIsAnInterruption(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, form.CodePath, "call mom")
	require.Error(t, err)
	assert.True(t, IsInterrupted(err))
}

func TestSession_HiddenInputUsesPasswordReader(t *testing.T) {
	h := newHarness(t)
	app := textremind.New("",
		textremind.WithTransport(h.svc),
		textremind.WithClock(clock),
	)
	defer app.Close()

	var asked int
	s := NewSession(app, SessionOptions{
		In:  strings.NewReader("call mom\n" + number + "\n123456\ntomorrow 9am\ny\n"),
		Out: h.out,
		ReadPassword: func() (string, error) {
			asked++
			return "", nil
		},
	})

	require.NoError(t, s.Run(testutils.Context(t)))
	assert.Equal(t, 1, asked)
	assert.Equal(t, 1, h.queued(t))
}

func TestSession_PrintsBanner(t *testing.T) {
	h := newHarness(t)
	app := textremind.New("", textremind.WithTransport(h.svc), textremind.WithClock(clock))
	defer app.Close()

	s := NewSession(app, SessionOptions{
		In:      strings.NewReader(""),
		Out:     h.out,
		Version: "1.2.3",
	})
	err := s.Run(context.Background())
	assert.True(t, IsInterrupted(err))
	assert.Contains(t, h.out.String(), "v1.2.3")
}
