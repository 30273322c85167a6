package textremind_test

import (
	"context"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/textremind"
	"github.com/aretw0/textremind/internal/testutils"
	httpAdapter "github.com/aretw0/textremind/pkg/adapters/http"
	"github.com/aretw0/textremind/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/textremind/pkg/adapters/redis"
	"github.com/aretw0/textremind/pkg/dispatch"
	"github.com/aretw0/textremind/pkg/domain"
	"github.com/aretw0/textremind/pkg/form"
	"github.com/aretw0/textremind/pkg/reactive"
	"github.com/aretw0/textremind/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	typedNumber = "(555) 123-4567"
	digits      = "5551234567"
	deliveryAt  = "2026-10-20 09:30"
)

var (
	now   = testutils.Now
	clock = testutils.Clock
)

var codePattern = regexp.MustCompile(`\d{6}`)

type backend struct {
	url    string
	store  *redisAdapter.Store
	outbox *memory.Outbox
}

func startBackend(t *testing.T) *backend {
	t.Helper()
	mr := miniredis.RunT(t)
	store := redisAdapter.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = store.Close() })

	outbox := memory.NewOutbox()
	svc := service.New(store, store, outbox,
		service.WithClock(clock),
		service.WithHashCost(bcrypt.MinCost),
	)
	srv := httptest.NewServer(httpAdapter.NewHandler(svc))
	t.Cleanup(srv.Close)

	return &backend{url: srv.URL, store: store, outbox: outbox}
}

func TestApp_CodePathSchedulesAndDelivers(t *testing.T) {
	ctx := testutils.Context(t)
	b := startBackend(t)
	app := textremind.New(b.url, textremind.WithClock(clock))
	defer app.Close()
	f, act := app.Form, app.Actions

	f.Number.Set(typedNumber)
	require.NoError(t, app.Settle(ctx))
	assert.Equal(t, digits, f.Digits())
	assert.Equal(t, reactive.Done, f.NumberVerified.Status())
	assert.False(t, f.NumberVerified.Value())

	require.True(t, act.StartVerification())
	require.NoError(t, app.Settle(ctx))
	require.True(t, f.CodeSent())

	sms, ok := b.outbox.Last(digits)
	require.True(t, ok, "a verification code must have been texted")
	code := codePattern.FindString(sms.Body)
	require.NotEmpty(t, code)

	f.Code.Set(code)
	f.Message.Set("call mom")
	f.DeliveryTime.Set(deliveryAt)
	require.NoError(t, app.Settle(ctx))

	assert.True(t, f.CodeMatches.Value())
	assert.Empty(t, f.Errors())
	require.True(t, f.Ready())

	require.True(t, act.Schedule())
	require.NoError(t, app.Settle(ctx))
	assert.True(t, f.MessageSent())
	assert.Empty(t, f.ScheduleError())

	queued, err := b.store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)

	d := dispatch.New(b.store, b.outbox,
		dispatch.WithClock(func() time.Time { return now.Add(24 * time.Hour) }),
		dispatch.WithLocker(redisAdapter.NewLocker(b.store.Client(), "textremind:")),
	)
	report, err := d.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, dispatch.Report{Sent: 1}, report)

	delivered, ok := b.outbox.Last(digits)
	require.True(t, ok)
	assert.Equal(t, "call mom", delivered.Body)
}

func TestApp_PasswordPathAfterSettingPassword(t *testing.T) {
	ctx := testutils.Context(t)
	b := startBackend(t)

	first := textremind.New(b.url, textremind.WithClock(clock))
	defer first.Close()
	first.Form.Number.Set(digits)
	require.NoError(t, first.Settle(ctx))
	require.True(t, first.Actions.StartVerification())
	require.NoError(t, first.Settle(ctx))

	sms, _ := b.outbox.Last(digits)
	first.Form.Code.Set(codePattern.FindString(sms.Body))
	first.Form.Password.Set("correct horse battery")
	require.NoError(t, first.Settle(ctx))
	require.True(t, first.Form.CodeMatches.Value())

	require.True(t, first.Actions.SetPassword())
	require.NoError(t, first.Settle(ctx))
	require.True(t, first.Form.PasswordSet())
	assert.True(t, first.Form.NumberVerified.Value(), "setting a password verifies the number")

	second := textremind.New(b.url,
		textremind.WithClock(clock),
		textremind.WithPolicy(form.PasswordPath),
	)
	defer second.Close()
	f := second.Form

	f.Number.Set(digits)
	f.Password.Set("wrong password!")
	f.Message.Set("pick up the kids")
	f.DeliveryTime.Set(deliveryAt)
	require.NoError(t, second.Settle(ctx))
	assert.True(t, f.NumberVerified.Value())
	assert.False(t, f.PasswordMatches.Value())
	assert.False(t, f.Ready())

	f.Password.Set("correct horse battery")
	require.NoError(t, second.Settle(ctx))
	assert.True(t, f.PasswordMatches.Value())
	require.True(t, f.Ready())

	require.True(t, second.Actions.Schedule())
	require.NoError(t, second.Settle(ctx))
	assert.True(t, second.Snapshot().MessageSent)
}

func TestApp_UnreachableBackendSurfacesNotice(t *testing.T) {
	ctx := testutils.Context(t)
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	app := textremind.New(url, textremind.WithClock(clock), textremind.WithTimeout(time.Second))
	defer app.Close()

	app.Form.Number.Set(digits)
	require.NoError(t, app.Settle(ctx))

	res := app.Form.NumberVerified.Get()
	assert.Equal(t, reactive.Failed, res.Status)
	assert.ErrorIs(t, res.Err, domain.ErrUnreachable)
	assert.NotEmpty(t, app.Form.Notice())
	assert.False(t, app.Form.Ready())
}

func TestApp_DoRunsOnTheLoop(t *testing.T) {
	b := startBackend(t)
	app := textremind.New(b.url, textremind.WithClock(clock))
	defer app.Close()

	ctx, cancel := context.WithCancel(testutils.Context(t))
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.NoError(t, app.Do(ctx, func(f *form.Form, _ *form.Dispatcher) {
		f.Message.Set("")
		f.Number.Set(digits)
	}))

	require.Eventually(t, func() bool {
		var status reactive.Status
		_ = app.Do(ctx, func(f *form.Form, _ *form.Dispatcher) {
			status = f.NumberVerified.Status()
		})
		return status == reactive.Done
	}, 2*time.Second, 10*time.Millisecond)

	var errs int
	require.NoError(t, app.Do(ctx, func(f *form.Form, _ *form.Dispatcher) {
		errs = len(f.Errors())
	}))
	assert.Positive(t, errs, "message and delivery time are still empty")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestVersion(t *testing.T) {
	assert.Regexp(t, `^\d+\.\d+\.\d+`, textremind.Version)
}
