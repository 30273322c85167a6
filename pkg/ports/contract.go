package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/textremind/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunVerificationStoreContract runs a suite of tests to verify that a
// VerificationStore implementation adheres to the interface contract.
func RunVerificationStoreContract(t *testing.T, store VerificationStore) {
	ctx := context.Background()
	number := "555" + time.Now().Format("0102150405")

	t.Run("Code round trip", func(t *testing.T) {
		_, err := store.Code(ctx, number)
		assert.ErrorIs(t, err, domain.ErrCodeNotFound)

		require.NoError(t, store.SaveCode(ctx, number, "123456"))
		require.NoError(t, store.SaveCode(ctx, number, "654321"))

		code, err := store.Code(ctx, number)
		require.NoError(t, err)
		assert.Equal(t, "654321", code, "latest code wins")
	})

	t.Run("Verification sets", func(t *testing.T) {
		ok, err := store.IsCodeVerified(ctx, number)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = store.IsVerified(ctx, number)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, store.MarkCodeVerified(ctx, number))
		ok, err = store.IsCodeVerified(ctx, number)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.IsVerified(ctx, number)
		require.NoError(t, err)
		assert.False(t, ok, "code verification alone is not full verification")

		require.NoError(t, store.MarkVerified(ctx, number))
		ok, err = store.IsVerified(ctx, number)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Password hash", func(t *testing.T) {
		_, err := store.PasswordHash(ctx, number)
		assert.ErrorIs(t, err, domain.ErrPasswordNotSet)

		require.NoError(t, store.SetPasswordHash(ctx, number, []byte("hash")))
		hash, err := store.PasswordHash(ctx, number)
		require.NoError(t, err)
		assert.Equal(t, []byte("hash"), hash)
	})
}

// RunMessageQueueContract runs a suite of tests to verify that a MessageQueue
// implementation adheres to the interface contract.
func RunMessageQueueContract(t *testing.T, queue MessageQueue) {
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	early := domain.ScheduledMessage{ID: "contract-early", Body: "one", To: "5551234567", DeliverAt: base}
	late := domain.ScheduledMessage{ID: "contract-late", Body: "two", To: "5551234567", DeliverAt: base.Add(time.Hour)}

	require.NoError(t, queue.Enqueue(ctx, late))
	require.NoError(t, queue.Enqueue(ctx, early))

	t.Run("Due filters by time", func(t *testing.T) {
		due, err := queue.Due(ctx, base.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, early.ID, due[0].ID)
		assert.Equal(t, "one", due[0].Body)
		assert.Equal(t, early.To, due[0].To)
		assert.True(t, early.DeliverAt.Equal(due[0].DeliverAt))
	})

	t.Run("Due is ordered", func(t *testing.T) {
		due, err := queue.Due(ctx, base.Add(2*time.Hour))
		require.NoError(t, err)
		require.Len(t, due, 2)
		assert.Equal(t, []string{early.ID, late.ID}, []string{due[0].ID, due[1].ID})
	})

	t.Run("Ack removes", func(t *testing.T) {
		require.NoError(t, queue.Ack(ctx, early.ID))
		require.NoError(t, queue.Ack(ctx, "contract-unknown"))

		n, err := queue.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		due, err := queue.Due(ctx, base.Add(2*time.Hour))
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, late.ID, due[0].ID)

		require.NoError(t, queue.Ack(ctx, late.ID))
	})
}
