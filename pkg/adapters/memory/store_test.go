package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/textremind/pkg/adapters/memory"
	"github.com/aretw0/textremind/pkg/ports"
	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunVerificationStoreContract(t, memory.NewStore())
}

func TestMemoryQueue_Contract(t *testing.T) {
	ports.RunMessageQueueContract(t, memory.NewQueue())
}

func TestMemoryStore_HashIsCopied(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	hash := []byte("abc")

	assert.NoError(t, store.SetPasswordHash(ctx, "5551234567", hash))
	hash[0] = 'x'

	got, err := store.PasswordHash(ctx, "5551234567")
	assert.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestOutbox(t *testing.T) {
	ctx := context.Background()
	box := memory.NewOutbox()

	assert.NoError(t, box.Send(ctx, "5551234567", "one"))
	assert.NoError(t, box.Send(ctx, "5550000000", "two"))

	last, ok := box.Last("5551234567")
	assert.True(t, ok)
	assert.Equal(t, "one", last.Body)
	assert.Len(t, box.Sent(), 2)

	boom := errors.New("carrier down")
	box.FailWith(boom)
	assert.ErrorIs(t, box.Send(ctx, "5551234567", "three"), boom)
	assert.Len(t, box.Sent(), 2)
}
