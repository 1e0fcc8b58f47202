package store_test

import (
	"context"
	"testing"

	"github.com/benmeehan/locator/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryStore_Contract runs the shared gateway behavior against MemoryStore.
func TestMemoryStore_Contract(t *testing.T) {
	runGatewayContract(t, func(t *testing.T) store.Gateway {
		return store.NewMemoryStore()
	})
}

// TestMemoryStore_ReturnsCopies tests that callers cannot mutate stored documents.
func TestMemoryStore_ReturnsCopies(t *testing.T) {
	m := store.NewMemoryStore()
	ctx := context.Background()

	doc := []byte(`{"id":"t1"}`)
	require.NoError(t, m.Write(ctx, "trackee:t1", doc))
	doc[2] = 'X'

	got, err := m.Read(ctx, "trackee:t1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"t1"}`, string(got))
}

// TestMemoryStore_CancelledContext tests that a cancelled context fails fast.
func TestMemoryStore_CancelledContext(t *testing.T) {
	m := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.AppendHistory(ctx, "device:d1", []byte(`{}`)), context.Canceled)
	_, err := m.Read(ctx, "device:d1")
	assert.ErrorIs(t, err, context.Canceled)
}
