package store_test

import (
	"context"
	"testing"

	"github.com/benmeehan/locator/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runGatewayContract exercises the behavior every Gateway driver must share.
func runGatewayContract(t *testing.T, newGateway func(t *testing.T) store.Gateway) {
	t.Run("ReadMissing", func(t *testing.T) {
		gw := newGateway(t)
		_, err := gw.Read(context.Background(), "flag:missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("WriteThenReadOverwrites", func(t *testing.T) {
		gw := newGateway(t)
		ctx := context.Background()

		require.NoError(t, gw.Write(ctx, "trackee:t1", []byte(`{"id":"t1","v":1}`)))
		require.NoError(t, gw.Write(ctx, "trackee:t1", []byte(`{"id":"t1","v":2}`)))

		doc, err := gw.Read(ctx, "trackee:t1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"t1","v":2}`, string(doc))
	})

	t.Run("HistoryNewestFirst", func(t *testing.T) {
		gw := newGateway(t)
		ctx := context.Background()

		for _, rec := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`, `{"n":4}`} {
			require.NoError(t, gw.AppendHistory(ctx, "device:d1", []byte(rec)))
		}

		records, err := gw.ReadHistory(ctx, "device:d1", 3)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.JSONEq(t, `{"n":4}`, string(records[0]))
		assert.JSONEq(t, `{"n":3}`, string(records[1]))
		assert.JSONEq(t, `{"n":2}`, string(records[2]))

		all, err := gw.ReadHistory(ctx, "device:d1", 10)
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("HistoryEmpty", func(t *testing.T) {
		gw := newGateway(t)
		records, err := gw.ReadHistory(context.Background(), "device:none", 5)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("HistoryIsSeparateFromDocuments", func(t *testing.T) {
		gw := newGateway(t)
		ctx := context.Background()

		require.NoError(t, gw.AppendHistory(ctx, "device:d1", []byte(`{"n":1}`)))
		_, err := gw.Read(ctx, "device:d1")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ListByPrefix", func(t *testing.T) {
		gw := newGateway(t)
		ctx := context.Background()

		require.NoError(t, gw.Write(ctx, "trackee:b", []byte(`{"id":"b"}`)))
		require.NoError(t, gw.Write(ctx, "trackee:a", []byte(`{"id":"a"}`)))
		require.NoError(t, gw.Write(ctx, "flag:zoneA", []byte(`{"latitude":1}`)))

		docs, err := gw.List(ctx, "trackee:")
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.JSONEq(t, `{"id":"a"}`, string(docs[0]))
		assert.JSONEq(t, `{"id":"b"}`, string(docs[1]))

		none, err := gw.List(ctx, "nothing:")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Ping", func(t *testing.T) {
		gw := newGateway(t)
		assert.NoError(t, gw.Ping(context.Background()))
	})
}
