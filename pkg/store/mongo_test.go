package store

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const (
	testDocumentsNS = "locator.documents"
	testHistoryNS   = "locator.history"
)

func newMockMongoStore(mt *mtest.T) *MongoStore {
	return newMongoStoreFromClient(mt.Client, "locator", zerolog.Nop())
}

func asInt64(t *testing.T, v bson.RawValue) int64 {
	t.Helper()
	switch v.Type {
	case bson.TypeInt32:
		return int64(v.Int32())
	case bson.TypeInt64:
		return v.Int64()
	default:
		require.Failf(t, "unexpected BSON type", "%s", v.Type)
		return 0
	}
}

// TestMongoStore_Read tests point reads and the not-found translation.
func TestMongoStore_Read(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing document", func(mt *mtest.T) {
		// Setup
		m := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testDocumentsNS, mtest.FirstBatch))

		// Execute
		_, err := m.Read(context.Background(), "flag:zoneA")

		// Assert
		assert.ErrorIs(t, err, ErrNotFound)
		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "find", started.CommandName)
		assert.Equal(t, "flag:zoneA", started.Command.Lookup("filter", "_id").StringValue())
	})

	mt.Run("server error", func(mt *mtest.T) {
		m := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value", Name: "BadValue"}))

		_, err := m.Read(context.Background(), "flag:zoneA")

		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

// TestMongoStore_WriteRead tests that a written document is upserted by key and read back verbatim.
func TestMongoStore_WriteRead(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upsert then read", func(mt *mtest.T) {
		// Setup
		m := newMockMongoStore(mt)
		doc := `{"latitude":9,"longitude":9,"accuracy":5,"multiplier":3}`
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateCursorResponse(0, testDocumentsNS, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "flag:zoneA"},
				{Key: "data", Value: doc},
			}),
		)

		// Execute
		require.NoError(t, m.Write(context.Background(), "flag:zoneA", []byte(doc)))
		got, err := m.Read(context.Background(), "flag:zoneA")

		// Assert
		require.NoError(t, err)
		assert.JSONEq(t, doc, string(got))

		update := mt.GetStartedEvent()
		require.NotNil(t, update)
		assert.Equal(t, "update", update.CommandName)
		statement := update.Command.Lookup("updates").Array().Index(0).Value().Document()
		assert.Equal(t, "flag:zoneA", statement.Lookup("q", "_id").StringValue())
		assert.True(t, statement.Lookup("upsert").Boolean())
		assert.Equal(t, doc, statement.Lookup("u", "data").StringValue())
	})
}

// TestMongoStore_AppendHistory tests that a record becomes a new history entry for its key.
func TestMongoStore_AppendHistory(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert", func(mt *mtest.T) {
		m := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		require.NoError(t, m.AppendHistory(context.Background(), "device:d1", []byte(`{"id":"d1"}`)))

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "insert", started.CommandName)
		assert.Equal(t, "history", started.Command.Lookup("insert").StringValue())
		entry := started.Command.Lookup("documents").Array().Index(0).Value().Document()
		assert.Equal(t, "device:d1", entry.Lookup("key").StringValue())
		assert.Equal(t, `{"id":"d1"}`, entry.Lookup("data").StringValue())
	})
}

// TestMongoStore_ReadHistory tests newest-first ordering by _id and the limit.
func TestMongoStore_ReadHistory(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("newest first", func(mt *mtest.T) {
		// Setup
		m := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testHistoryNS, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "key", Value: "device:d1"}, {Key: "data", Value: `{"timestamp":2}`}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "key", Value: "device:d1"}, {Key: "data", Value: `{"timestamp":1}`}},
		))

		// Execute
		records, err := m.ReadHistory(context.Background(), "device:d1", 2)

		// Assert
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, `{"timestamp":2}`, string(records[0]))
		assert.Equal(t, `{"timestamp":1}`, string(records[1]))

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "find", started.CommandName)
		assert.Equal(t, "history", started.Command.Lookup("find").StringValue())
		assert.Equal(t, "device:d1", started.Command.Lookup("filter", "key").StringValue())
		assert.Equal(t, int64(-1), asInt64(t, started.Command.Lookup("sort", "_id")))
		assert.Equal(t, int64(2), asInt64(t, started.Command.Lookup("limit")))
	})

	mt.Run("empty history", func(mt *mtest.T) {
		m := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testHistoryNS, mtest.FirstBatch))

		records, err := m.ReadHistory(context.Background(), "device:ghost", 3)

		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	mt.Run("non-positive limit", func(mt *mtest.T) {
		m := newMockMongoStore(mt)

		records, err := m.ReadHistory(context.Background(), "device:d1", 0)

		require.NoError(t, err)
		assert.Empty(t, records)
		assert.Nil(t, mt.GetStartedEvent())
	})
}

// TestMongoStore_List tests the escaped prefix filter and key ordering.
func TestMongoStore_List(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("by prefix", func(mt *mtest.T) {
		// Setup
		m := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testDocumentsNS, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "trackee:t1"}, {Key: "data", Value: `{"id":"t1"}`}},
			bson.D{{Key: "_id", Value: "trackee:t2"}, {Key: "data", Value: `{"id":"t2"}`}},
		))

		// Execute
		docs, err := m.List(context.Background(), "trackee:")

		// Assert
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, `{"id":"t1"}`, string(docs[0]))
		assert.Equal(t, `{"id":"t2"}`, string(docs[1]))

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "documents", started.Command.Lookup("find").StringValue())
		assert.Equal(t, "^trackee:", started.Command.Lookup("filter", "_id", "$regex").StringValue())
		assert.Equal(t, int64(1), asInt64(t, started.Command.Lookup("sort", "_id")))
	})

	mt.Run("regex metacharacters are escaped", func(mt *mtest.T) {
		m := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testDocumentsNS, mtest.FirstBatch))

		docs, err := m.List(context.Background(), "diag:a.b*")

		require.NoError(t, err)
		assert.Empty(t, docs)
		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, `^diag:a\.b\*`, started.Command.Lookup("filter", "_id", "$regex").StringValue())
	})
}

// TestMongoStore_Ping tests the connectivity check.
func TestMongoStore_Ping(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("ok", func(mt *mtest.T) {
		m := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(t, m.Ping(context.Background()))
	})
}
