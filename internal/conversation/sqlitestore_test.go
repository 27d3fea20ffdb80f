package conversation_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/myrjola/allocovid/internal/conversation"
	"github.com/myrjola/allocovid/internal/db"
	"github.com/myrjola/allocovid/internal/score"
	"github.com/myrjola/allocovid/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *conversation.SQLiteStore {
	t.Helper()
	dbs, err := db.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = dbs.ReadDB.Close()
		_ = dbs.ReadWriteDB.Close()
	})
	return conversation.NewSQLiteStore(dbs, testhelpers.NewLogger(io.Discard))
}

func TestSQLiteStore_roundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	// Unknown sessions read back as nil without error.
	state, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, state)

	saved := conversation.State{
		Node: "1.1",
		Score: score.Score{
			Age:    score.New(42),
			Fievre: score.New(1),
		},
		PostalCodeErrors: 1,
		StartedAt:        time.Date(2020, 5, 5, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Set(ctx, "session-1", saved))

	state, err = store.Get(ctx, "session-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "1.1", state.Node)
	assert.InDelta(t, 42, state.Score.Age.Score(), 0)
	assert.True(t, state.Score.Fievre.Bool())
	assert.Nil(t, state.Score.Toux)
	assert.Equal(t, 1, state.PostalCodeErrors)
	assert.True(t, saved.StartedAt.Equal(state.StartedAt))
}

func TestSQLiteStore_setOverwrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Set(ctx, "session-1", conversation.State{Node: "1"}))
	require.NoError(t, store.Set(ctx, "session-1", conversation.State{Node: "2.4"}))

	state, err := store.Get(ctx, "session-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "2.4", state.Node)
}

func TestSQLiteStore_delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Set(ctx, "session-1", conversation.State{Node: "1"}))
	require.NoError(t, store.Delete(ctx, "session-1"))

	state, err := store.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Nil(t, state)

	// Deleting an unknown session is not an error.
	require.NoError(t, store.Delete(ctx, "missing"))
}
