package conversation_test

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/allocovid/internal/conversation"
	"github.com/myrjola/allocovid/internal/errors"
	"github.com/myrjola/allocovid/internal/export"
	"github.com/myrjola/allocovid/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingExporter captures snapshots instead of writing them anywhere.
type recordingExporter struct {
	snapshots []export.Snapshot
	err       error
}

func (r *recordingExporter) Export(_ context.Context, snapshot export.Snapshot) error {
	if r.err != nil {
		return r.err
	}
	r.snapshots = append(r.snapshots, snapshot)
	return nil
}

// failingStore breaks every operation to exercise the apology path.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (*conversation.State, error) {
	return nil, errors.New("store is down")
}

func (failingStore) Set(context.Context, string, conversation.State) error {
	return errors.New("store is down")
}

func (failingStore) Delete(context.Context, string) error {
	return errors.New("store is down")
}

func TestBot_handlesSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := conversation.NewMemoryStore()
	exporter := &recordingExporter{}
	bot := conversation.NewBot(newEngine(t), store, exporter, testhelpers.NewLogger(io.Discard))

	out := bot.Handle(ctx, "session-1", conversation.Input{Utterance: "Test covid"})
	assert.Equal(t, startText, out.Text)
	assert.False(t, out.End)

	// The pending question survives between turns.
	state, err := store.Get(ctx, "session-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "1", state.Node)

	out = bot.Handle(ctx, "session-1", conversation.Input{Utterance: "Oui", Intent: "yes"})
	assert.Equal(t, ageText, out.Text)

	out = bot.Handle(ctx, "session-1", conversation.Input{Utterance: "12"})
	require.True(t, out.End)
	require.NotNil(t, out.Conclusion)
	assert.Equal(t, "FIN1", out.Conclusion.ID)

	// Ending the conversation drops the state and exports a snapshot.
	state, err = store.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Nil(t, state)
	require.Len(t, exporter.snapshots, 1)
	snapshot := exporter.snapshots[0]
	assert.Equal(t, "less_15", snapshot.Orientation)
	assert.Equal(t, "inf_15", snapshot.AgeRange)
	assert.Equal(t, export.AlgoVersion, snapshot.AlgoVersion)
	assert.NotEmpty(t, snapshot.ID)
}

func TestBot_sessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := conversation.NewMemoryStore()
	bot := conversation.NewBot(newEngine(t), store, nil, testhelpers.NewLogger(io.Discard))

	bot.Handle(ctx, "alice", conversation.Input{Utterance: "Test covid"})
	bot.Handle(ctx, "alice", conversation.Input{Utterance: "Oui", Intent: "yes"})
	out := bot.Handle(ctx, "bob", conversation.Input{Utterance: "Bonjour"})

	// Bob starts from the beginning even though Alice is mid-questionnaire.
	assert.Equal(t, startText, out.Text)

	alice, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, "2.1", alice.Node)
}

func TestBot_abandonedSessionExportsNothing(t *testing.T) {
	ctx := context.Background()
	exporter := &recordingExporter{}
	bot := conversation.NewBot(newEngine(t), conversation.NewMemoryStore(), exporter, testhelpers.NewLogger(io.Discard))

	bot.Handle(ctx, "session-1", conversation.Input{Utterance: "Test covid"})
	out := bot.Handle(ctx, "session-1", conversation.Input{Utterance: "au revoir", Intent: "goodbye"})

	require.True(t, out.End)
	assert.Nil(t, out.Conclusion)
	assert.Empty(t, exporter.snapshots)
}

func TestBot_storeFailureApologizes(t *testing.T) {
	bot := conversation.NewBot(newEngine(t), failingStore{}, nil, testhelpers.NewLogger(io.Discard))

	out := bot.Handle(context.Background(), "session-1", conversation.Input{Utterance: "Test covid"})

	assert.Equal(t, "Désolé, je n'ai pas compris. Pouvez-vous répéter s'il vous plaît ?", out.Text)
	assert.True(t, out.End)
	assert.Nil(t, out.Conclusion)
}

func TestBot_exportFailureDoesNotReachTheUser(t *testing.T) {
	exporter := &recordingExporter{err: errors.New("analytics is down")}
	bot := conversation.NewBot(newEngine(t), conversation.NewMemoryStore(), exporter, testhelpers.NewLogger(io.Discard))

	ctx := context.Background()
	bot.Handle(ctx, "session-1", conversation.Input{Utterance: "Test covid"})
	bot.Handle(ctx, "session-1", conversation.Input{Utterance: "Oui", Intent: "yes"})
	out := bot.Handle(ctx, "session-1", conversation.Input{Utterance: "12"})

	require.True(t, out.End)
	require.NotNil(t, out.Conclusion)
	assert.Equal(t, "FIN1", out.Conclusion.ID)
}
