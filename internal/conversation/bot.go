package conversation

import (
	"context"
	"log/slog"
	"time"

	"github.com/myrjola/allocovid/internal/errors"
	"github.com/myrjola/allocovid/internal/export"
)

// Exporter receives the analytics snapshot produced when a session
// reaches a conclusion. Export failures are logged, never surfaced to the
// user.
type Exporter interface {
	Export(ctx context.Context, snapshot export.Snapshot) error
}

// Bot binds the turn engine to a session store and an optional exporter.
// It owns the state lifecycle: load before the turn, save after it,
// delete when the conversation ends.
type Bot struct {
	engine   *Engine
	store    Store
	exporter Exporter
	logger   *slog.Logger
}

func NewBot(engine *Engine, store Store, exporter Exporter, logger *slog.Logger) *Bot {
	return &Bot{
		engine:   engine,
		store:    store,
		exporter: exporter,
		logger:   logger.With("source", "Bot"),
	}
}

// Handle runs one turn for the given session. Unexpected errors are
// logged and converted to a generic apology so that no raw error detail
// ever reaches the end user; the stored state is left untouched in that
// case.
func (b *Bot) Handle(ctx context.Context, sessionID string, in Input) Output {
	out, err := b.handle(ctx, sessionID, in)
	if err != nil {
		b.logger.LogAttrs(ctx, slog.LevelError, "turn failed",
			slog.String("sessionID", sessionID), errors.SlogError(err))
		return Output{Text: apologyText, End: true}
	}
	return out
}

func (b *Bot) handle(ctx context.Context, sessionID string, in Input) (Output, error) {
	var state State
	stored, err := b.store.Get(ctx, sessionID)
	if err != nil {
		return Output{}, errors.Wrap(err, "load session state")
	}
	if stored != nil {
		state = *stored
	}
	startedAt := state.StartedAt

	newState, out, err := b.engine.Turn(ctx, state, in)
	if err != nil {
		return Output{}, errors.Wrap(err, "conversation turn")
	}

	if out.End {
		if err = b.store.Delete(ctx, sessionID); err != nil {
			return Output{}, errors.Wrap(err, "delete session state")
		}
		b.export(ctx, startedAt, out)
		return out, nil
	}

	if err = b.store.Set(ctx, sessionID, newState); err != nil {
		return Output{}, errors.Wrap(err, "save session state")
	}
	return out, nil
}

func (b *Bot) export(ctx context.Context, startedAt time.Time, out Output) {
	if b.exporter == nil || out.Conclusion == nil {
		return
	}
	snapshot := export.NewSnapshot(out.Score, out.Conclusion, startedAt)
	if err := b.exporter.Export(ctx, snapshot); err != nil {
		// The user already has their conclusion; losing a snapshot is an
		// operational problem, not a conversational one.
		b.logger.LogAttrs(ctx, slog.LevelError, "export snapshot failed", errors.SlogError(err))
	}
}
