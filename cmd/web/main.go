package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/myrjola/allocovid/internal/conversation"
	"github.com/myrjola/allocovid/internal/db"
	"github.com/myrjola/allocovid/internal/envstruct"
	"github.com/myrjola/allocovid/internal/errors"
	"github.com/myrjola/allocovid/internal/export"
	"github.com/myrjola/allocovid/internal/logging"
	"github.com/myrjola/allocovid/internal/pprofserver"
	"github.com/myrjola/allocovid/internal/triage"

	_ "github.com/lib/pq" // Enable postgres driver for the export store.
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	voiceBot       *conversation.Bot
	webBot         *conversation.Bot
	voiceUsername  string
	voicePassword  string
}

type config struct {
	// Addr is the address to listen on. Use port 0 to pick a free port.
	Addr      string `env:"ALLOCOVID_ADDR" envDefault:"localhost:4000"`
	SQLiteURL string `env:"ALLOCOVID_SQLITE_URL" envDefault:"./allocovid.sqlite"`
	// VoiceUsername and VoicePassword guard the voice-assistant webhook.
	VoiceUsername string `env:"ALLOCOVID_VOICE_USERNAME" envDefault:"allomedia"`
	VoicePassword string `env:"ALLOCOVID_VOICE_PASSWORD" envDefault:"dev-only-password"`
	// ExportDriver/ExportURL point the analytics snapshots at an external
	// database. With an empty URL the snapshots land in the local SQLite.
	ExportDriver string `env:"ALLOCOVID_EXPORT_DRIVER" envDefault:"postgres"`
	ExportURL    string `env:"ALLOCOVID_EXPORT_URL" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "parse environment")
	}

	dbs, err := db.NewDB(cfg.SQLiteURL)
	if err != nil {
		return errors.Wrap(err, "connect database", slog.String("url", cfg.SQLiteURL))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	exportDB := sqlx.NewDb(dbs.ReadWriteDB, "sqlite3")
	if cfg.ExportURL != "" {
		if exportDB, err = sqlx.Open(cfg.ExportDriver, cfg.ExportURL); err != nil {
			return errors.Wrap(err, "connect export database", slog.String("driver", cfg.ExportDriver))
		}
	}
	repository, err := export.NewRepository(exportDB, logger)
	if err != nil {
		return errors.Wrap(err, "initialise export repository")
	}

	questions, err := triage.LoadQuestions()
	if err != nil {
		return errors.Wrap(err, "load questions")
	}
	conclusions, err := triage.LoadConclusions()
	if err != nil {
		return errors.Wrap(err, "load conclusions")
	}
	engine := conversation.NewEngine(questions, conclusions, logger)

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWriteDB, 24*time.Hour)
	sessionManager.Lifetime = 12 * time.Hour

	app := application{
		logger:         logger,
		sessionManager: sessionManager,
		voiceBot: conversation.NewBot(engine,
			conversation.NewSQLiteStore(dbs, logger), repository, logger),
		webBot: conversation.NewBot(engine,
			newSessionStore(sessionManager), repository, logger),
		voiceUsername: cfg.VoiceUsername,
		voicePassword: cfg.VoicePassword,
	}

	return app.configureAndStartServer(ctx, cfg.Addr)
}

func main() {
	loggerHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
	logger := slog.New(logging.NewContextHandler(loggerHandler))

	// Pprof listens on localhost so that it's not open to the world.
	pprofserver.Launch(":6060", logger)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Error(err.Error())
		os.Exit(1)
	}

	if err := run(context.Background(), logger, os.LookupEnv); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
