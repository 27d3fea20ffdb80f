package export

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/myrjola/allocovid/internal/errors"
)

// The schema sticks to types both SQLite and Postgres accept so the same
// repository can write to either backend.
const schema = `CREATE TABLE IF NOT EXISTS triage_reports (
    id TEXT PRIMARY KEY,
    algo_version TEXT NOT NULL,
    form_version TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    duration_seconds INTEGER NOT NULL,
    postal_code TEXT NOT NULL,
    orientation TEXT NOT NULL,
    age_range TEXT NOT NULL,
    imc DOUBLE PRECISION NOT NULL,
    temperature DOUBLE PRECISION NOT NULL,
    gender TEXT NOT NULL,
    fever_algo BOOLEAN NOT NULL,
    cough BOOLEAN NOT NULL,
    agueusia_anosmia BOOLEAN NOT NULL,
    sore_throat_aches BOOLEAN NOT NULL,
    diarrhea BOOLEAN NOT NULL,
    minor_severity_factors DOUBLE PRECISION NOT NULL,
    major_severity_factor BOOLEAN NOT NULL,
    prognostic_factor BOOLEAN NOT NULL
)`

// Repository persists snapshots through sqlx. The driver is whatever the
// caller connected with, so deployments can point the reports at a local
// SQLite file or a shared Postgres.
type Repository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewRepository(db *sqlx.DB, logger *slog.Logger) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "create triage_reports table")
	}
	return &Repository{
		db:     db,
		logger: logger.With("source", "export.Repository"),
	}, nil
}

// Export inserts one snapshot.
func (r *Repository) Export(ctx context.Context, snapshot Snapshot) error {
	stmt := `INSERT INTO triage_reports (
        id, algo_version, form_version, created_at, duration_seconds,
        postal_code, orientation, age_range, imc, temperature, gender,
        fever_algo, cough, agueusia_anosmia, sore_throat_aches, diarrhea,
        minor_severity_factors, major_severity_factor, prognostic_factor
    ) VALUES (
        :id, :algo_version, :form_version, :created_at, :duration_seconds,
        :postal_code, :orientation, :age_range, :imc, :temperature, :gender,
        :fever_algo, :cough, :agueusia_anosmia, :sore_throat_aches, :diarrhea,
        :minor_severity_factors, :major_severity_factor, :prognostic_factor
    )`
	if _, err := r.db.NamedExecContext(ctx, stmt, snapshot); err != nil {
		return errors.Wrap(err, "insert triage report", slog.String("id", snapshot.ID))
	}
	r.logger.LogAttrs(ctx, slog.LevelDebug, "triage report exported",
		slog.String("id", snapshot.ID), slog.String("orientation", snapshot.Orientation))
	return nil
}

// List returns the stored snapshots ordered by creation time. It exists
// for operational inspection and tests; the conversational core never
// reads reports back.
func (r *Repository) List(ctx context.Context) ([]Snapshot, error) {
	var snapshots []Snapshot
	stmt := `SELECT id, algo_version, form_version, created_at, duration_seconds,
        postal_code, orientation, age_range, imc, temperature, gender,
        fever_algo, cough, agueusia_anosmia, sore_throat_aches, diarrhea,
        minor_severity_factors, major_severity_factor, prognostic_factor
    FROM triage_reports ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &snapshots, stmt); err != nil {
		return nil, errors.Wrap(err, "select triage reports")
	}
	return snapshots, nil
}
