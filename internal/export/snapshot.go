// Package export produces the write-only analytics snapshot that the
// official orientation algorithm asks implementations to save alongside
// each conclusion. The core never reads these back.
package export

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/allocovid/internal/score"
	"github.com/myrjola/allocovid/internal/triage"
)

// Version tags of the implemented algorithm and questionnaire form.
const (
	AlgoVersion = "2020-05-05"
	FormVersion = "2020-05-05"
)

// Snapshot is one completed questionnaire, flattened for analytics.
type Snapshot struct {
	ID              string    `db:"id" json:"id"`
	AlgoVersion     string    `db:"algo_version" json:"algo_version"`
	FormVersion     string    `db:"form_version" json:"form_version"`
	CreatedAt       time.Time `db:"created_at" json:"date"`
	DurationSeconds int64     `db:"duration_seconds" json:"duration"`
	PostalCode      string    `db:"postal_code" json:"postal_code"`
	Orientation     string    `db:"orientation" json:"orientation"`
	AgeRange        string    `db:"age_range" json:"age_range"`
	IMC             float64   `db:"imc" json:"imc"`
	Temperature     float64   `db:"temperature" json:"temperature"`
	Gender          string    `db:"gender" json:"gender"`

	FeverAlgo            bool    `db:"fever_algo" json:"fever_algo"`
	Cough                bool    `db:"cough" json:"cough"`
	AgueusiaAnosmia      bool    `db:"agueusia_anosmia" json:"agueusia_anosmia"`
	SoreThroatAches      bool    `db:"sore_throat_aches" json:"sore_throat_aches"`
	Diarrhea             bool    `db:"diarrhea" json:"diarrhea"`
	MinorSeverityFactors float64 `db:"minor_severity_factors" json:"minor_severity_factors"`
	MajorSeverityFactor  bool    `db:"major_severity_factor" json:"major_severity_factor"`
	PrognosticFactor     bool    `db:"prognostic_factor" json:"prognostic_factor"`
}

// NewSnapshot flattens a final score and its conclusion. startedAt may be
// zero when the session state predates the field; the duration is then
// reported as zero.
func NewSnapshot(s score.Score, conclusion *triage.Conclusion, startedAt time.Time) Snapshot {
	now := time.Now()
	var duration int64
	if !startedAt.IsZero() && now.After(startedAt) {
		duration = int64(now.Sub(startedAt).Seconds())
	}

	postalCode := ""
	if s.CodePostal != nil {
		postalCode = strconv.FormatFloat(s.CodePostal.Score(), 'f', -1, 64)
	}

	gender := ""
	switch s.Homme.Score() {
	case 1:
		gender = "man"
	case 2:
		gender = "woman"
	}

	return Snapshot{
		ID:              uuid.NewString(),
		AlgoVersion:     AlgoVersion,
		FormVersion:     FormVersion,
		CreatedAt:       now,
		DurationSeconds: duration,
		PostalCode:      postalCode,
		Orientation:     conclusion.Orientation(),
		AgeRange:        s.AgeRange(),
		IMC:             s.IMC.Score(),
		Temperature:     s.Temperature.Score(),
		Gender:          gender,

		FeverAlgo:            s.Fievre.Bool(),
		Cough:                s.Toux.Bool(),
		AgueusiaAnosmia:      s.Anosmie.Bool(),
		SoreThroatAches:      s.Douleurs.Bool(),
		Diarrhea:             s.Diarrhees.Bool(),
		MinorSeverityFactors: s.FacteursGraviteMineurs.Score(),
		MajorSeverityFactor:  s.FacteursGraviteMajeurs.Bool(),
		PrognosticFactor:     s.FacteursPronostique.Bool(),
	}
}
