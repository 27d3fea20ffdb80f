// Package score holds the running evidence vector accumulated over a
// questionnaire session. Field names follow the French orientation
// algorithm published by the Délégation numérique en santé, see
// https://github.com/Delegation-numerique-en-sante/covid19-algorithme-orientation
package score

import (
	"encoding/json"
	"strconv"
)

// Value is a single optional numeric measurement. The zero pointer means
// "not recorded yet". Two Values combine by addition and absence is the
// identity element, which lets per-answer contributions accumulate into a
// running total per variable.
type Value struct {
	value float64
}

// New wraps a measurement in a Value.
func New(v float64) *Value {
	return &Value{value: v}
}

// Add combines two optional Values additively. Either side may be nil.
func (v *Value) Add(other *Value) *Value {
	switch {
	case v == nil:
		return other
	case other == nil:
		return v
	default:
		return &Value{value: v.value + other.value}
	}
}

// Score returns the numeric value, treating absence as zero.
func (v *Value) Score() float64 {
	if v == nil {
		return 0
	}
	return v.value
}

// Bool reports whether the value is present and non-zero. Yes/no answers
// are encoded as 1.0/0.0 contributions, so this is answer truthiness.
func (v *Value) Bool() bool {
	return v.Score() != 0
}

// MarshalJSON encodes the value as a bare number.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.value)
}

// UnmarshalJSON decodes a bare number.
func (v *Value) UnmarshalJSON(data []byte) error {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	v.value = f
	return nil
}

// Score is the accumulated evidence vector driving the final conclusion.
// Every field is independently optional. Score is never mutated in place:
// Add returns a fresh copy so that a turn is a pure reducer over the
// conversation state.
type Score struct {
	Fievre                 *Value `json:"fievre,omitempty"`
	FacteursGraviteMineurs *Value `json:"facteurs-gravite-mineurs,omitempty"`
	Toux                   *Value `json:"toux,omitempty"`
	Anosmie                *Value `json:"anosmie,omitempty"`
	Douleurs               *Value `json:"douleurs,omitempty"`
	Diarrhees              *Value `json:"diarrhees,omitempty"`
	FacteursGraviteMajeurs *Value `json:"facteurs-gravite-majeurs,omitempty"`
	FacteursPronostique    *Value `json:"facteurs-pronostique,omitempty"`
	Taille                 *Value `json:"taille,omitempty"`
	Age                    *Value `json:"age,omitempty"`
	Poids                  *Value `json:"poids,omitempty"`
	CodePostal             *Value `json:"codePostal,omitempty"`
	Temperature            *Value `json:"temperature,omitempty"`
	Homme                  *Value `json:"homme,omitempty"`
	IMC                    *Value `json:"imc,omitempty"`
}

// Add merges other into s field-wise and returns the merged copy. A nil
// other returns s unchanged.
func (s Score) Add(other *Score) Score {
	if other == nil {
		return s
	}
	return Score{
		Fievre:                 s.Fievre.Add(other.Fievre),
		FacteursGraviteMineurs: s.FacteursGraviteMineurs.Add(other.FacteursGraviteMineurs),
		Toux:                   s.Toux.Add(other.Toux),
		Anosmie:                s.Anosmie.Add(other.Anosmie),
		Douleurs:               s.Douleurs.Add(other.Douleurs),
		Diarrhees:              s.Diarrhees.Add(other.Diarrhees),
		FacteursGraviteMajeurs: s.FacteursGraviteMajeurs.Add(other.FacteursGraviteMajeurs),
		FacteursPronostique:    s.FacteursPronostique.Add(other.FacteursPronostique),
		Taille:                 s.Taille.Add(other.Taille),
		Age:                    s.Age.Add(other.Age),
		Poids:                  s.Poids.Add(other.Poids),
		CodePostal:             s.CodePostal.Add(other.CodePostal),
		Temperature:            s.Temperature.Add(other.Temperature),
		Homme:                  s.Homme.Add(other.Homme),
		IMC:                    s.IMC.Add(other.IMC),
	}
}

// AgeRange buckets the recorded age into the ranges the export format
// expects. Returns "" when no age was recorded.
func (s Score) AgeRange() string {
	switch {
	case s.Age == nil:
		return ""
	case s.Age.Score() < 15:
		return "inf_15"
	case s.Age.Score() < 50:
		return "from_15_to_49"
	case s.Age.Score() < 70:
		return "from_50_to_69"
	default:
		return "sup_70"
	}
}
