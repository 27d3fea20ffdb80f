package triage

import "github.com/myrjola/allocovid/internal/score"

// Conclude maps a final score to one of the eight outcomes. The branches
// implement the official orientation decision tree, see
// https://github.com/Delegation-numerique-en-sante/covid19-algorithme-orientation/blob/master/pseudo-code.org
//
// The branch order is clinically significant and must not be reordered:
// the first matching rule wins.
func (cs *Conclusions) Conclude(s score.Score) *Conclusion {
	if s.Age.Score() < 15 {
		return &cs.FIN1
	}
	if s.FacteursGraviteMajeurs.Bool() {
		return &cs.FIN5
	}
	if s.Fievre.Bool() && s.Toux.Bool() {
		if !s.FacteursPronostique.Bool() {
			return &cs.FIN6
		}
		if s.FacteursGraviteMineurs.Score() < 2 {
			return &cs.FIN6
		}
		return &cs.FIN4
	}
	if s.Fievre.Bool() || s.Diarrhees.Bool() ||
		(s.Toux.Bool() && s.Douleurs.Bool()) ||
		(s.Toux.Bool() && s.Anosmie.Bool()) ||
		(s.Douleurs.Bool() && s.Anosmie.Bool()) {
		if !s.FacteursPronostique.Bool() {
			if !s.FacteursGraviteMineurs.Bool() {
				if s.Age.Score() < 50 {
					return &cs.FIN2
				}
				return &cs.FIN3
			}
			return &cs.FIN3
		}
		if s.FacteursGraviteMineurs.Score() < 2 {
			return &cs.FIN3
		}
		return &cs.FIN4
	}
	// Chained XOR as in the reference algorithm: true for an odd number
	// of the three symptoms, including all three at once.
	if s.Toux.Bool() != s.Douleurs.Bool() != s.Anosmie.Bool() {
		if !s.FacteursPronostique.Bool() {
			return &cs.FIN2
		}
		return &cs.FIN7
	}
	return &cs.FIN8
}
