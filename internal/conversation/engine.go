// Package conversation drives a triage questionnaire session: given the
// caller-owned state, the user's utterance and the upstream-classified
// intent, a turn computes the next question or the final conclusion. The
// turn function is a pure reducer so sessions can be stored anywhere and
// replayed; all I/O stays with the caller.
package conversation

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/myrjola/allocovid/internal/extract"
	"github.com/myrjola/allocovid/internal/score"
	"github.com/myrjola/allocovid/internal/triage"
)

// Intents of the fixed vocabulary the engine reacts to. Choice labels map
// to yes/no/do_not_known in the question registry; the rest are
// conversation control signals.
const (
	IntentYes        = "yes"
	IntentNo         = "no"
	IntentDoNotKnown = "do_not_known"
	IntentCancel     = "cancel"
	IntentGoodbye    = "goodbye"
	IntentRepeat     = "repeat"
	IntentReset      = "reset"
)

// Reprompt and farewell texts. All recoverable errors surface as polite
// French reprompts, never as raw error detail.
const (
	farewellText       = "À bientôt !"
	notUnderstoodText  = "Désolé, je n’ai pas compris votre réponse. Répondez par oui ou par non"
	apologyText        = "Désolé, je n'ai pas compris. Pouvez-vous répéter s'il vous plaît ?"
	askAgainAge        = "Je n'ai pas bien compris votre âge. Pouvez-vous l'indiquer à nouveau ?"
	askAgainWeight     = "Je n'ai pas bien compris votre poids. Pouvez-vous l'indiquer à nouveau ?"
	askAgainHeight     = "Je n'ai pas bien compris votre taille. Pouvez-vous l'indiquer à nouveau ?"
	askAgainTemp       = "Je n'ai pas bien compris votre température. Pouvez-vous l'indiquer à nouveau ?"
	askAgainPostalCode = "Je n'ai pas bien compris votre code postal. Pouvez-vous l'indiquer à nouveau ?"
	askAgainGender     = "Désolé, je n’ai pas compris votre réponse. Dites-moi, par exemple : \"je suis une femme\" ou : \"je suis un homme\"."
)

// maxPostalCodeErrors bounds the postal-code reprompt loop: the third
// consecutive parse failure force-terminates the tree with the score
// gathered so far instead of looping forever.
const maxPostalCodeErrors = 3

// Input is one user turn as delivered by the transport. The intent and
// entity text come pre-computed from the NLU layer and may be empty.
type Input struct {
	Utterance string
	// Intent is the classified intent, e.g. "yes", "no_fever" or "repeat".
	Intent string
	// EntityText is the extracted entity for the pending question, e.g.
	// the digits of an age answer or "woman"/"man" for the gender node.
	EntityText string
}

// State is the caller-owned conversation state. The zero value means
// "not started".
type State struct {
	// Node is the identifier of the pending question.
	Node string `json:"node"`
	// Score is the evidence accumulated so far.
	Score score.Score `json:"score"`
	// PostalCodeErrors counts consecutive postal-code parse failures.
	PostalCodeErrors int `json:"postalCodeErrors,omitempty"`
	// StartedAt records when the session began, for the export snapshot.
	StartedAt time.Time `json:"startedAt"`
}

func (s State) started() bool {
	return s.Node != ""
}

// Output is what the transport should present for this turn.
type Output struct {
	// Text is the question, reprompt, farewell or conclusion to display.
	Text string
	// Suggestions are quick-reply labels for the pending question.
	Suggestions []string
	// End reports that the conversation is over and the state discarded.
	End bool
	// Conclusion is set when the decision tree was fully evaluated.
	Conclusion *triage.Conclusion
	// Score is the accumulated score after this turn.
	Score score.Score
}

// Engine computes conversation turns against the loaded registries.
type Engine struct {
	questions   *triage.Questions
	conclusions *triage.Conclusions
	logger      *slog.Logger
}

func NewEngine(questions *triage.Questions, conclusions *triage.Conclusions, logger *slog.Logger) *Engine {
	return &Engine{
		questions:   questions,
		conclusions: conclusions,
		logger:      logger.With("source", "Engine"),
	}
}

// answer is the outcome of answering one question: either a reprompt, or
// a partial score plus the next node.
type answer struct {
	partial  *score.Score
	nextNode string
	reprompt string
}

// Turn advances the conversation by one user input. It returns the new
// state and the output to present. Errors signal data-integrity problems
// (for example a choice pointing at a missing node), never user mistakes.
func (e *Engine) Turn(ctx context.Context, state State, in Input) (State, Output, error) {
	if in.Intent == IntentReset {
		state = State{}
	}

	if state.started() && (in.Intent == IntentCancel || in.Intent == IntentGoodbye) {
		return State{}, Output{Text: farewellText, End: true, Score: state.Score}, nil
	}

	if state.started() && in.Intent == IntentRepeat {
		question, err := e.questions.Find(state.Node)
		if err != nil {
			return state, Output{}, err
		}
		return state, Output{
			Text:        question.CleanText(),
			Suggestions: question.Suggestions(),
			Score:       state.Score,
		}, nil
	}

	var (
		partial *score.Score
		next    *triage.Question
	)
	if !state.started() {
		state.StartedAt = time.Now()
		next = e.questions.Start()
	} else {
		question, err := e.questions.Find(state.Node)
		if err != nil {
			return state, Output{}, err
		}

		ans := e.answerQuestion(&state, question, in)
		if ans.reprompt != "" {
			return state, Output{
				Text:        ans.reprompt,
				Suggestions: question.Suggestions(),
				Score:       state.Score,
			}, nil
		}
		if next, err = e.questions.Find(ans.nextNode); err != nil {
			return state, Output{}, err
		}
		partial = ans.partial
	}

	merged := state.Score.Add(partial)

	if next.Terminal() {
		conclusion := e.conclusions.Conclude(merged)
		e.logger.LogAttrs(ctx, slog.LevelDebug, "conversation concluded",
			slog.String("conclusion", conclusion.ID), slog.Any("score", merged))
		return State{}, Output{
			Text:       conclusion.CleanMessage(),
			End:        true,
			Conclusion: conclusion,
			Score:      merged,
		}, nil
	}

	if next.EndsConversation() {
		return State{}, Output{Text: next.CleanText(), End: true, Score: merged}, nil
	}

	state.Node = next.Node
	state.Score = merged
	e.logger.LogAttrs(ctx, slog.LevelDebug, "new state",
		slog.String("node", state.Node), slog.Any("score", state.Score))
	return state, Output{
		Text:        next.CleanText(),
		Suggestions: next.Suggestions(),
		Score:       merged,
	}, nil
}

// answerQuestion dispatches to the node's special extractor or the
// generic choice matcher. The extractor set is closed, so the switch is
// exhaustive.
func (e *Engine) answerQuestion(state *State, question *triage.Question, in Input) answer {
	switch question.Extractor() {
	case triage.ExtractorAge:
		return answerAge(in)
	case triage.ExtractorWeight:
		return answerWeight(in)
	case triage.ExtractorHeight:
		return answerHeight(state.Score, question, in)
	case triage.ExtractorTemperature:
		return answerTemperature(question, in)
	case triage.ExtractorPostalCode:
		return answerPostalCode(state, in)
	case triage.ExtractorGender:
		return answerGender(question, in)
	default:
		return answerChoice(question, in)
	}
}

func answerChoice(question *triage.Question, in Input) answer {
	choice := question.Match(in.Utterance, in.Intent)
	if choice == nil {
		return answer{reprompt: notUnderstoodText}
	}
	return answer{partial: choice.Score, nextNode: nextNode(choice.Goto)}
}

func answerAge(in Input) answer {
	age, ok := extract.Age(extract.Preferred(in.EntityText, in.Utterance))
	if !ok {
		return answer{reprompt: askAgainAge}
	}
	partial := score.Score{Age: score.New(age)}
	if age >= 70 {
		partial.FacteursPronostique = score.New(1)
	}
	// Under 15 precludes the rest of the questionnaire.
	next := "1.7"
	if age < 15 {
		next = triage.TerminalPrefix
	}
	return answer{partial: &partial, nextNode: next}
}

func answerWeight(in Input) answer {
	weight, ok := extract.Weight(extract.Preferred(in.EntityText, in.Utterance))
	if !ok {
		return answer{reprompt: askAgainWeight}
	}
	return answer{partial: &score.Score{Poids: score.New(weight)}, nextNode: "2.3"}
}

// answerHeight records the height and derives the body-mass index from
// the weight recorded on an earlier turn, flagging a prognostic risk at
// BMI 30 and over. When extraction fails, the quick-reply range labels
// still get a chance through the generic matcher.
func answerHeight(accumulated score.Score, question *triage.Question, in Input) answer {
	height, ok := extract.Height(extract.Preferred(in.EntityText, in.Utterance))
	if !ok {
		choice := question.Match(in.Utterance, in.Intent)
		if choice == nil {
			return answer{reprompt: askAgainHeight}
		}
		var fromChoice score.Score
		if choice.Score != nil {
			fromChoice = *choice.Score
		}
		partial := withBMI(fromChoice, bmi(accumulated.Poids.Score(), fromChoice.Taille.Score()))
		return answer{partial: &partial, nextNode: nextNode(choice.Goto)}
	}

	partial := withBMI(score.Score{Taille: score.New(height)}, bmi(accumulated.Poids.Score(), height))
	return answer{partial: &partial, nextNode: "2.13"}
}

func answerTemperature(question *triage.Question, in Input) answer {
	temperature, ok := extract.Temperature(extract.Preferred(in.EntityText, in.Utterance))
	if !ok {
		if in.Intent == IntentDoNotKnown {
			choice := question.Choices[len(question.Choices)-1]
			return answer{partial: choice.Score, nextNode: nextNode(choice.Goto)}
		}
		return answer{reprompt: askAgainTemp}
	}

	choice := question.Match(in.Utterance, in.Intent)
	if choice == nil {
		choice = &question.Choices[temperatureBucket(temperature)]
	}
	var partial score.Score
	if choice.Score != nil {
		partial = *choice.Score
	}
	partial = partial.Add(&score.Score{Temperature: score.New(temperature)})
	return answer{partial: &partial, nextNode: nextNode(choice.Goto)}
}

// temperatureBucket maps a measured temperature onto the node's ordered
// range choices.
func temperatureBucket(t float64) int {
	switch {
	case t <= 35.5:
		return 0
	case t <= 37.7:
		return 1
	case t <= 38.9:
		return 2
	default:
		return 3
	}
}

func answerPostalCode(state *State, in Input) answer {
	code, ok := extract.PostalCode(extract.Preferred(in.EntityText, in.Utterance))
	if !ok {
		state.PostalCodeErrors++
		if state.PostalCodeErrors < maxPostalCodeErrors {
			return answer{reprompt: askAgainPostalCode}
		}
		// Give up on the postal code rather than loop forever; the score
		// gathered so far stands.
		return answer{nextNode: triage.TerminalPrefix}
	}
	value, err := strconv.ParseFloat(code, 64)
	if err != nil {
		return answer{reprompt: askAgainPostalCode}
	}
	return answer{partial: &score.Score{CodePostal: score.New(value)}, nextNode: triage.TerminalPrefix}
}

func answerGender(question *triage.Question, in Input) answer {
	entityValue := ""
	if in.EntityText == "woman" || in.EntityText == "man" {
		entityValue = in.EntityText
	}
	woman, ok := extract.Gender(entityValue, in.Utterance)
	if !ok {
		return answer{reprompt: askAgainGender}
	}
	choiceIndex, genderScore := 0, 1.0
	if woman {
		choiceIndex, genderScore = 1, 2.0
	}
	return answer{
		partial:  &score.Score{Homme: score.New(genderScore)},
		nextNode: nextNode(question.Choices[choiceIndex].Goto),
	}
}

// nextNode normalizes an empty choice target to the terminal marker.
func nextNode(target string) string {
	if target == "" {
		return triage.TerminalPrefix
	}
	return target
}

// bmi computes weight / height², defaulting absent operands to 1 so a
// skipped weight cannot divide by zero.
func bmi(weight, height float64) float64 {
	if weight == 0 {
		weight = 1
	}
	if height == 0 {
		height = 1
	}
	return math.Round(10*weight/(height*height)) / 10
}

// withBMI merges the BMI into a partial score and flags the prognostic
// risk factor at 30 and over.
func withBMI(partial score.Score, imc float64) score.Score {
	merged := partial.Add(&score.Score{IMC: score.New(imc)})
	if imc >= 30 {
		merged = merged.Add(&score.Score{FacteursPronostique: score.New(1)})
	}
	return merged
}
