package conversation_test

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/allocovid/internal/conversation"
	"github.com/myrjola/allocovid/internal/score"
	"github.com/myrjola/allocovid/internal/testhelpers"
	"github.com/myrjola/allocovid/internal/triage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *conversation.Engine {
	t.Helper()
	questions, err := triage.LoadQuestions()
	require.NoError(t, err)
	conclusions, err := triage.LoadConclusions()
	require.NoError(t, err)
	return conversation.NewEngine(questions, conclusions, testhelpers.NewLogger(io.Discard))
}

// step is one user turn and the reply it must produce.
type step struct {
	utterance string
	intent    string
	wantText  string
}

// play runs a transcript from a fresh session and returns the state and
// output after the last step.
func play(t *testing.T, engine *conversation.Engine, steps []step) (conversation.State, conversation.Output) {
	t.Helper()
	var (
		state conversation.State
		out   conversation.Output
		err   error
	)
	for i, s := range steps {
		state, out, err = engine.Turn(context.Background(), state, conversation.Input{
			Utterance: s.utterance,
			Intent:    s.intent,
		})
		require.NoError(t, err, "step %d (%q)", i, s.utterance)
		require.Equal(t, s.wantText, out.Text, "step %d (%q)", i, s.utterance)
	}
	return state, out
}

const (
	startText          = "Bonjour! Vous pensez avoir été exposé au Coronavirus COVID-19 et avez des symptômes. Souhaitez vous démarrer le test ?"
	ageText            = "Quel est votre âge ?"
	feedingText        = "Êtes-vous dans l'impossibilité de vous alimenter ou boire DEPUIS 24 HEURES OU PLUS ?"
	breathlessnessText = "Dans les dernières 24 heures, avez-vous noté un manque de souffle INHABITUEL lorsque vous parlez ou faites un petit effort ?"
	postalCodeText     = "Quel est le code postal du lieu où vous résidez actuellement ?"
)

func TestTurn_ageBelow15EndsConversation(t *testing.T) {
	engine := newEngine(t)

	_, out := play(t, engine, []step{
		{"Test covid", "", startText},
		{"Oui", "yes", ageText},
		{"12", "", "Prenez contact avec votre médecin généraliste au moindre doute.\n" +
			"Cette application n’est pour l’instant pas adaptée aux personnes de moins de 15 ans.\n" +
			"En cas d’urgence, appelez le 15."},
	})

	require.True(t, out.End)
	require.NotNil(t, out.Conclusion)
	assert.Equal(t, "FIN1", out.Conclusion.ID)
}

func TestTurn_breathlessnessShortCircuitsToEmergency(t *testing.T) {
	engine := newEngine(t)

	_, out := play(t, engine, []step{
		{"Test covid", "", startText},
		{"Oui", "yes", ageText},
		{"65 ans", "", feedingText},
		{"Non", "no", breathlessnessText},
		{"Oui je ne respire plus bien", "yes_breathlessness", postalCodeText},
		{"20 1000 102", "", "Appelez le 15."},
	})

	require.True(t, out.End)
	require.NotNil(t, out.Conclusion)
	assert.Equal(t, "FIN5", out.Conclusion.ID)
	assert.InDelta(t, 20102, out.Score.CodePostal.Score(), 0)
}

func TestTurn_noSymptomsEndsWithSurveillance(t *testing.T) {
	engine := newEngine(t)

	_, out := play(t, engine, []step{
		{"Test covid", "", startText},
		{"Je veux mon neveu !", "yes", ageText},
		{"55 ans", "", feedingText},
		{"Non", "no", breathlessnessText},
		{"Non", "no", "Pensez-vous avoir eu de la fièvre ces derniers jours (frissons, sueurs) ?"},
		{"Pas de fièvre", "no_fever", "Avez-vous une toux ou une augmentation de votre toux habituelle ces derniers jours ?"},
		{"Je ne tousse pas", "no_cough", "Avez-vous noté une forte diminution de votre goût, ou de votre odorat, ces derniers jours ?"},
		{"Non", "no", "Avez-vous un mal de gorge, ou des douleurs musculaires, ou des courbatures inhabituelles ces derniers jours ?"},
		{"Non", "no", "Avez-vous de la diarrhée ces dernières 24 heures (au moins 3 selles molles) ?"},
		{"Mes selles sont parfaites", "no_diarrhea", "Avez-vous une fatigue inhabituelle ces derniers jours ?"},
		{"Non", "no", "Avez-vous une hypertension artérielle mal équilibrée ? Ou une maladie cardiaque ou vasculaire ? Ou prenez-vous un traitement à visée cardiologique ?"},
		{"Pas de maladie du coeur", "no_heart_disease", "Êtes-vous diabétique ?"},
		{"Non plus", "no", "Avez-vous ou avez-vous eu un cancer dans les 3 dernières années ?"},
		{"Non", "no", "Avez-vous une maladie respiratoire ? Ou êtes-vous suivi par un pneumologue ?"},
		{"Non", "no", "Avez-vous une insuffisance rénale chronique dialysée ?"},
		{"Absolument pas", "no", "Avez-vous une maladie chronique du foie ?"},
		{"Non", "no", "Êtes-vous un homme ou une femme ?"},
		{"Une femme", "", "Êtes-vous enceinte ?"},
		{"Heureusement que non", "no", "Avez-vous une maladie connue pour diminuer vos défenses immunitaires ?"},
		{"Non", "no", "Prenez-vous un traitement immunosuppresseur ?"},
		{"Non", "no", "Quel est votre poids en kilogrammes ?"},
		{"70", "", "Quelle est votre taille en mètres ?"},
		{"1 mètre 70", "", postalCodeText},
		{"75 001", "", "Votre situation ne relève probablement pas du COVID 19. N’hésitez pas à contacter votre " +
			"médecin en cas de doute. Vous pouvez refaire le test en cas de nouveau symptôme pour réévaluer la " +
			"situation. Pour toute information concernant le COVID 19, composer le 0 800 130 000."},
	})

	require.True(t, out.End)
	require.NotNil(t, out.Conclusion)
	assert.Equal(t, "FIN8", out.Conclusion.ID)
	assert.InDelta(t, 24.2, out.Score.IMC.Score(), 0)
	assert.InDelta(t, 75001, out.Score.CodePostal.Score(), 0)
	assert.False(t, out.Score.FacteursPronostique.Bool())
	assert.InDelta(t, 2, out.Score.Homme.Score(), 0)
}

func TestTurn_postalCodeRetriesAreBounded(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	state, _ := play(t, engine, []step{
		{"Test covid", "", startText},
		{"Oui", "yes", ageText},
		{"65", "", feedingText},
		{"Oui", "yes", postalCodeText},
	})

	// Two failures reprompt without touching the pending question.
	for i := 0; i < 2; i++ {
		var (
			out conversation.Output
			err error
		)
		state, out, err = engine.Turn(ctx, state, conversation.Input{Utterance: "aucune idée"})
		require.NoError(t, err)
		assert.Equal(t, "Je n'ai pas bien compris votre code postal. Pouvez-vous l'indiquer à nouveau ?", out.Text)
		assert.False(t, out.End)
		assert.Equal(t, "2.13", state.Node)
	}

	// The third failure gives up and evaluates the score gathered so far.
	_, out, err := engine.Turn(ctx, state, conversation.Input{Utterance: "aucune idée"})
	require.NoError(t, err)
	require.True(t, out.End)
	require.NotNil(t, out.Conclusion)
	assert.Equal(t, "FIN5", out.Conclusion.ID)
	assert.Nil(t, out.Score.CodePostal)
}

func TestTurn_temperatureBuckets(t *testing.T) {
	engine := newEngine(t)

	start := []step{
		{"Test covid", "", startText},
		{"Oui", "yes", ageText},
		{"40", "", feedingText},
		{"Non", "no", breathlessnessText},
		{"Non", "no", "Pensez-vous avoir eu de la fièvre ces derniers jours (frissons, sueurs) ?"},
		{"Oui", "yes", "Quelle est votre température ?"},
	}

	t.Run("measured value is recorded", func(t *testing.T) {
		state, out := play(t, engine, append(start[:len(start):len(start)],
			step{"38 degrés 5", "", "Avez-vous une toux ou une augmentation de votre toux habituelle ces derniers jours ?"},
		))
		assert.Equal(t, "1.2", state.Node)
		assert.InDelta(t, 38.5, out.Score.Temperature.Score(), 1e-9)
		assert.False(t, out.Score.FacteursGraviteMineurs.Bool())
	})

	t.Run("39 degrees and over is a minor severity factor", func(t *testing.T) {
		_, out := play(t, engine, append(start[:len(start):len(start)],
			step{"39,5", "", "Avez-vous une toux ou une augmentation de votre toux habituelle ces derniers jours ?"},
		))
		assert.InDelta(t, 39.5, out.Score.Temperature.Score(), 1e-9)
		assert.InDelta(t, 1, out.Score.FacteursGraviteMineurs.Score(), 0)
	})

	t.Run("do not know falls back to the last choice", func(t *testing.T) {
		_, out := play(t, engine, append(start[:len(start):len(start)],
			step{"Je ne sais pas", "do_not_known", "Avez-vous une toux ou une augmentation de votre toux habituelle ces derniers jours ?"},
		))
		assert.Nil(t, out.Score.Temperature)
	})

	t.Run("noise is reprompted", func(t *testing.T) {
		state, out := play(t, engine, append(start[:len(start):len(start)],
			step{"je n'ai pas de thermomètre", "", "Je n'ai pas bien compris votre température. Pouvez-vous l'indiquer à nouveau ?"},
		))
		assert.Equal(t, "1.1.1", state.Node)
		assert.False(t, out.End)
	})
}

func TestTurn_bmiUsesPreviouslyRecordedWeight(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	state := conversation.State{
		Node:  "2.2",
		Score: score.Score{Age: score.New(40)},
	}

	state, out, err := engine.Turn(ctx, state, conversation.Input{Utterance: "100"})
	require.NoError(t, err)
	require.Equal(t, "2.3", state.Node)
	assert.InDelta(t, 100, out.Score.Poids.Score(), 0)

	// 100 / 1.70² = 34.6: obesity flags a prognostic risk factor.
	state, out, err = engine.Turn(ctx, state, conversation.Input{Utterance: "1 mètre 70"})
	require.NoError(t, err)
	require.Equal(t, "2.13", state.Node)
	assert.InDelta(t, 34.6, out.Score.IMC.Score(), 1e-9)
	assert.True(t, out.Score.FacteursPronostique.Bool())
}

func TestTurn_heightRangeLabels(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	start := conversation.State{
		Node:  "2.3",
		Score: score.Score{Age: score.New(40), Poids: score.New(70)},
	}

	t.Run("quick-reply label carries its lower bound", func(t *testing.T) {
		state, out, err := engine.Turn(ctx, start, conversation.Input{
			Utterance: "Entre 1 mètre 70 et 1 mètre 80",
		})
		require.NoError(t, err)
		require.Equal(t, "2.13", state.Node)
		assert.InDelta(t, 1.70, out.Score.Taille.Score(), 1e-9)
		// 70 / 1.70² = 24.2
		assert.InDelta(t, 24.2, out.Score.IMC.Score(), 1e-9)
		assert.False(t, out.Score.FacteursPronostique.Bool())
	})

	t.Run("unparseable answer is reprompted", func(t *testing.T) {
		state, out, err := engine.Turn(ctx, start, conversation.Input{
			Utterance: "je ne sais pas trop",
		})
		require.NoError(t, err)
		assert.Equal(t, "Je n'ai pas bien compris votre taille. Pouvez-vous l'indiquer à nouveau ?", out.Text)
		assert.Equal(t, "2.3", state.Node)
		assert.Nil(t, out.Score.Taille)
	})
}

func TestTurn_controlSignals(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	t.Run("refusing the start ends without conclusion", func(t *testing.T) {
		_, out := play(t, engine, []step{
			{"Test covid", "", startText},
			{"Non", "no", "D'accord. Vous pouvez refaire le test à tout moment en cas de symptôme. À bientôt !"},
		})
		assert.True(t, out.End)
		assert.Nil(t, out.Conclusion)
	})

	t.Run("repeat re-emits the pending question", func(t *testing.T) {
		state, _ := play(t, engine, []step{
			{"Test covid", "", startText},
			{"Oui", "yes", ageText},
		})
		newState, out, err := engine.Turn(ctx, state, conversation.Input{Utterance: "répète", Intent: "repeat"})
		require.NoError(t, err)
		assert.Equal(t, ageText, out.Text)
		assert.Equal(t, state.Node, newState.Node)
	})

	t.Run("goodbye discards the session", func(t *testing.T) {
		state, _ := play(t, engine, []step{
			{"Test covid", "", startText},
			{"Oui", "yes", ageText},
		})
		_, out, err := engine.Turn(ctx, state, conversation.Input{Utterance: "au revoir", Intent: "goodbye"})
		require.NoError(t, err)
		assert.Equal(t, "À bientôt !", out.Text)
		assert.True(t, out.End)
		assert.Nil(t, out.Conclusion)
	})

	t.Run("reset starts over and drops the score", func(t *testing.T) {
		state, _ := play(t, engine, []step{
			{"Test covid", "", startText},
			{"Oui", "yes", ageText},
			{"65", "", feedingText},
		})
		newState, out, err := engine.Turn(ctx, state, conversation.Input{Utterance: "on recommence", Intent: "reset"})
		require.NoError(t, err)
		assert.Equal(t, startText, out.Text)
		assert.Equal(t, "1", newState.Node)
		assert.Nil(t, newState.Score.Age)
	})

	t.Run("unrecognized answer reprompts without advancing", func(t *testing.T) {
		state, _ := play(t, engine, []step{
			{"Test covid", "", startText},
		})
		newState, out, err := engine.Turn(ctx, state, conversation.Input{Utterance: "peut-être"})
		require.NoError(t, err)
		assert.Equal(t, "Désolé, je n’ai pas compris votre réponse. Répondez par oui ou par non", out.Text)
		assert.False(t, out.End)
		assert.Equal(t, state.Node, newState.Node)
	})
}

func TestTurn_suggestionsFollowChoices(t *testing.T) {
	engine := newEngine(t)

	_, out, err := engine.Turn(context.Background(), conversation.State{}, conversation.Input{Utterance: "Test covid"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Oui", "Non"}, out.Suggestions)

	// Free-entry nodes have no quick replies.
	_, out, err = engine.Turn(context.Background(),
		conversation.State{Node: "1", Score: score.Score{}},
		conversation.Input{Utterance: "Oui"})
	require.NoError(t, err)
	assert.Empty(t, out.Suggestions)
}
