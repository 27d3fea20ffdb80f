// Package triage holds the static questionnaire: the decision-tree of
// questions loaded from the embedded dataset, the eight fixed conclusions
// and the orientation algorithm that maps a final score to one of them.
// Both registries are loaded once at startup and are read-only afterwards,
// so they are safe for unsynchronized concurrent reads.
package triage

import (
	"encoding/json"
	"log/slog"
	"strings"

	_ "embed"

	"github.com/myrjola/allocovid/internal/errors"
	"github.com/myrjola/allocovid/internal/score"
)

//go:embed questions.json
var questionsJSON string

// ErrNodeNotFound signals a choice pointing at a node that is not in the
// registry. Load catches these at startup; hitting one at runtime is a
// programming error, not a user error.
var ErrNodeNotFound = errors.NewSentinel("question node not found")

// TerminalPrefix marks end-of-tree node identifiers. Reaching such a node
// triggers the conclusion evaluation.
const TerminalPrefix = "fin"

// freeEntryMarker is the dataset's placeholder for free-text-entry nodes.
// It sits where the choice list would be and is rewritten to an empty
// list before decoding.
const freeEntryMarker = `"Saisie utilisateur"`

// Extractor identifies which free-text extractor a node dispatches to.
// The set is closed: a node either has one of these or matches its
// choices generically.
type Extractor int

const (
	ExtractorNone Extractor = iota
	ExtractorTemperature
	ExtractorAge
	ExtractorWeight
	ExtractorHeight
	ExtractorPostalCode
	ExtractorGender
)

// extractorNodes mirrors the special node table of the questionnaire.
var extractorNodes = map[string]Extractor{
	"1.1.1": ExtractorTemperature,
	"2.1":   ExtractorAge,
	"2.2":   ExtractorWeight,
	"2.3":   ExtractorHeight,
	"2.13":  ExtractorPostalCode,
	"2.14":  ExtractorGender,
}

// labelIntents maps the literal choice labels to the fixed intent
// vocabulary. Each label additionally answers to a node-qualified variant
// such as "yes_breathlessness" so the transport can train per-question
// phrasings.
var labelIntents = map[string]string{
	"Oui":            "yes",
	"Non":            "no",
	"Je ne sais pas": "do_not_known",
	"Non applicable": "do_not_known",
}

// Choice is one outgoing edge of a question: a literal answer label, an
// optional partial score contribution and the target node. An empty Goto
// means "go to the final evaluation".
type Choice struct {
	Answer string       `json:"answer"`
	Score  *score.Score `json:"score"`
	Goto   string       `json:"goto"`
}

// Intents lists the intents this choice answers to, including the
// node-qualified synonym when the node is named.
func (c Choice) Intents(nodeName string) []string {
	base, ok := labelIntents[c.Answer]
	if !ok {
		return nil
	}
	if nodeName == "" {
		return []string{base}
	}
	return []string{base, base + "_" + nodeName}
}

// Question is a node in the decision graph.
type Question struct {
	Node    string   `json:"node"`
	Text    string   `json:"text"`
	Name    string   `json:"name"`
	Choices []Choice `json:"choices"`

	cleanedText string
}

// CleanText is the display text with line-break markup normalized.
func (q *Question) CleanText() string {
	return q.cleanedText
}

// Extractor returns the special extractor tag for this node, or
// ExtractorNone for generic choice matching.
func (q *Question) Extractor() Extractor {
	return extractorNodes[q.Node]
}

// Terminal reports whether this node is an end-of-tree marker.
func (q *Question) Terminal() bool {
	return strings.HasPrefix(q.Node, TerminalPrefix)
}

// EndsConversation reports whether reaching this node ends the
// conversation without conclusion evaluation: it has nothing to ask.
func (q *Question) EndsConversation() bool {
	return !q.Terminal() && len(q.Choices) == 0 && q.Extractor() == ExtractorNone
}

// Suggestions lists the choice labels for quick replies.
func (q *Question) Suggestions() []string {
	if len(q.Choices) == 0 {
		return nil
	}
	suggestions := make([]string, 0, len(q.Choices))
	for _, c := range q.Choices {
		suggestions = append(suggestions, c.Answer)
	}
	return suggestions
}

// Match scans the choices in order and returns the first one whose
// literal label equals the utterance or whose intent vocabulary contains
// the classified intent. Returns nil when nothing matches.
func (q *Question) Match(utterance, intent string) *Choice {
	for i := range q.Choices {
		c := &q.Choices[i]
		if utterance == c.Answer {
			return c
		}
		if intent == "" {
			continue
		}
		for _, candidate := range c.Intents(q.Name) {
			if intent == candidate {
				return c
			}
		}
	}
	return nil
}

// Questions is the immutable node registry.
type Questions struct {
	list   []Question
	byNode map[string]*Question
}

// LoadQuestions decodes the embedded question graph and fails fast when
// any choice references a node that does not exist.
func LoadQuestions() (*Questions, error) {
	var decoded struct {
		Questions []Question `json:"questions"`
	}
	raw := strings.ReplaceAll(questionsJSON, freeEntryMarker, "[]")
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, errors.Wrap(err, "decode questions dataset")
	}
	if len(decoded.Questions) == 0 {
		return nil, errors.New("questions dataset is empty")
	}

	qs := Questions{
		list:   decoded.Questions,
		byNode: make(map[string]*Question, len(decoded.Questions)),
	}
	for i := range qs.list {
		q := &qs.list[i]
		q.cleanedText = strings.NewReplacer("</br>", "\n", "<br/>", "\n").Replace(q.Text)
		if _, exists := qs.byNode[q.Node]; exists {
			return nil, errors.New("duplicate question node", slog.String("node", q.Node))
		}
		qs.byNode[q.Node] = q
	}

	for i := range qs.list {
		q := &qs.list[i]
		for _, c := range q.Choices {
			target := c.Goto
			if target == "" {
				// Null target means final evaluation.
				continue
			}
			if _, exists := qs.byNode[target]; !exists {
				return nil, errors.Wrap(ErrNodeNotFound, "validate choice target",
					slog.String("node", q.Node), slog.String("target", target))
			}
		}
	}
	return &qs, nil
}

// Start is the first question of the graph.
func (qs *Questions) Start() *Question {
	return &qs.list[0]
}

// Find looks up a question by node identifier.
func (qs *Questions) Find(node string) (*Question, error) {
	q, ok := qs.byNode[node]
	if !ok {
		return nil, errors.Wrap(ErrNodeNotFound, "find question", slog.String("node", node))
	}
	return q, nil
}

// Len reports the number of nodes, for dataset sanity checks.
func (qs *Questions) Len() int {
	return len(qs.list)
}

// freeEntrySuccessors lists where the free-entry nodes hand over after a
// successful extraction. The turn engine performs the same transitions.
var freeEntrySuccessors = map[string][]string{
	"2.1":  {"1.7", TerminalPrefix},
	"2.2":  {"2.3"},
	"2.13": {TerminalPrefix},
}

// Unreachable returns the nodes that no path from the start question
// visits, following the choice edges and the free-entry transitions.
func (qs *Questions) Unreachable() []string {
	seen := make(map[string]bool, len(qs.list))
	stack := []string{qs.list[0].Node}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[node] {
			continue
		}
		seen[node] = true
		q, ok := qs.byNode[node]
		if !ok {
			continue
		}
		for _, c := range q.Choices {
			target := c.Goto
			if target == "" {
				target = TerminalPrefix
			}
			stack = append(stack, target)
		}
		stack = append(stack, freeEntrySuccessors[node]...)
	}

	var unreachable []string
	for _, q := range qs.list {
		if !seen[q.Node] {
			unreachable = append(unreachable, q.Node)
		}
	}
	return unreachable
}
