package triage

import (
	"encoding/json"
	"strings"

	_ "embed"

	"github.com/myrjola/allocovid/internal/errors"
)

//go:embed conclusions.json
var conclusionsJSON string

// Conclusion is one of the eight fixed triage outcomes.
type Conclusion struct {
	// ID is the outcome label FIN1..FIN8.
	ID string `json:"-"`
	// Message is the user-facing text template.
	Message string `json:"message"`
	// Notification is the short template used for push/SMS notifications.
	Notification string `json:"notification"`

	cleanedMessage string
}

// CleanMessage is the message with markup normalized for plain-text
// transports.
func (c *Conclusion) CleanMessage() string {
	return c.cleanedMessage
}

// Orientation is the analytics category the official export format
// expects for this outcome.
func (c *Conclusion) Orientation() string {
	switch c.ID {
	case "FIN1":
		return "less_15"
	case "FIN2":
		return "home_surveillance"
	case "FIN3":
		return "consultation_surveillance_1"
	case "FIN4":
		return "consultation_surveillance_2"
	case "FIN5":
		return "SAMU"
	case "FIN6":
		return "consultation_surveillance_3"
	case "FIN7":
		return "consultation_surveillance_4"
	default:
		return "surveillance"
	}
}

// Conclusions is the immutable outcome registry.
type Conclusions struct {
	FIN1 Conclusion `json:"FIN1"`
	FIN2 Conclusion `json:"FIN2"`
	FIN3 Conclusion `json:"FIN3"`
	FIN4 Conclusion `json:"FIN4"`
	FIN5 Conclusion `json:"FIN5"`
	FIN6 Conclusion `json:"FIN6"`
	FIN7 Conclusion `json:"FIN7"`
	FIN8 Conclusion `json:"FIN8"`
}

// LoadConclusions decodes the embedded conclusion texts.
func LoadConclusions() (*Conclusions, error) {
	var decoded struct {
		Conclusions Conclusions `json:"conclusions"`
	}
	if err := json.Unmarshal([]byte(conclusionsJSON), &decoded); err != nil {
		return nil, errors.Wrap(err, "decode conclusions dataset")
	}

	cs := decoded.Conclusions
	for id, c := range map[string]*Conclusion{
		"FIN1": &cs.FIN1, "FIN2": &cs.FIN2, "FIN3": &cs.FIN3, "FIN4": &cs.FIN4,
		"FIN5": &cs.FIN5, "FIN6": &cs.FIN6, "FIN7": &cs.FIN7, "FIN8": &cs.FIN8,
	} {
		if c.Message == "" {
			return nil, errors.New("conclusion without message: " + id)
		}
		c.ID = id
		c.cleanedMessage = strings.NewReplacer("<br/>", "\n", "[15](tel:15)", "15").Replace(c.Message)
	}
	return &cs, nil
}
