package extract

import "strings"

// Gender reports whether the answer designates a woman. A pre-classified
// entity value ("woman"/"man") wins over the text scan. The scan checks
// female markers before male ones because "bonhomme" contains "homme"
// and "femme" would otherwise never shadow it. ok is false when nothing
// matched and the caller should reprompt.
func Gender(entityValue, text string) (woman, ok bool) {
	if entityValue != "" {
		return entityValue == "woman", true
	}
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "femme") || strings.Contains(lowered, "fille"):
		return true, true
	case strings.Contains(lowered, "bonhomme") || strings.Contains(lowered, "homme"):
		return false, true
	default:
		return false, false
	}
}
