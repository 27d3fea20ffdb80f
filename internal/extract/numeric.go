// Package extract turns noisy free-text answers into typed values. The
// pipelines are tuned for French speech-to-text output: spoken number
// idioms are substituted first, then everything that is not a digit or
// whitespace is dropped and the remaining digit groups are combined with
// a per-field policy. A failed parse or an out-of-range result both
// report !ok so the caller can reprompt.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Preferred picks the upstream-extracted entity text over the raw
// utterance, but only when it is non-empty and contains a digit.
func Preferred(entityText, utterance string) string {
	if entityText != "" && strings.ContainsFunc(entityText, unicode.IsDigit) {
		return entityText
	}
	return utterance
}

// tokens substitutes spoken idioms, strips everything that is not a digit
// or whitespace and splits the rest into digit groups.
func tokens(input string, replacements ...string) []string {
	s := strings.NewReplacer(replacements...).Replace(input)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Fields(b.String())
}

func parseFirst(parts []string) (float64, bool) {
	if len(parts) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Age parses an age answer. Only the first digit group counts, e.g.
// "12 et demi" is 12. Valid ages are in the open interval (0, 150).
func Age(input string) (float64, bool) {
	age, ok := parseFirst(tokens(input,
		",", " ",
		"virgule", " ",
		"et demi", " 5",
	))
	if !ok || age <= 0 || age >= 150 {
		return 0, false
	}
	return age, true
}

// Weight parses a weight answer in kilograms, in the open interval (0, 300).
func Weight(input string) (float64, bool) {
	weight, ok := parseFirst(tokens(input,
		",", " ",
		"virgule", " ",
		"et demi", " 5",
		"kilo", " ",
		"kg", " ",
	))
	if !ok || weight <= 0 || weight >= 300 {
		return 0, false
	}
	return weight, true
}

// Height parses a height answer in meters. With two digit groups the
// first is meters and the second is centimeters: a single digit means
// tenths ("1 7" is 1.7) and two or more digits mean hundredths ("1 70"
// is 1.70, extra digits are ignored). Values above 99 are assumed to be
// centimeters and divided by 100. The result must fall in (0.5, 3) and
// is rounded up to two decimals.
func Height(input string) (float64, bool) {
	parts := tokens(input,
		",", " ",
		"virgule", " ",
		"un mètre", "1 ",
		"en mettre", "1 ",
		"à mettre", "1 ",
		"deux mètres", "2 ",
		"de mettre", "2 ",
		"mettre", "1 ",
		"metres", " ",
		"metre", " ",
		"mètres", " ",
		"mètre", " ",
	)
	height, ok := parseFirst(parts)
	if !ok {
		return 0, false
	}
	if len(parts) > 1 {
		frac := parts[1]
		if len(frac) == 1 {
			d, _ := strconv.ParseFloat(frac, 64)
			height += d / 10
		} else {
			d, _ := strconv.ParseFloat(frac[:2], 64)
			height += d / 100
		}
	}
	if height > 99 && height < 300 {
		height /= 100
	}
	if height <= 0.5 || height >= 3 {
		return 0, false
	}
	return ceil2(height), true
}

var trailingDe = regexp.MustCompile(` de$`)

// Temperature parses a temperature answer in °C. With two digit groups
// the first digit of the second group is tenths, so "38 degrés 5" is
// 38.5. Valid temperatures are in the open interval (30, 50).
func Temperature(input string) (float64, bool) {
	replaced := strings.NewReplacer(
		",", " ",
		"virgule", " ",
		"et demi", " 5",
	).Replace(input)
	parts := tokens(trailingDe.ReplaceAllString(replaced, " 2"))
	temperature, ok := parseFirst(parts)
	if !ok {
		return 0, false
	}
	if len(parts) > 1 {
		d, _ := strconv.ParseFloat(parts[1][:1], 64)
		temperature += d / 10
	}
	if temperature <= 30 || temperature >= 50 {
		return 0, false
	}
	return temperature, true
}

// ceil2 rounds up to two decimals. The small bias keeps exact hundredths
// from creeping over to the next cent through binary float noise.
func ceil2(v float64) float64 {
	return math.Ceil(v*100-1e-9) / 100
}
