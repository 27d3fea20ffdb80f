package extract

import (
	"strconv"
	"strings"
	"unicode"
)

// PostalCode parses a French postal code recited in irregular digit
// groups, e.g. "75 1000 11" for 75011 where the speaker spelled out a
// thousand marker. The grammar branches on the number of digit groups:
//
//	1 group:   taken as-is
//	2 groups:  department + completion, with thousand-marker and
//	           zero-padding deductions on both sides
//	3 groups:  the middle group disambiguates how the department was
//	           spelled before the completion is zero-padded to 5 digits
//	4+ groups: all digits concatenated
//
// The result is truncated to 5 digits and accepted only if it is all
// digits and at least 2 long.
func PostalCode(input string) (string, bool) {
	var parts []string
	for _, field := range strings.Fields(strings.ReplaceAll(input, ",", " ")) {
		digits := strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) {
				return r
			}
			return -1
		}, field)
		if digits != "" {
			parts = append(parts, digits)
		}
	}

	var code string
	switch len(parts) {
	case 1:
		code = parts[0]
	case 2:
		code = postalCodeTwoParts(parts[0], parts[1])
	case 3:
		code = postalCodeThreeParts(parts[0], parts[1], parts[2])
	default:
		code = strings.Join(parts, "")
	}
	return verifyFiveDigit(code)
}

func postalCodeTwoParts(part1, part2 string) string {
	dep := leftPadZero(strings.TrimSuffix(part1, "000"), 2)

	compl := leftPadZero(part2, 3)
	if n, err := strconv.Atoi(part2); err == nil && n >= 1000 && n <= 1999 {
		compl = part2[1:]
	}
	return dep + compl
}

func postalCodeThreeParts(part1, part2, part3 string) string {
	var dep string
	switch {
	case strings.HasSuffix(part2, "1000"):
		dep = leftPadZero(strings.TrimSuffix(part1, "000"), 2)
	case strings.HasSuffix(part2, "00"):
		dep = leftPadZero(strings.TrimSuffix(part1, "00"), 2) + part2[:1]
	case part2 == "0":
		dep = strings.TrimSuffix(part1, "0")
	default:
		dep = part1 + part2
	}

	padding := 5 - len(part3) - len(dep)
	if padding < 1 {
		padding = 0
	}
	return dep + strings.Repeat("0", padding) + part3
}

func verifyFiveDigit(code string) (string, bool) {
	if len(code) > 5 {
		code = code[:5]
	}
	if len(code) < 2 {
		return "", false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return "", false
		}
	}
	return code, true
}

func leftPadZero(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
