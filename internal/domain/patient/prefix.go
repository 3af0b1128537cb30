package patient

import (
	"strconv"
	"strings"
	"unicode"
)

// honorifics stripped from the front of a doctor's display name before
// deriving an identifier prefix. Comparison is case-insensitive and ignores
// a trailing dot.
var honorifics = map[string]struct{}{
	"dr":   {},
	"mr":   {},
	"mrs":  {},
	"ms":   {},
	"prof": {},
}

// DerivePrefix computes the patient identifier prefix for a doctor.
//
// The prefix is the uppercased first three letters of the doctor's first
// name token, plus the uppercased first letter of the last token when the
// name has more than one token. Short names are right-padded with digits
// from the doctor's numeric id until the prefix reaches three characters.
func DerivePrefix(fullName string, doctorID int64) string {
	tokens := nameTokens(fullName)

	var b strings.Builder
	if len(tokens) > 0 {
		first := []rune(tokens[0])
		for i := 0; i < len(first) && i < 3; i++ {
			b.WriteRune(unicode.ToUpper(first[i]))
		}
		if len(tokens) > 1 {
			last := []rune(tokens[len(tokens)-1])
			b.WriteRune(unicode.ToUpper(last[0]))
		}
	}

	prefix := []rune(b.String())
	if len(prefix) < 3 {
		prefix = padWithID(prefix, doctorID, 3)
	}
	return string(prefix)
}

// FallbackPrefix is used when two doctors derive the same prefix: the first
// two letters of the colliding prefix plus the doctor's id zero-padded to
// at least two digits.
func FallbackPrefix(prefix string, doctorID int64) string {
	r := []rune(prefix)
	if len(r) > 2 {
		r = r[:2]
	}
	id := strconv.FormatInt(doctorID, 10)
	if len(id) < 2 {
		id = "0" + id
	}
	return string(r) + id
}

// nameTokens splits a display name into tokens, dropping leading honorific
// titles such as "Dr." so that "Dr. Sarah Wilson" derives from "Sarah Wilson".
func nameTokens(fullName string) []string {
	tokens := strings.Fields(fullName)
	for len(tokens) > 0 {
		t := strings.ToLower(strings.TrimSuffix(tokens[0], "."))
		if _, ok := honorifics[t]; !ok {
			break
		}
		tokens = tokens[1:]
	}
	return tokens
}

// padWithID right-pads prefix with digits of doctorID up to want runes,
// cycling the digits when the id is shorter than the gap.
func padWithID(prefix []rune, doctorID int64, want int) []rune {
	digits := []rune(strconv.FormatInt(doctorID, 10))
	for i := 0; len(prefix) < want; i++ {
		prefix = append(prefix, digits[i%len(digits)])
	}
	return prefix
}
