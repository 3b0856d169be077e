package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeLabel returns s in NFC form with runs of whitespace collapsed to a
// single space and the ends trimmed.
func NormalizeLabel(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// NormalizeLabels normalizes every element and drops the ones that end up
// blank. A nil input yields nil so callers can tell "not provided" apart from
// "cleared".
func NormalizeLabels(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if label := NormalizeLabel(v); label != "" {
			out = append(out, label)
		}
	}
	return out
}

// DisplayStatus turns a snake_case status into title-cased words
// ("in_progress" becomes "In Progress").
func DisplayStatus(status string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(status))
	if len(words) == 0 {
		return ""
	}
	return cases.Title(language.Und).String(strings.ToLower(strings.Join(words, " ")))
}
