package grading

import (
	"encoding/json"
	"reflect"
	"strings"
	"unicode"
)

// MatchMethod names the comparison that accepted an output.
type MatchMethod string

const (
	MatchNone     MatchMethod = ""
	MatchExact    MatchMethod = "exact"
	MatchJSON     MatchMethod = "json"
	MatchLastLine MatchMethod = "last_line"
	MatchContains MatchMethod = "contains"
)

var (
	quoteReplacer       = strings.NewReplacer("'", `"`, "‘", `"`, "’", `"`, "“", `"`, "”", `"`)
	typographicReplacer = strings.NewReplacer("‘", "'", "’", "'", "“", `"`, "”", `"`)
)

// CompareOutputs decides whether actual stdout matches the expected output. In order:
// whitespace and quote insensitive equality, structural JSON equality, the same two
// checks on the last non-empty stdout line, and finally punctuation-stripped containment
// of whole words. Numbers, arrays, objects and booleans never match by containment.
func CompareOutputs(expected, actual string) (bool, MatchMethod) {
	if stripped(expected) == stripped(actual) {
		return true, MatchExact
	}
	if jsonEqual(expected, actual) {
		return true, MatchJSON
	}
	if last := lastLine(actual); last != "" && last != strings.TrimSpace(actual) {
		if stripped(expected) == stripped(last) || jsonEqual(expected, last) {
			return true, MatchLastLine
		}
	}
	if structured(expected) {
		return false, MatchNone
	}
	if containsWords(words(actual), words(expected)) {
		return true, MatchContains
	}
	return false, MatchNone
}

// structured reports whether s is a JSON value other than a string.
func structured(s string) bool {
	var v interface{}
	if json.Unmarshal([]byte(toJSON(typographicReplacer.Replace(strings.TrimSpace(s)))), &v) != nil {
		return false
	}
	_, isString := v.(string)
	return !isString
}

func stripped(s string) string {
	s = quoteReplacer.Replace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func jsonEqual(a, b string) bool {
	var va, vb interface{}
	if json.Unmarshal([]byte(toJSON(typographicReplacer.Replace(strings.TrimSpace(a)))), &va) != nil {
		return false
	}
	if json.Unmarshal([]byte(toJSON(typographicReplacer.Replace(strings.TrimSpace(b)))), &vb) != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// words lowercases s and splits it on everything that is not a letter or digit.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsWords reports whether want appears in have as a contiguous run.
func containsWords(have, want []string) bool {
	if len(want) == 0 {
		return false
	}
	for i := 0; i+len(want) <= len(have); i++ {
		match := true
		for j := range want {
			if have[i+j] != want[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
