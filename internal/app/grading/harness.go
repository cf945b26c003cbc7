package grading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"code_practice/internal/domain/model"
	"code_practice/internal/judge"
)

var (
	ErrUnbalancedInput = errors.New("unbalanced brackets or quotes in input")
	ErrNoEntryPoint    = errors.New("could not find the solution function")
)

// Argument is one parsed test input value.
type Argument struct {
	Name  string
	Value interface{}
	JSON  string
}

var argNamePrefix = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=`)

// ParseArguments turns a test case input such as `nums = [2,7,11,15], target = 9`
// into its argument values. Arguments are separated by top-level commas or newlines.
func ParseArguments(input string) ([]Argument, error) {
	parts, err := splitTopLevel(input)
	if err != nil {
		return nil, err
	}

	args := make([]Argument, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var name string
		if m := argNamePrefix.FindStringSubmatchIndex(part); m != nil && !strings.HasPrefix(part[m[1]:], "=") {
			name = part[m[2]:m[3]]
			part = strings.TrimSpace(part[m[1]:])
		}
		if part == "" {
			return nil, fmt.Errorf("argument %q has no value", name)
		}

		value, err := parseLiteral(part)
		if err != nil {
			return nil, fmt.Errorf("invalid argument %q: %w", part, err)
		}
		encoded, err := encodeJSON(value)
		if err != nil {
			return nil, err
		}
		args = append(args, Argument{Name: name, Value: value, JSON: encoded})
	}
	return args, nil
}

func splitTopLevel(input string) ([]string, error) {
	var (
		parts []string
		depth int
		quote rune
		esc   bool
		start int
	)
	for i, r := range input {
		if quote != 0 {
			switch {
			case esc:
				esc = false
			case r == '\\':
				esc = true
			case r == quote:
				quote = 0
			}
			continue
		}
		switch r {
		case '"', '\'':
			quote = r
		case '[', '{', '(':
			depth++
		case ']', '}', ')':
			depth--
			if depth < 0 {
				return nil, ErrUnbalancedInput
			}
		case ',', '\n':
			if depth == 0 {
				parts = append(parts, input[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 || quote != 0 {
		return nil, ErrUnbalancedInput
	}
	return append(parts, input[start:]), nil
}

// parseLiteral accepts JSON plus single-quoted strings and True/False/None.
func parseLiteral(s string) (interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(toJSON(s)))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after value")
	}
	return v, nil
}

// toJSON rewrites Python-style literals into JSON. Double-quoted strings are left untouched.
func toJSON(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			j := i + 1
			for ; j < len(runes); j++ {
				if runes[j] == '\\' {
					j++
					continue
				}
				if runes[j] == '"' {
					break
				}
			}
			if j >= len(runes) {
				j = len(runes) - 1
			}
			b.WriteString(string(runes[i : j+1]))
			i = j
		case r == '\'':
			b.WriteByte('"')
			for i++; i < len(runes) && runes[i] != '\''; i++ {
				switch {
				case runes[i] == '\\' && i+1 < len(runes):
					if runes[i+1] == '\'' {
						b.WriteByte('\'')
					} else {
						b.WriteRune(runes[i])
						b.WriteRune(runes[i+1])
					}
					i++
				case runes[i] == '"':
					b.WriteString(`\"`)
				default:
					b.WriteRune(runes[i])
				}
			}
			b.WriteByte('"')
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			word := string(runes[i:j])
			switch word {
			case "True":
				word = "true"
			case "False":
				word = "false"
			case "None":
				word = "null"
			}
			b.WriteString(word)
			i = j - 1
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func encodeJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode argument: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

var (
	jsFunctionDecl  = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(`)
	jsFunctionExpr  = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*(?::[^=]+)?=>|[A-Za-z_$][\w$]*\s*=>)`)
	pyClassSolution = regexp.MustCompile(`(?m)^class\s+Solution\b`)
	pyMethod        = regexp.MustCompile(`(?m)^[ \t]+def\s+([A-Za-z_]\w*)\s*\(\s*self\b`)
	pyFunction      = regexp.MustCompile(`(?m)^def\s+([A-Za-z_]\w*)\s*\(`)
)

// DetectEntryPoint finds the callable the harness should invoke. Python methods of
// `class Solution` come back as `Solution().name`.
func DetectEntryPoint(language, code string) (string, bool) {
	switch language {
	case judge.LangJavaScript, judge.LangTypeScript:
		if m := jsFunctionDecl.FindStringSubmatch(code); m != nil {
			return m[1], true
		}
		if m := jsFunctionExpr.FindStringSubmatch(code); m != nil {
			return m[1], true
		}
	case judge.LangPython:
		if pyClassSolution.MatchString(code) {
			for _, m := range pyMethod.FindAllStringSubmatch(code, -1) {
				if !strings.HasPrefix(m[1], "__") {
					return "Solution()." + m[1], true
				}
			}
		}
		if m := pyFunction.FindStringSubmatch(code); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// resolveEntryPoint prefers the configured function name over detection.
func resolveEntryPoint(language, code, functionName string) (string, bool) {
	if functionName == "" {
		return DetectEntryPoint(language, code)
	}
	if language == judge.LangPython && pyClassSolution.MatchString(code) {
		method := regexp.MustCompile(`(?m)^[ \t]+def\s+` + regexp.QuoteMeta(functionName) + `\s*\(\s*self\b`)
		if method.MatchString(code) {
			return "Solution()." + functionName, true
		}
	}
	return functionName, true
}

// Program is what gets sent to the execution engine for one test case.
type Program struct {
	Source string
	Stdin  string
}

// Prepare wraps code so it prints the JSON result of calling the solution with input.
// Languages without a harness run unchanged and read the input from stdin.
func Prepare(lang model.Language, code, functionName, input string) (Program, error) {
	if !lang.Wrapped {
		return Program{Source: code, Stdin: input}, nil
	}

	entry, ok := resolveEntryPoint(lang.Slug, code, functionName)
	if !ok {
		return Program{}, ErrNoEntryPoint
	}
	args, err := ParseArguments(input)
	if err != nil {
		return Program{}, err
	}

	var b strings.Builder
	switch lang.Slug {
	case judge.LangPython:
		literals := make([]string, len(args))
		for i, a := range args {
			literals[i] = "json.loads(" + strconv.Quote(a.JSON) + ")"
		}
		b.WriteString("import json\n")
		b.WriteString(code)
		b.WriteString("\n\nprint(json.dumps(")
		b.WriteString(entry)
		b.WriteString("(" + strings.Join(literals, ", ") + ")))\n")
	default:
		literals := make([]string, len(args))
		for i, a := range args {
			literals[i] = a.JSON
		}
		b.WriteString(code)
		b.WriteString("\n\nconsole.log(JSON.stringify(")
		b.WriteString(entry)
		b.WriteString("(" + strings.Join(literals, ", ") + ")));\n")
	}
	return Program{Source: b.String()}, nil
}
