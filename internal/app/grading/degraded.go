package grading

import (
	"fmt"

	"code_practice/internal/domain/model"
	"code_practice/internal/judge"
)

// EvaluateDegraded stands in for the execution engine while its daily quota is exhausted.
// The code is not run and nothing is guessed about correctness: the result is Unverified
// and only says whether the expected entry point exists.
func EvaluateDegraded(lang model.Language, code, functionName string) *judge.Result {
	res := &judge.Result{Status: judge.StatusUnverified, Degraded: true}
	const prefix = "Execution engine unavailable (daily quota exhausted); solution was not run."

	if !lang.Wrapped {
		res.Message = fmt.Sprintf("%s Entry point checks are not available for %s.", prefix, lang.Name)
		return res
	}

	entry, found := DetectEntryPoint(lang.Slug, code)
	if functionName != "" {
		found = hasFunction(lang.Slug, code, functionName)
		entry = functionName
	}
	switch {
	case found:
		res.Message = fmt.Sprintf("%s Found function %q.", prefix, entry)
	case functionName != "":
		res.Message = fmt.Sprintf("%s Expected function %q was not found.", prefix, functionName)
	default:
		res.Message = prefix + " No solution function was found."
	}
	return res
}

func hasFunction(language, code, name string) bool {
	for _, candidate := range definedFunctions(language, code) {
		if candidate == name {
			return true
		}
	}
	return false
}

func definedFunctions(language, code string) []string {
	var names []string
	collect := func(matches [][]string) {
		for _, m := range matches {
			names = append(names, m[1])
		}
	}
	switch language {
	case judge.LangJavaScript, judge.LangTypeScript:
		collect(jsFunctionDecl.FindAllStringSubmatch(code, -1))
		collect(jsFunctionExpr.FindAllStringSubmatch(code, -1))
	case judge.LangPython:
		collect(pyMethod.FindAllStringSubmatch(code, -1))
		collect(pyFunction.FindAllStringSubmatch(code, -1))
	}
	return names
}
