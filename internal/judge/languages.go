package judge

import (
	"fmt"
	"sort"
	"strings"

	"code_practice/internal/common"
	"code_practice/internal/domain/model"
)

const (
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
	LangPython     = "python"
	LangJava       = "java"
	LangCPP        = "cpp"
	LangC          = "c"
	LangGo         = "go"
	LangRuby       = "ruby"
	LangCSharp     = "csharp"
)

var languages = map[string]model.Language{
	LangJavaScript: {Slug: LangJavaScript, Name: "JavaScript (Node.js 12.14.0)", JudgeID: 63, Wrapped: true},
	LangTypeScript: {Slug: LangTypeScript, Name: "TypeScript (3.7.4)", JudgeID: 74, Wrapped: true},
	LangPython:     {Slug: LangPython, Name: "Python (3.8.1)", JudgeID: 71, Wrapped: true},
	LangJava:       {Slug: LangJava, Name: "Java (OpenJDK 13.0.1)", JudgeID: 62},
	LangCPP:        {Slug: LangCPP, Name: "C++ (GCC 9.2.0)", JudgeID: 54},
	LangC:          {Slug: LangC, Name: "C (GCC 9.2.0)", JudgeID: 50},
	LangGo:         {Slug: LangGo, Name: "Go (1.13.5)", JudgeID: 60},
	LangRuby:       {Slug: LangRuby, Name: "Ruby (2.7.0)", JudgeID: 72},
	LangCSharp:     {Slug: LangCSharp, Name: "C# (Mono 6.6.0.161)", JudgeID: 51},
}

var aliases = map[string]string{
	"js":        LangJavaScript,
	"node":      LangJavaScript,
	"nodejs":    LangJavaScript,
	"ts":        LangTypeScript,
	"py":        LangPython,
	"python3":   LangPython,
	"c++":       LangCPP,
	"cplusplus": LangCPP,
	"golang":    LangGo,
	"rb":        LangRuby,
	"c#":        LangCSharp,
	"cs":        LangCSharp,
}

// LookupLanguage resolves a user supplied language name (case-insensitive, aliases allowed).
func LookupLanguage(name string) (model.Language, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	lang, ok := languages[key]
	if !ok {
		return model.Language{}, fmt.Errorf("unsupported language %q: %w", name, common.ErrBadRequest)
	}
	return lang, nil
}

// Languages lists supported languages ordered by slug.
func Languages() []model.Language {
	out := make([]model.Language, 0, len(languages))
	for _, l := range languages {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}
