package classify

import "strings"

// keywordTable is a fixed, deterministic fallback: case-insensitive substring
// match against topic text, first match in table order wins.
var keywordTable = []struct {
	substr   string
	category string
	language string
}{
	{"react", "frontend", "javascript"},
	{"vue", "frontend", "javascript"},
	{"css", "frontend", ""},
	{"html", "frontend", ""},
	{"typescript", "frontend", "typescript"},
	{"django", "backend", "python"},
	{"flask", "backend", "python"},
	{"spring", "backend", "java"},
	{"node", "backend", "javascript"},
	{"golang", "backend", "go"},
	{" go ", "backend", "go"},
	{"rest api", "backend", ""},
	{"sql", "data", ""},
	{"pandas", "data", "python"},
	{"machine learning", "data", "python"},
	{"tensorflow", "data", "python"},
	{"data pipeline", "data", ""},
	{"docker", "devops", ""},
	{"kubernetes", "devops", ""},
	{"terraform", "devops", ""},
	{"ci/cd", "devops", ""},
	{"aws", "devops", ""},
	{"swift", "mobile", "swift"},
	{"kotlin", "mobile", "kotlin"},
	{"flutter", "mobile", "dart"},
	{"android", "mobile", ""},
	{"ios", "mobile", ""},
}

// classifyByKeyword is the deterministic fallback used when the AI call
// fails or quota is exhausted. It always returns a result with confidence 1
// for a matched keyword, or the general/0.3 default for no match.
func classifyByKeyword(topic string) Result {
	lower := strings.ToLower(topic)
	for _, entry := range keywordTable {
		if strings.Contains(lower, entry.substr) {
			return Result{Category: entry.category, Language: entry.language, Confidence: 1.0}
		}
	}
	return Result{Category: "general", Confidence: 0.3}
}
