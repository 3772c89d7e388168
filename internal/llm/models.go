package llm

import "strings"

// Friendly model names accepted in configuration, per provider. Names not
// listed are passed to the provider unchanged.
var (
	anthropicModels = map[string]string{
		"claude-sonnet": "claude-sonnet-4-20250514",
		"claude-haiku":  "claude-haiku-4-5-20251001",
	}
	openaiModels = map[string]string{
		"gpt-4o":       "gpt-4o",
		"gpt-4o-mini":  "gpt-4o-mini",
		"gpt-4.1-mini": "gpt-4.1-mini",
	}
	geminiModels = map[string]string{
		"gemini-flash": "gemini-2.0-flash",
		"gemini-pro":   "gemini-2.0-pro",
	}
)

func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}

// baseModel strips the vendor prefix and variant suffix that gateways put
// around a model id: "openai/gpt-4o-mini:free" becomes "gpt-4o-mini".
func baseModel(id string) string {
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		id = id[i+1:]
	}
	if i := strings.IndexByte(id, ':'); i >= 0 {
		id = id[:i]
	}
	return id
}
