package llm

import (
	"encoding/json"
	"strings"
)

// extractJSON returns the JSON document in a model's text output. Some
// OpenAI-compatible gateways ignore the response format and wrap the object
// in a markdown fence or a sentence of prose.
func extractJSON(text string) json.RawMessage {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// Drop the info string ("json") on the fence line.
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	if !json.Valid([]byte(s)) {
		i, j := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
		if i >= 0 && j > i && json.Valid([]byte(s[i:j+1])) {
			s = s[i : j+1]
		}
	}
	return json.RawMessage(s)
}

// checkContent validates content against the request schema. Output that
// was cut off at the token limit is reported as ErrMaxTokensExceeded, since
// asking again with the same limit would fail the same way.
func checkContent(req Request, content json.RawMessage, stopReason string) error {
	if req.Schema == nil {
		return nil
	}
	err := validateResponse(req.Schema, content)
	if err != nil && stopReason == "max_tokens" {
		return &ErrMaxTokensExceeded{Content: content}
	}
	return err
}
