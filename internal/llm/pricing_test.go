package llm

import (
	"math"
	"testing"
)

func TestLookupCost(t *testing.T) {
	tests := []struct {
		model    string
		wantNil  bool
		wantIn   float64
		wantFree bool
	}{
		{model: "gpt-4o-mini", wantIn: 0.15},
		{model: "openai/gpt-4o-mini", wantIn: 0.15},
		{model: "google/gemini-2.0-flash-exp:free", wantFree: true},
		{model: "anthropic/claude-3-haiku", wantIn: 0.25},
		{model: "meta-llama/llama-3-8b", wantNil: true},
		{model: "", wantNil: true},
	}
	for _, tt := range tests {
		c := LookupCost(tt.model)
		switch {
		case tt.wantNil:
			if c != nil {
				t.Errorf("%q: expected nil, got %+v", tt.model, c)
			}
		case c == nil:
			t.Errorf("%q: expected pricing, got nil", tt.model)
		case tt.wantFree:
			if c.InputPerMTok != 0 || c.OutputPerMTok != 0 {
				t.Errorf("%q: expected free, got %+v", tt.model, c)
			}
		case c.InputPerMTok != tt.wantIn:
			t.Errorf("%q: input = %v, want %v", tt.model, c.InputPerMTok, tt.wantIn)
		}
	}
}

func TestModelCost_Cost(t *testing.T) {
	c := ModelCost{InputPerMTok: 0.15, OutputPerMTok: 0.6}
	got := c.Cost(1_000_000, 500_000)
	if math.Abs(got-0.45) > 1e-9 {
		t.Fatalf("cost = %v, want 0.45", got)
	}
}

func TestBaseModel(t *testing.T) {
	tests := map[string]string{
		"gpt-4o":                           "gpt-4o",
		"openai/gpt-4o-mini":               "gpt-4o-mini",
		"google/gemini-2.0-flash-exp:free": "gemini-2.0-flash-exp",
	}
	for in, want := range tests {
		if got := baseModel(in); got != want {
			t.Errorf("baseModel(%q) = %q, want %q", in, got, want)
		}
	}
}
