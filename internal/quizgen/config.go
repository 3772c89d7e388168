package quizgen

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators is the ordered list of validators to run on every
	// generated draft. The first failure stops the pipeline.
	Validators []Validator

	// QuestionCount is the number of questions per quiz.
	QuestionCount int

	// OptionCount is the number of answer options per question.
	OptionCount int

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// MaxLessonChars truncates long lessons before they are sent.
	MaxLessonChars int

	// MaxAttempts bounds regeneration after a retryable validation failure.
	MaxAttempts int
}

// DefaultConfig returns a Config with the standard validator chain: three
// questions of four options each.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&PollLimitsValidator{},
			&DuplicateValidator{},
		},
		QuestionCount:  3,
		OptionCount:    4,
		MaxTokens:      1500,
		Temperature:    0.4,
		MaxLessonChars: 12000,
		MaxAttempts:    2,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.QuestionCount <= 0 {
		c.QuestionCount = def.QuestionCount
	}
	if c.OptionCount < 2 {
		c.OptionCount = def.OptionCount
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = def.MaxTokens
	}
	if c.MaxLessonChars <= 0 {
		c.MaxLessonChars = def.MaxLessonChars
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	return c
}
