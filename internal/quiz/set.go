package quiz

// QuestionSet is an ordered, fixed-length list of questions. The zero value
// is an empty set; use NewQuestionSet to build a usable one.
type QuestionSet struct {
	questions []Question
}

// NewQuestionSet copies questions into a new set. A set must hold at least
// one question.
func NewQuestionSet(questions []Question) (QuestionSet, error) {
	if len(questions) == 0 {
		return QuestionSet{}, ErrEmptySet
	}
	qs := make([]Question, len(questions))
	for i, q := range questions {
		qs[i] = q.clone()
	}
	return QuestionSet{questions: qs}, nil
}

// Len returns the number of questions.
func (s QuestionSet) Len() int {
	return len(s.questions)
}

// At returns a copy of the question at index i. It panics if i is out of range.
func (s QuestionSet) At(i int) Question {
	return s.questions[i].clone()
}

// Questions returns copies of all questions in order.
func (s QuestionSet) Questions() []Question {
	out := make([]Question, len(s.questions))
	for i, q := range s.questions {
		out[i] = q.clone()
	}
	return out
}
