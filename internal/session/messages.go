package session

import (
	"fmt"
	"strings"

	"github.com/abhisek/lessonquiz/internal/quiz"
)

func correctMessage(q quiz.Question) string {
	return withExplanation("✅ Correct!", q)
}

func wrongMessage(q quiz.Question) string {
	return withExplanation(fmt.Sprintf("❌ Wrong!\nCorrect answer: %s", q.CorrectOption()), q)
}

func timeoutMessage(q quiz.Question) string {
	return withExplanation(fmt.Sprintf("⏰ Time's up!\nCorrect answer: %s", q.CorrectOption()), q)
}

func withExplanation(head string, q quiz.Question) string {
	if q.Explanation == "" {
		return head
	}
	return head + "\n\n" + q.Explanation
}

func finishedMessage(correct, total, pct int) string {
	var b strings.Builder
	b.WriteString("🏁 Quiz finished!\n\n")
	fmt.Fprintf(&b, "📊 Result: %d/%d\n", correct, total)
	fmt.Fprintf(&b, "📈 Correct: %d%%", pct)
	return b.String()
}

const (
	abortedMessage = "🚪 Quiz stopped.\nYour result was not saved."
	failedMessage  = "❌ Something went wrong while sending the quiz. It has been stopped, please try again later."
)
