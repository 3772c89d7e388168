package telegram

import (
	"fmt"
	"strings"

	"github.com/abhisek/lessonquiz/internal/store"
)

const welcomeMessage = `👋 Hi! I turn lessons into short quizzes.

Teachers: send /lesson with your lesson text and share the link I reply with.
Students: open the link your teacher gave you to start the quiz.

Send /help for all commands.`

const helpMessage = `Commands:
/lesson <text> - create a quiz link from a lesson
/links - list your lessons
/results <lesson id> - see results for one of your lessons
/stop - stop the quiz in progress
/help - show this message`

func lessonSavedMessage(link, lessonID string) string {
	return fmt.Sprintf("✅ Lesson saved.\n\nShare this link with your students:\n%s\n\nSee results with /results %s", link, lessonID)
}

func linksMessage(username string, lessons []store.Lesson) string {
	if len(lessons) == 0 {
		return "You have no lessons yet. Send /lesson to create one."
	}
	var b strings.Builder
	b.WriteString("📚 Your lessons:\n")
	for i, l := range lessons {
		fmt.Fprintf(&b, "\n%d. %s\n%s\n", i+1, preview(l.Text, 60), DeepLink(username, l.ID))
	}
	return b.String()
}

func resultsMessage(lessonID string, results []store.ResultRecord) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results yet for lesson %s.", lessonID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Results for lesson %s:\n", lessonID)
	for _, r := range results {
		fmt.Fprintf(&b, "\n• learner %d: %d/%d (%d%%), %s",
			r.LearnerID, r.CorrectCount, r.TotalQuestions, r.ScorePct,
			r.CompletedAt.Format("2006-01-02 15:04"))
	}
	return b.String()
}

// preview returns the first line of s, cut to max runes.
func preview(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return truncate(strings.TrimSpace(s), max)
}
