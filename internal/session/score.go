package session

// ScorePercent returns the integer percentage of correct answers, rounded
// down. It returns 0 when total is not positive and never leaves [0, 100].
func ScorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	if correct < 0 {
		correct = 0
	}
	if correct > total {
		correct = total
	}
	return correct * 100 / total
}
