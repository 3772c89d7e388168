package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/lessonquiz/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List stored quiz results for a lesson or a learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		lessonID, _ := cmd.Flags().GetString("lesson")
		learnerID, _ := cmd.Flags().GetInt64("learner")
		limit, _ := cmd.Flags().GetInt("limit")
		if (lessonID == "") == (learnerID == 0) {
			return fmt.Errorf("specify exactly one of --lesson or --learner")
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		opts := store.QueryOpts{Limit: limit}
		var results []store.ResultRecord
		if lessonID != "" {
			results, err = s.ResultsByLesson(ctx, lessonID, opts)
		} else {
			results, err = s.ResultsByLearner(ctx, learnerID, opts)
		}
		if err != nil {
			return fmt.Errorf("query results: %w", err)
		}

		renderResults(cmd.OutOrStdout(), results)
		return nil
	},
}

func renderResults(w io.Writer, results []store.ResultRecord) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}
	t := newTable("ID", "Completed", "Learner", "Lesson", "Score", "Pct")
	for _, r := range results {
		t.Row(
			strconv.FormatInt(r.ID, 10),
			r.CompletedAt.Local().Format(timeLayout),
			strconv.FormatInt(r.LearnerID, 10),
			r.LessonID,
			fmt.Sprintf("%d/%d", r.CorrectCount, r.TotalQuestions),
			fmt.Sprintf("%d%%", r.ScorePct),
		)
	}
	printTable(w, t)
}

func init() {
	resultsCmd.Flags().String("lesson", "", "Lesson id")
	resultsCmd.Flags().Int64("learner", 0, "Telegram user id of the learner")
	resultsCmd.Flags().IntP("limit", "n", 50, "Number of results to show")
}
