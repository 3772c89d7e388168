package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lessonquiz/internal/store"
	"github.com/abhisek/lessonquiz/internal/telegram"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List lessons created by an author",
	RunE: func(cmd *cobra.Command, args []string) error {
		author, _ := cmd.Flags().GetInt64("author")
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		lessons, err := s.LessonsByAuthor(cmd.Context(), author, limit)
		if err != nil {
			return fmt.Errorf("query lessons: %w", err)
		}
		renderLessons(cmd.OutOrStdout(), lessons, cfg.BotUsername)
		return nil
	},
}

// renderLessons lists lessons with their first line. The deep link column
// appears only when the bot username is known.
func renderLessons(w io.Writer, lessons []store.Lesson, botUsername string) {
	if len(lessons) == 0 {
		fmt.Fprintln(w, "No lessons found.")
		return
	}
	headers := []string{"ID", "Created", "Lesson"}
	if botUsername != "" {
		headers = append(headers, "Link")
	}
	t := newTable(headers...)
	for _, l := range lessons {
		first, _, _ := strings.Cut(strings.TrimSpace(l.Text), "\n")
		row := []string{l.ID, l.CreatedAt.Local().Format(timeLayout), truncate(strings.TrimSpace(first), 48)}
		if botUsername != "" {
			row = append(row, telegram.DeepLink(botUsername, l.ID))
		}
		t.Row(row...)
	}
	printTable(w, t)
}

func init() {
	lessonsCmd.Flags().Int64("author", 0, "Telegram user id of the author (1 for lessons saved by play)")
	lessonsCmd.Flags().IntP("limit", "n", 20, "Number of lessons to show")
	lessonsCmd.MarkFlagRequired("author")
}
