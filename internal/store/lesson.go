package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type lessonRepo struct {
	db *sql.DB
}

func (r *lessonRepo) CreateLesson(ctx context.Context, authorID int64, text string) (*Lesson, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("lesson text is empty")
	}

	l := &Lesson{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(lessonsTable).
		Columns("id", "author_id", "text", "created_at").
		Values(l.ID, l.AuthorID, l.Text, l.CreatedAt).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("save lesson: %w", err)
	}
	return l, nil
}

func (r *lessonRepo) GetLesson(ctx context.Context, id string) (*Lesson, error) {
	query, args := selectLessons().
		Where(entsql.EQ("id", id)).
		Query()

	var l Lesson
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&l.ID, &l.AuthorID, &l.Text, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lesson %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return &l, nil
}

func (r *lessonRepo) LessonsByAuthor(ctx context.Context, authorID int64, limit int) ([]Lesson, error) {
	sel := selectLessons().
		Where(entsql.EQ("author_id", authorID)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("rowid"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []Lesson
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.AuthorID, &l.Text, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func selectLessons() *entsql.Selector {
	return entsql.Dialect(dialect.SQLite).
		Select("id", "author_id", "text", "created_at").
		From(entsql.Table(lessonsTable))
}

// CreateLesson stores a lesson text. See LessonRepo.
func (s *Store) CreateLesson(ctx context.Context, authorID int64, text string) (*Lesson, error) {
	return s.LessonRepo().CreateLesson(ctx, authorID, text)
}

// GetLesson returns a lesson by id. See LessonRepo.
func (s *Store) GetLesson(ctx context.Context, id string) (*Lesson, error) {
	return s.LessonRepo().GetLesson(ctx, id)
}

// LessonsByAuthor lists an author's lessons. See LessonRepo.
func (s *Store) LessonsByAuthor(ctx context.Context, authorID int64, limit int) ([]Lesson, error) {
	return s.LessonRepo().LessonsByAuthor(ctx, authorID, limit)
}
