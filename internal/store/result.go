package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

type resultRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

var resultColumns = []string{
	"id", "sequence", "session_id", "learner_id", "lesson_id",
	"correct_count", "total_questions", "score_pct", "completed_at",
}

func (r *resultRepo) PersistResult(ctx context.Context, data ResultData) (id int64, err error) {
	if data.SessionID == "" {
		return 0, errors.New("persist result: empty session id")
	}
	if data.CompletedAt.IsZero() {
		data.CompletedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if existing, ok, err := resultIDBySession(ctx, tx, data.SessionID); err != nil {
		return 0, err
	} else if ok {
		return existing, tx.Commit()
	}

	seqNum, err := r.seq.Next(ctx, tx)
	if err != nil {
		return 0, err
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(resultsTable).
		Columns(resultColumns[1:]...).
		Values(
			seqNum, data.SessionID, data.LearnerID, data.LessonID,
			data.CorrectCount, data.TotalQuestions, data.ScorePct, data.CompletedAt.UTC(),
		).
		OnConflict(entsql.ConflictColumns("session_id"), entsql.DoNothing()).
		Query()
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("save result: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("result id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit result: %w", err)
	}
	return id, nil
}

func resultIDBySession(ctx context.Context, q rowQuerier, sessionID string) (int64, bool, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("id").
		From(entsql.Table(resultsTable)).
		Where(entsql.EQ("session_id", sessionID)).
		Query()

	var id int64
	err := q.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup result: %w", err)
	}
	return id, true, nil
}

func (r *resultRepo) ResultsByLesson(ctx context.Context, lessonID string, opts QueryOpts) ([]ResultRecord, error) {
	return r.query(ctx, entsql.EQ("lesson_id", lessonID), opts)
}

func (r *resultRepo) ResultsByLearner(ctx context.Context, learnerID int64, opts QueryOpts) ([]ResultRecord, error) {
	return r.query(ctx, entsql.EQ("learner_id", learnerID), opts)
}

func (r *resultRepo) query(ctx context.Context, pred *entsql.Predicate, opts QueryOpts) ([]ResultRecord, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(resultColumns...).
		From(entsql.Table(resultsTable)).
		Where(pred).
		OrderBy(entsql.Desc("sequence"))
	applyQueryOpts(sel, opts, "completed_at")

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var records []ResultRecord
	for rows.Next() {
		var rec ResultRecord
		if err := rows.Scan(
			&rec.ID, &rec.Sequence, &rec.SessionID, &rec.LearnerID, &rec.LessonID,
			&rec.CorrectCount, &rec.TotalQuestions, &rec.ScorePct, &rec.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// applyQueryOpts adds the sequence, time and limit filters from opts.
func applyQueryOpts(sel *entsql.Selector, opts QueryOpts, timeColumn string) {
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE(timeColumn, opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE(timeColumn, opts.To.UTC()))
	}
}

// PersistResult stores a quiz result. See ResultRepo.
func (s *Store) PersistResult(ctx context.Context, data ResultData) (int64, error) {
	return s.ResultRepo().PersistResult(ctx, data)
}

// ResultsByLesson lists results for a lesson. See ResultRepo.
func (s *Store) ResultsByLesson(ctx context.Context, lessonID string, opts QueryOpts) ([]ResultRecord, error) {
	return s.ResultRepo().ResultsByLesson(ctx, lessonID, opts)
}

// ResultsByLearner lists a learner's results. See ResultRepo.
func (s *Store) ResultsByLearner(ctx context.Context, learnerID int64, opts QueryOpts) ([]ResultRecord, error) {
	return s.ResultRepo().ResultsByLearner(ctx, learnerID, opts)
}
