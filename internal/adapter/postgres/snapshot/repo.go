// Package snapshot implements the task/review snapshot repository using PostgreSQL.
//
// Mutating methods are meant to run inside postgres.TxManager.RunInTx; the
// service owns the transaction boundary.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/heartmarshall/fqclock-backend/internal/adapter/postgres"
	"github.com/heartmarshall/fqclock-backend/internal/domain"
)

// DefaultChunkSize is used when New receives a non-positive chunk size.
const DefaultChunkSize = 500

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var (
	taskColumns   = []string{"id", "user_id", "name", "notes", "planned_minutes", "actual_minutes", "completed_at", "position"}
	reviewColumns = []string{"id", "user_id", "task_id", "task_name", "task_notes", "days_later", "review_date", "completed", "position"}
)

var errNoTx = errors.New("lock requires a transaction")

// Repo provides snapshot persistence backed by PostgreSQL.
type Repo struct {
	db        postgres.Querier
	chunkSize int
}

// New creates a new snapshot repository. chunkSize bounds the rows per
// multi-row INSERT.
func New(db postgres.Querier, chunkSize int) *Repo {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Repo{db: db, chunkSize: chunkSize}
}

// LockUser serializes snapshot writes for userID until the surrounding
// transaction ends and fails with domain.ErrNotFound for an unknown user.
func (r *Repo) LockUser(ctx context.Context, userID string) error {
	if !postgres.InTx(ctx) {
		return fmt.Errorf("user %s: %w", userID, errNoTx)
	}

	uid, err := postgres.ParseUserID(userID)
	if err != nil {
		return err
	}

	q := postgres.QuerierFromCtx(ctx, r.db)

	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, uid.String()); err != nil {
		return postgres.MapError(err, "user", userID)
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, uid).Scan(&exists); err != nil {
		return postgres.MapError(err, "user", userID)
	}
	if !exists {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}

	return nil
}

// DeleteTasks removes every task of userID and returns how many were removed.
func (r *Repo) DeleteTasks(ctx context.Context, userID string) (int, error) {
	return r.deleteAll(ctx, "tasks", userID)
}

// DeleteReviews removes every review of userID and returns how many were removed.
func (r *Repo) DeleteReviews(ctx context.Context, userID string) (int, error) {
	return r.deleteAll(ctx, "reviews", userID)
}

func (r *Repo) deleteAll(ctx context.Context, table, userID string) (int, error) {
	uid, err := postgres.ParseUserID(userID)
	if err != nil {
		return 0, err
	}

	query, args, err := psql.Delete(table).Where("user_id = ?", uid).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete %s: %w", table, err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return 0, postgres.MapError(err, table, userID)
	}

	return int(tag.RowsAffected()), nil
}

// InsertTasks stores tasks for userID in the given order. The UserID field of
// each task is ignored in favour of userID.
func (r *Repo) InsertTasks(ctx context.Context, userID string, tasks []domain.Task) error {
	uid, err := postgres.ParseUserID(userID)
	if err != nil {
		return err
	}

	q := postgres.QuerierFromCtx(ctx, r.db)

	for start := 0; start < len(tasks); start += r.chunkSize {
		end := min(start+r.chunkSize, len(tasks))

		b := psql.Insert("tasks").Columns(taskColumns...)
		for i, t := range tasks[start:end] {
			b = b.Values(t.ID, uid, t.Name, t.Notes, t.PlannedMinutes, t.ActualMinutes, t.CompletedAt, start+i)
		}

		query, args, err := b.ToSql()
		if err != nil {
			return fmt.Errorf("build insert tasks: %w", err)
		}
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return postgres.MapError(err, "tasks", userID)
		}
	}

	return nil
}

// InsertReviews stores reviews for userID in the given order. TaskID is
// stored as given; no task with that id needs to exist.
func (r *Repo) InsertReviews(ctx context.Context, userID string, reviews []domain.Review) error {
	uid, err := postgres.ParseUserID(userID)
	if err != nil {
		return err
	}

	q := postgres.QuerierFromCtx(ctx, r.db)

	for start := 0; start < len(reviews); start += r.chunkSize {
		end := min(start+r.chunkSize, len(reviews))

		b := psql.Insert("reviews").Columns(reviewColumns...)
		for i, rv := range reviews[start:end] {
			b = b.Values(rv.ID, uid, rv.TaskID, rv.TaskName, rv.TaskNotes, rv.DaysLater, rv.ReviewDate, rv.Completed, start+i)
		}

		query, args, err := b.ToSql()
		if err != nil {
			return fmt.Errorf("build insert reviews: %w", err)
		}
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return postgres.MapError(err, "reviews", userID)
		}
	}

	return nil
}

type taskRow struct {
	ID             string    `db:"id"`
	UserID         uuid.UUID `db:"user_id"`
	Name           string    `db:"name"`
	Notes          *string   `db:"notes"`
	PlannedMinutes int       `db:"planned_minutes"`
	ActualMinutes  int       `db:"actual_minutes"`
	CompletedAt    time.Time `db:"completed_at"`
}

type reviewRow struct {
	ID         string    `db:"id"`
	UserID     uuid.UUID `db:"user_id"`
	TaskID     string    `db:"task_id"`
	TaskName   string    `db:"task_name"`
	TaskNotes  *string   `db:"task_notes"`
	DaysLater  int       `db:"days_later"`
	ReviewDate time.Time `db:"review_date"`
	Completed  bool      `db:"completed"`
}

// ListTasks returns the tasks of userID in insert order. Never nil.
func (r *Repo) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	uid, err := postgres.ParseUserID(userID)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.
		Select("id", "user_id", "name", "notes", "planned_minutes", "actual_minutes", "completed_at").
		From("tasks").
		Where("user_id = ?", uid).
		OrderBy("position", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select tasks: %w", err)
	}

	var rows []taskRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, query, args...); err != nil {
		return nil, postgres.MapError(err, "tasks", userID)
	}

	tasks := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, domain.Task{
			ID:             row.ID,
			UserID:         row.UserID.String(),
			Name:           row.Name,
			Notes:          row.Notes,
			PlannedMinutes: row.PlannedMinutes,
			ActualMinutes:  row.ActualMinutes,
			CompletedAt:    row.CompletedAt.UTC(),
		})
	}
	return tasks, nil
}

// ListReviews returns the reviews of userID in insert order. Never nil.
func (r *Repo) ListReviews(ctx context.Context, userID string) ([]domain.Review, error) {
	uid, err := postgres.ParseUserID(userID)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.
		Select("id", "user_id", "task_id", "task_name", "task_notes", "days_later", "review_date", "completed").
		From("reviews").
		Where("user_id = ?", uid).
		OrderBy("position", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select reviews: %w", err)
	}

	var rows []reviewRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, query, args...); err != nil {
		return nil, postgres.MapError(err, "reviews", userID)
	}

	reviews := make([]domain.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, domain.Review{
			ID:         row.ID,
			UserID:     row.UserID.String(),
			TaskID:     row.TaskID,
			TaskName:   row.TaskName,
			TaskNotes:  row.TaskNotes,
			DaysLater:  row.DaysLater,
			ReviewDate: row.ReviewDate.UTC(),
			Completed:  row.Completed,
		})
	}
	return reviews, nil
}
