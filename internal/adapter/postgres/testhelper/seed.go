package testhelper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/fqclock-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedUser inserts a user with a unique username and returns it.
func SeedUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()

	user := domain.User{
		ID:        uuid.New().String(),
		Username:  "user-" + uniqueSuffix(),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, username, created_at) VALUES ($1, $2, $3)`,
		user.ID, user.Username, user.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert user: %v", err)
	}

	return user
}

// SeedTasks writes n tasks for userID directly, bypassing the repository.
func SeedTasks(t *testing.T, pool *pgxpool.Pool, userID string, n int) []domain.Task {
	t.Helper()

	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	tasks := make([]domain.Task, 0, n)
	for i := range n {
		task := domain.Task{
			ID:             fmt.Sprintf("seed-task-%d", i),
			UserID:         userID,
			Name:           fmt.Sprintf("Seeded task %d", i),
			PlannedMinutes: 25,
			ActualMinutes:  20 + i,
			CompletedAt:    base.Add(time.Duration(i) * time.Hour),
		}
		_, err := pool.Exec(context.Background(),
			`INSERT INTO tasks (id, user_id, name, notes, planned_minutes, actual_minutes, completed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			task.ID, task.UserID, task.Name, task.Notes, task.PlannedMinutes, task.ActualMinutes, task.CompletedAt,
		)
		if err != nil {
			t.Fatalf("testhelper: SeedTasks insert: %v", err)
		}
		tasks = append(tasks, task)
	}

	return tasks
}
