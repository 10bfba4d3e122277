package client

import (
	"time"

	"github.com/heartmarshall/fqclock-backend/internal/transport/rest"
)

// CanonicalTime is the text form the client keeps dates in.
const CanonicalTime = "2006-01-02T15:04:05.000Z"

// Task is a task as the client application holds it: the completion time is
// an ISO 8601 string.
type Task struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Notes          *string `json:"notes"`
	PlannedMinutes int     `json:"planned_minutes"`
	ActualMinutes  int     `json:"actual_minutes"`
	CompletedAt    string  `json:"completedAt"`
}

// Review is a review as the client application holds it.
type Review struct {
	ID         string  `json:"id"`
	TaskID     string  `json:"task_id"`
	TaskName   string  `json:"task_name"`
	TaskNotes  *string `json:"task_notes"`
	DaysLater  int     `json:"days_later"`
	ReviewDate string  `json:"reviewDate"`
	Completed  bool    `json:"completed"`
}

// Snapshot is the client-side pair of collections.
type Snapshot struct {
	Tasks   []Task   `json:"tasks"`
	Reviews []Review `json:"reviews"`
}

// User is the identity the server resolved at login.
type User struct {
	ID       string
	Username string
}

// parseTime accepts RFC 3339 with or without fractional seconds. Anything
// else becomes the zero time, which the server rejects.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(CanonicalTime)
}

func tasksToWire(in []Task) []rest.TaskDTO {
	out := make([]rest.TaskDTO, len(in))
	for i, t := range in {
		out[i] = rest.TaskDTO{
			ID:             t.ID,
			Name:           t.Name,
			Notes:          t.Notes,
			PlannedMinutes: t.PlannedMinutes,
			ActualMinutes:  t.ActualMinutes,
			CompletedAt:    parseTime(t.CompletedAt),
		}
	}
	return out
}

func reviewsToWire(in []Review) []rest.ReviewDTO {
	out := make([]rest.ReviewDTO, len(in))
	for i, r := range in {
		out[i] = rest.ReviewDTO{
			ID:         r.ID,
			TaskID:     r.TaskID,
			TaskName:   r.TaskName,
			TaskNotes:  r.TaskNotes,
			DaysLater:  r.DaysLater,
			ReviewDate: parseTime(r.ReviewDate),
			Completed:  r.Completed,
		}
	}
	return out
}

func tasksFromWire(in []rest.TaskDTO) []Task {
	out := make([]Task, len(in))
	for i, t := range in {
		out[i] = Task{
			ID:             t.ID,
			Name:           t.Name,
			Notes:          t.Notes,
			PlannedMinutes: t.PlannedMinutes,
			ActualMinutes:  t.ActualMinutes,
			CompletedAt:    formatTime(t.CompletedAt),
		}
	}
	return out
}

func reviewsFromWire(in []rest.ReviewDTO) []Review {
	out := make([]Review, len(in))
	for i, r := range in {
		out[i] = Review{
			ID:         r.ID,
			TaskID:     r.TaskID,
			TaskName:   r.TaskName,
			TaskNotes:  r.TaskNotes,
			DaysLater:  r.DaysLater,
			ReviewDate: formatTime(r.ReviewDate),
			Completed:  r.Completed,
		}
	}
	return out
}
