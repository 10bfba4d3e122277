package domain

import "time"

// Task is a finished (completed or abandoned) work session.
type Task struct {
	ID             string
	UserID         string
	Name           string
	Notes          *string
	PlannedMinutes int
	ActualMinutes  int
	CompletedAt    time.Time
}

// Review is a scheduled follow-up of a task.
//
// TaskID is a soft reference: the referenced task may be gone. TaskName and
// TaskNotes are copies taken when the review was created and are never
// refreshed from the task.
type Review struct {
	ID         string
	UserID     string
	TaskID     string
	TaskName   string
	TaskNotes  *string
	DaysLater  int
	ReviewDate time.Time
	Completed  bool
}

// Snapshot is everything stored for one user at one point in time.
type Snapshot struct {
	Tasks   []Task
	Reviews []Review
}

// EmptySnapshot returns a snapshot with non-nil, zero-length collections.
func EmptySnapshot() Snapshot {
	return Snapshot{Tasks: []Task{}, Reviews: []Review{}}
}
