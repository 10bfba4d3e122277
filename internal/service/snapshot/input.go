package snapshot

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/fqclock-backend/internal/domain"
)

const (
	maxIDLength   = 50
	maxNameLength = 255

	// Counters are stored as INTEGER.
	maxCounter = math.MaxInt32
)

// SaveInput holds a full snapshot for one user. A nil collection means the
// caller left it out, which is rejected; an empty one clears it.
type SaveInput struct {
	UserID  string
	Tasks   []domain.Task
	Reviews []domain.Review
}

// Validate checks all fields and collects all errors.
func (i SaveInput) Validate(maxItems int) error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.UserID) == "" {
		errs = append(errs, domain.FieldError{Field: "user_id", Message: "required"})
	}

	if i.Tasks == nil {
		errs = append(errs, domain.FieldError{Field: "tasks", Message: "required"})
	} else {
		errs = append(errs, validateTasks(i.Tasks, maxItems)...)
	}

	if i.Reviews == nil {
		errs = append(errs, domain.FieldError{Field: "reviews", Message: "required"})
	} else {
		errs = append(errs, validateReviews(i.Reviews, maxItems)...)
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func validateTasks(tasks []domain.Task, maxItems int) []domain.FieldError {
	if len(tasks) > maxItems {
		return []domain.FieldError{{Field: "tasks", Message: fmt.Sprintf("max %d items", maxItems)}}
	}

	var errs []domain.FieldError
	seen := make(map[string]int, len(tasks))
	for n, t := range tasks {
		field := func(name string) string { return fmt.Sprintf("tasks[%d].%s", n, name) }

		errs = append(errs, validateID(field("id"), t.ID, seen, n)...)
		errs = append(errs, validateName(field("name"), t.Name)...)
		errs = append(errs, validateCounter(field("planned_minutes"), t.PlannedMinutes)...)
		errs = append(errs, validateCounter(field("actual_minutes"), t.ActualMinutes)...)
		if t.CompletedAt.IsZero() {
			errs = append(errs, domain.FieldError{Field: field("completed_at"), Message: "required"})
		}
	}
	return errs
}

func validateReviews(reviews []domain.Review, maxItems int) []domain.FieldError {
	if len(reviews) > maxItems {
		return []domain.FieldError{{Field: "reviews", Message: fmt.Sprintf("max %d items", maxItems)}}
	}

	var errs []domain.FieldError
	seen := make(map[string]int, len(reviews))
	for n, r := range reviews {
		field := func(name string) string { return fmt.Sprintf("reviews[%d].%s", n, name) }

		errs = append(errs, validateID(field("id"), r.ID, seen, n)...)
		if utf8.RuneCountInString(r.TaskID) > maxIDLength {
			errs = append(errs, domain.FieldError{Field: field("task_id"), Message: fmt.Sprintf("max %d characters", maxIDLength)})
		}
		errs = append(errs, validateName(field("task_name"), r.TaskName)...)
		errs = append(errs, validateCounter(field("days_later"), r.DaysLater)...)
		if r.ReviewDate.IsZero() {
			errs = append(errs, domain.FieldError{Field: field("review_date"), Message: "required"})
		}
	}
	return errs
}

// validateID records id in seen so later duplicates point at the first occurrence.
func validateID(field, id string, seen map[string]int, n int) []domain.FieldError {
	switch {
	case strings.TrimSpace(id) == "":
		return []domain.FieldError{{Field: field, Message: "required"}}
	case utf8.RuneCountInString(id) > maxIDLength:
		return []domain.FieldError{{Field: field, Message: fmt.Sprintf("max %d characters", maxIDLength)}}
	}
	if first, dup := seen[id]; dup {
		return []domain.FieldError{{Field: field, Message: fmt.Sprintf("duplicate of item %d", first)}}
	}
	seen[id] = n
	return nil
}

func validateName(field, name string) []domain.FieldError {
	switch {
	case strings.TrimSpace(name) == "":
		return []domain.FieldError{{Field: field, Message: "required"}}
	case utf8.RuneCountInString(name) > maxNameLength:
		return []domain.FieldError{{Field: field, Message: fmt.Sprintf("max %d characters", maxNameLength)}}
	}
	return nil
}

func validateCounter(field string, v int) []domain.FieldError {
	switch {
	case v < 0:
		return []domain.FieldError{{Field: field, Message: "must be non-negative"}}
	case v > maxCounter:
		return []domain.FieldError{{Field: field, Message: fmt.Sprintf("max %d", maxCounter)}}
	}
	return nil
}
