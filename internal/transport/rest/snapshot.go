package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/fqclock-backend/internal/domain"
	"github.com/heartmarshall/fqclock-backend/internal/service/snapshot"
)

type snapshotService interface {
	Save(ctx context.Context, input snapshot.SaveInput) (*snapshot.SaveResult, error)
	Load(ctx context.Context, userID string) (*domain.Snapshot, error)
}

// SnapshotHandler serves the user data routes.
type SnapshotHandler struct {
	svc      snapshotService
	mode     domain.StorageMode
	maxBytes int64
	log      *slog.Logger
}

// NewSnapshotHandler creates a SnapshotHandler. mode only picks the wording
// of the save confirmation.
func NewSnapshotHandler(svc snapshotService, mode domain.StorageMode, maxBytes int64, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		svc:      svc,
		mode:     mode,
		maxBytes: maxBytes,
		log:      logger.With("handler", "snapshot"),
	}
}

// TaskDTO is a task on the wire.
type TaskDTO struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id,omitempty"`
	Name           string    `json:"name"`
	Notes          *string   `json:"notes"`
	PlannedMinutes int       `json:"planned_minutes"`
	ActualMinutes  int       `json:"actual_minutes"`
	CompletedAt    time.Time `json:"completed_at"`
}

// ReviewDTO is a review on the wire.
type ReviewDTO struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id,omitempty"`
	TaskID     string    `json:"task_id"`
	TaskName   string    `json:"task_name"`
	TaskNotes  *string   `json:"task_notes"`
	DaysLater  int       `json:"days_later"`
	ReviewDate time.Time `json:"review_date"`
	Completed  bool      `json:"completed"`
}

// SaveRequest is the body of POST /api/save-data/{userId}. A missing or null
// collection decodes to nil and is rejected; [] clears it.
type SaveRequest struct {
	Tasks   []TaskDTO   `json:"tasks"`
	Reviews []ReviewDTO `json:"reviews"`
}

// SaveResponse acknowledges a stored snapshot.
type SaveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoadResponse carries the stored snapshot.
type LoadResponse struct {
	Success bool        `json:"success"`
	Tasks   []TaskDTO   `json:"tasks"`
	Reviews []ReviewDTO `json:"reviews"`
}

// Load handles GET /api/user-data/{userId}.
func (h *SnapshotHandler) Load(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Load(r.Context(), r.PathValue("userId"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoadResponse{
		Success: true,
		Tasks:   tasksToDTO(snap.Tasks),
		Reviews: reviewsToDTO(snap.Reviews),
	})
}

// Save handles POST /api/save-data/{userId}.
func (h *SnapshotHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := decodeJSON(w, r, h.maxBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := r.PathValue("userId")
	result, err := h.svc.Save(r.Context(), snapshot.SaveInput{
		UserID:  userID,
		Tasks:   tasksFromDTO(req.Tasks),
		Reviews: reviewsFromDTO(req.Reviews),
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	h.log.InfoContext(r.Context(), "snapshot saved",
		slog.String("user_id", userID),
		slog.Int("tasks", result.TasksSaved),
		slog.Int("reviews", result.ReviewsSaved),
		slog.String("storage", string(h.mode)),
	)

	writeJSON(w, http.StatusOK, SaveResponse{Success: true, Message: h.mode.SaveMessage()})
}

func tasksFromDTO(in []TaskDTO) []domain.Task {
	if in == nil {
		return nil
	}
	out := make([]domain.Task, len(in))
	for i, t := range in {
		out[i] = domain.Task{
			ID:             t.ID,
			Name:           t.Name,
			Notes:          t.Notes,
			PlannedMinutes: t.PlannedMinutes,
			ActualMinutes:  t.ActualMinutes,
			CompletedAt:    t.CompletedAt,
		}
	}
	return out
}

func reviewsFromDTO(in []ReviewDTO) []domain.Review {
	if in == nil {
		return nil
	}
	out := make([]domain.Review, len(in))
	for i, rv := range in {
		out[i] = domain.Review{
			ID:         rv.ID,
			TaskID:     rv.TaskID,
			TaskName:   rv.TaskName,
			TaskNotes:  rv.TaskNotes,
			DaysLater:  rv.DaysLater,
			ReviewDate: rv.ReviewDate,
			Completed:  rv.Completed,
		}
	}
	return out
}

func tasksToDTO(in []domain.Task) []TaskDTO {
	out := make([]TaskDTO, len(in))
	for i, t := range in {
		out[i] = TaskDTO{
			ID:             t.ID,
			UserID:         t.UserID,
			Name:           t.Name,
			Notes:          t.Notes,
			PlannedMinutes: t.PlannedMinutes,
			ActualMinutes:  t.ActualMinutes,
			CompletedAt:    t.CompletedAt.UTC(),
		}
	}
	return out
}

func reviewsToDTO(in []domain.Review) []ReviewDTO {
	out := make([]ReviewDTO, len(in))
	for i, rv := range in {
		out[i] = ReviewDTO{
			ID:         rv.ID,
			UserID:     rv.UserID,
			TaskID:     rv.TaskID,
			TaskName:   rv.TaskName,
			TaskNotes:  rv.TaskNotes,
			DaysLater:  rv.DaysLater,
			ReviewDate: rv.ReviewDate.UTC(),
			Completed:  rv.Completed,
		}
	}
	return out
}
