// Package identity maps a user-chosen display name to a stable user id,
// creating the user the first time the name is seen.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/fqclock-backend/internal/domain"
)

type userRepo interface {
	Upsert(ctx context.Context, username string) (*domain.User, error)
}

// Service resolves display names to users.
type Service struct {
	users userRepo
	log   *slog.Logger
}

// NewService creates a new identity service.
func NewService(log *slog.Logger, users userRepo) *Service {
	return &Service{
		users: users,
		log:   log.With("service", "identity"),
	}
}

// Resolve returns the user for displayName, creating it on first sight.
// Surrounding whitespace is ignored, so " alice " and "alice" are the same user.
func (s *Service) Resolve(ctx context.Context, displayName string) (*domain.User, error) {
	username := strings.TrimSpace(displayName)
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	user, err := s.users.Upsert(ctx, username)
	if err != nil {
		s.log.ErrorContext(ctx, "resolve user failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	s.log.InfoContext(ctx, "user resolved",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

func validateUsername(username string) error {
	if username == "" {
		return domain.NewValidationError("username", "required")
	}
	if utf8.RuneCountInString(username) > domain.MaxUsernameLength {
		return domain.NewValidationError("username", fmt.Sprintf("max %d characters", domain.MaxUsernameLength))
	}
	return nil
}
