package postgres

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/fqclock-backend/internal/domain"
)

// ParseUserID converts an opaque user id into the UUID stored in the users
// table. An id that is not a UUID cannot name a stored user, so it maps to
// domain.ErrNotFound.
func ParseUserID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return uid, nil
}
