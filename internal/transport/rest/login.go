package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/fqclock-backend/internal/domain"
)

type identityService interface {
	Resolve(ctx context.Context, displayName string) (*domain.User, error)
}

type tokenIssuer interface {
	GenerateToken(userID string) (string, error)
}

// LoginHandler serves POST /login and POST /api/login.
type LoginHandler struct {
	svc      identityService
	tokens   tokenIssuer
	maxBytes int64
	log      *slog.Logger
}

// NewLoginHandler creates a LoginHandler. tokens may be nil, in which case
// no session token is issued.
func NewLoginHandler(svc identityService, tokens tokenIssuer, maxBytes int64, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{
		svc:      svc,
		tokens:   tokens,
		maxBytes: maxBytes,
		log:      logger.With("handler", "login"),
	}
}

type loginRequest struct {
	Username string `json:"username"`
}

type loginResponse struct {
	Success bool         `json:"success"`
	User    userResponse `json:"user"`
	Token   string       `json:"token,omitempty"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Login resolves the username to a user, creating it on first login.
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.maxBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.svc.Resolve(r.Context(), req.Username)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := loginResponse{
		Success: true,
		User:    userResponse{ID: user.ID, Username: user.Username},
	}
	if h.tokens != nil {
		if resp.Token, err = h.tokens.GenerateToken(user.ID); err != nil {
			handleError(h.log, w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
