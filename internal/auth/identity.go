package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/remi-music/studio/internal/database"
	"github.com/remi-music/studio/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// ContextKey is the type for context keys
type ContextKey string

// UserIDKey is the context key for the resolved caller identity (*uuid.UUID).
const UserIDKey ContextKey = "user_id"

// tokenRepository is the subset of token DB operations used by the resolver.
type tokenRepository interface {
	GetByTokenID(ctx context.Context, tokenID string) (*models.AccessToken, error)
}

// Service resolves optional bearer credentials to a caller identity.
// Resolution failures never abort a request: a missing, malformed, unknown or
// disabled token simply means the caller is anonymous.
type Service struct {
	tokens  tokenRepository
	timeout time.Duration
}

// NewService creates a new identity service
func NewService(db *database.DB, timeout time.Duration) *Service {
	return &Service{
		tokens:  database.NewTokenRepository(db),
		timeout: timeout,
	}
}

// Middleware attaches the resolved caller identity to the request context.
// Requests without a valid credential proceed as anonymous.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := s.Resolve(r.Context(), r.Header.Get("Authorization")); userID != nil {
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// Resolve maps an Authorization header value to a user ID, or nil for
// anonymous. Tokens have the form "<token_id>.<secret>"; the secret is
// verified against the stored bcrypt hash.
func (s *Service) Resolve(ctx context.Context, authHeader string) *uuid.UUID {
	if authHeader == "" {
		return nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil
	}

	tokenID, secret, ok := strings.Cut(parts[1], ".")
	if !ok || tokenID == "" || secret == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	token, err := s.tokens.GetByTokenID(ctx, tokenID)
	if err != nil {
		log.Debug().Err(err).Msg("Identity lookup failed, treating caller as anonymous")
		return nil
	}

	if token.Status != "active" {
		log.Debug().Str("token_id", token.ID.String()).Msg("Token is not active")
		return nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(token.TokenHash), []byte(secret)); err != nil {
		log.Debug().Str("token_id", token.ID.String()).Msg("Token secret mismatch")
		return nil
	}

	userID := token.UserID
	return &userID
}

// UserID retrieves the resolved caller identity from context, nil when the
// caller is anonymous.
func UserID(ctx context.Context) *uuid.UUID {
	if userID, ok := ctx.Value(UserIDKey).(*uuid.UUID); ok {
		return userID
	}
	return nil
}
