package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	httpmiddleware "github.com/wolfeidau/statuspage/internal/http"
	"github.com/wolfeidau/statuspage/internal/models"
	"github.com/wolfeidau/statuspage/internal/store"
)

// UserRecorder records authenticated users in the user directory.
type UserRecorder interface {
	Upsert(ctx context.Context, user *models.User) error
}

// Authenticate returns middleware that requires a valid bearer token. On
// success the principal is stored on the request context and the caller is
// recorded in users so they can later be added to organizations by email.
func Authenticate(verifier IdentityVerifier, users UserRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				httpmiddleware.WriteError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ctx := r.Context()

			principal, err := verifier.Verify(ctx, token)
			if err != nil {
				log.Ctx(ctx).Warn().Err(err).Msg("Failed to verify bearer token")
				httpmiddleware.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if users != nil && principal.Email != "" {
				err := users.Upsert(ctx, &models.User{UserID: principal.UserID, Email: principal.Email})
				switch {
				case errors.Is(err, store.ErrEmailTaken):
					// the address stays with its first owner
					log.Ctx(ctx).Warn().Str("user_id", principal.UserID).Msg("Email already registered to another user")
					principal.Email = ""
				case err != nil:
					// directory refresh is best effort
					log.Ctx(ctx).Error().Err(err).Str("user_id", principal.UserID).Msg("Failed to record user")
				}
			}

			logger := zerolog.Ctx(ctx).With().Str("user_id", principal.UserID).Logger()
			ctx = logger.WithContext(WithPrincipal(ctx, principal))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken extracts the token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
