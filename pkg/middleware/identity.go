package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	apperrors "deskbook/pkg/errors"
	"deskbook/pkg/logger"
	"deskbook/pkg/model"
)

const UserInfoHeader = "X-User-Info"

const identityKey contextKey = "identity"

var (
	errMissingUserInfo = errors.New("X-User-Info header is missing")
	errInvalidUserInfo = errors.New("Invalid X-User-Info header format")
)

// RequireIdentity reads the caller identity placed in X-User-Info by the upstream
// gateway. The header is trusted; nothing here authenticates the caller.
func RequireIdentity(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := parseUserInfo(r.Header.Get(UserInfoHeader))
			if err != nil {
				log.Warn("Rejected request without usable identity",
					"request_id", RequestIDFrom(r.Context()),
					"path", r.URL.Path,
					"reason", err.Error(),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write(apperrors.BadRequest(err.Error()).ToJSON())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func parseUserInfo(header string) (model.Identity, error) {
	if strings.TrimSpace(header) == "" {
		return model.Identity{}, errMissingUserInfo
	}

	var identity model.Identity
	if err := json.Unmarshal([]byte(header), &identity); err != nil {
		return model.Identity{}, errInvalidUserInfo
	}
	identity.Email = strings.TrimSpace(identity.Email)
	if identity.Email == "" {
		return model.Identity{}, errInvalidUserInfo
	}
	return identity, nil
}

func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFrom(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(model.Identity)
	return identity, ok
}

// IdentityEmail is a KeyExtractor for per-user limits. Requests without a usable
// identity yield "" and are not limited here; RequireIdentity rejects them later.
func IdentityEmail(r *http.Request) string {
	identity, err := parseUserInfo(r.Header.Get(UserInfoHeader))
	if err != nil {
		return ""
	}
	return strings.ToLower(identity.Email)
}
