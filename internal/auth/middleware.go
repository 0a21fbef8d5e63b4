package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/event-logger/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of this type, so no other package can
// read or shadow the user stored under it.
type contextKey string

const userKey contextKey = "user"

// IdentityResolver maps a verified identity to a stored user, creating the
// user on first sight. service.IdentityService implements it.
type IdentityResolver interface {
	Resolve(ctx context.Context, id Identity) (*model.User, error)
}

// Middleware builds the per-request auth context.
//
// It never rejects a request. A missing, malformed, expired or incomplete
// token leaves the request anonymous, and so does a failed user upsert (the
// latter is logged at error level since it means the database is unhappy).
// Resolvers enforce authentication themselves.
//
// Every authenticated request costs one token verification and one upsert.
func Middleware(verifier Verifier, identities IdentityResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			id, err := verifier.Verify(ctx, token)
			if err != nil {
				logger.Debug("token rejected", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}
			if id == nil || !id.Complete() {
				logger.Debug("token identity incomplete")
				next.ServeHTTP(w, r)
				return
			}

			user, err := identities.Resolve(ctx, *id)
			if err != nil {
				logger.Error("failed to resolve user from token",
					slog.String("subject", id.Subject),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}
}

// BearerToken strips an optional "Bearer " prefix and surrounding space.
// A header without the prefix is treated as a raw token.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if strings.EqualFold(header, "bearer") {
		return ""
	}
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		header = header[7:]
	}
	return strings.TrimSpace(header)
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, or (nil, false) for an
// anonymous request.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}
