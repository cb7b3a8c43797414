package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"propvest/internal/domain"
)

type ctxKey string

const UserIDKey ctxKey = "userID"

// TokenFinder resolves a plain bearer token to its stored record.
type TokenFinder interface {
	FindByPlainToken(ctx context.Context, plain string) (*domain.APIToken, error)
	Touch(ctx context.Context, id int64) error
}

// TokenMiddleware authenticates with an Authorization bearer token, falling back to the
// token query parameter for websocket clients that cannot set headers.
func TokenMiddleware(tokens TokenFinder, log *slog.Logger) func(http.Handler) http.Handler {
	log = log.With("component", "auth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			plain := bearerToken(r)
			if plain == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			token, err := tokens.FindByPlainToken(r.Context(), plain)
			if err != nil {
				log.Debug("token lookup failed", "path", r.URL.Path, "remote", r.RemoteAddr, "error", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if token.Expired(time.Now()) {
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}

			if err := tokens.Touch(r.Context(), token.ID); err != nil {
				log.Warn("token touch failed", "token_id", token.ID, "error", err)
			}

			ctx := WithUserID(r.Context(), token.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if t := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); t != "" {
			return t
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func GetUserID(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	if !ok {
		return 0, errors.New("userID not found in context")
	}
	return userID, nil
}
