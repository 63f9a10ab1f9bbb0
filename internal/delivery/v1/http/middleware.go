package http

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

const (
	userIDHeader   = "X-User-ID"
	usernameHeader = "X-Username"
)

type ctxKey int

const identityKey ctxKey = iota

// Identity — пользователь, от имени которого выполняется запрос. Аутентификация выполняется до сервиса.
type Identity struct {
	UserID   string
	Username string
	IsAdmin  bool
}

func identityFromCtx(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// Authenticate читает идентификатор пользователя из заголовков и отклоняет анонимные запросы.
func Authenticate(adminIDs []string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(userIDHeader))
			if userID == "" {
				log.Warnf("%d %s: missing %s", http.StatusUnauthorized, e.ErrAuthFailure.Error(), userIDHeader)
				WriteError(w, e.ErrAuthFailure)
				return
			}

			username := strings.TrimSpace(r.Header.Get(usernameHeader))
			if username == "" {
				username = userID
			}

			id := &Identity{
				UserID:   userID,
				Username: username,
				IsAdmin:  slices.Contains(adminIDs, userID),
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
		})
	}
}

// RequireAdmin пропускает только администраторов.
func RequireAdmin(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := identityFromCtx(r.Context())
			if id == nil || !id.IsAdmin {
				log.Warnf("%d %s: %s %s", http.StatusForbidden, e.ErrForbidden.Error(), r.Method, r.URL.Path)
				WriteError(w, e.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
