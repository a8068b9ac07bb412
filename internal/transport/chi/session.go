package chi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Session identification.
const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "autorovers_session"

	maxSessionIDLen = 128
	sessionMaxAge   = 365 * 24 * 60 * 60
)

type sessionKey struct{}

// SessionMiddleware resolves the owner of every selection request: the
// X-Session-ID header, else the session cookie, else a freshly issued uuid
// that is set as a cookie.
func SessionMiddleware(secureCookie bool) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := validSessionID(r.Header.Get(SessionHeader))
			if id == "" {
				if c, err := r.Cookie(SessionCookie); err == nil {
					id = validSessionID(c.Value)
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   sessionMaxAge,
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(SessionHeader, id)
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), id)))
		})
	}
}

// ContextWithSession stores the session owner in ctx.
func ContextWithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFromContext returns the session owner, or "" outside SessionMiddleware.
func SessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// validSessionID accepts printable ASCII ids without separators used by storage keys.
func validSessionID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxSessionIDLen {
		return ""
	}
	for _, r := range s {
		if r <= ' ' || r > '~' || r == ':' {
			return ""
		}
	}
	return s
}
