package middleware

import (
	"context"
	"net/http"

	"github.com/attirely/storefront-backend/internal/sessions"
	"github.com/attirely/storefront-backend/pkg/logger"
)

const (
	sessionIDHeader = "X-Session-Id"
	sessionCookie   = "sf_session"
)

type sessionCtxKey struct{}

// Session resolves the shopper's session from the request, minting one when
// none is presented, and echoes the ID back in both the header and a cookie.
func Session(manager *sessions.Manager, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(sessionIDHeader)
			if presented == "" {
				if cookie, err := r.Cookie(sessionCookie); err == nil {
					presented = cookie.Value
				}
			}

			sessionID, session := manager.Resolve(presented)

			w.Header().Set(sessionIDHeader, sessionID)
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			ctx = context.WithValue(ctx, sessionCtxKey{}, session)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithSession injects a session into the context; used by tests and by the
// middleware itself.
func WithSession(ctx context.Context, session *sessions.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, session)
}

// SessionFromContext returns the resolved session, nil when the middleware
// did not run.
func SessionFromContext(ctx context.Context) *sessions.Session {
	session, _ := ctx.Value(sessionCtxKey{}).(*sessions.Session)
	return session
}
