package web

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/JonMunkholm/fieldform/internal/core"
	"github.com/JonMunkholm/fieldform/internal/logging"
)

type (
	sessionKey        struct{}
	sessionResumedKey struct{}
)

// WithRequestMetadata adds the client IP and User-Agent to ctx for audit
// events. r.RemoteAddr has already been resolved by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}

// withSession stores sess in ctx and tags later log lines with its id.
func withSession(ctx context.Context, sess *core.Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey{}, sess)
	ctx = core.ContextWithSessionID(ctx, sess.ID)
	return logging.ContextWith(ctx, "session_id", sess.ID)
}

// sessionFrom returns the session attached by sessionMiddleware.
func sessionFrom(ctx context.Context) (*core.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*core.Session)
	return sess, ok
}

// sessionMiddleware resolves the browser's form session from its cookie,
// starting a new one when the cookie is missing or has expired. The cookie
// is refreshed on every request so its lifetime tracks the idle TTL.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
			id = c.Value
		}

		sess, created := s.service.Sessions().GetOrCreate(id)
		if created {
			logging.FromContext(r.Context()).Debug("session started", "session_id", sess.ID)
		}
		http.SetCookie(w, s.sessionCookie(sess.ID))

		ctx := WithRequestMetadata(r.Context(), r)
		ctx = context.WithValue(ctx, sessionResumedKey{}, !created)
		next.ServeHTTP(w, r.WithContext(withSession(ctx, sess)))
	})
}

// fromFormPage reports whether r was sent by the bundled form page: a
// same-origin browser request on a session the page already holds. Such
// requests skip the API key check, which is meant for headless clients.
func fromFormPage(r *http.Request) bool {
	resumed, _ := r.Context().Value(sessionResumedKey{}).(bool)
	return resumed && sameOrigin(r)
}

// sameOrigin trusts the browser's Sec-Fetch-Site header and falls back to
// comparing Origin with Host for browsers that do not send it.
func sameOrigin(r *http.Request) bool {
	if site := r.Header.Get("Sec-Fetch-Site"); site != "" {
		return site == "same-origin"
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

func (s *Server) sessionCookie(id string) *http.Cookie {
	ttl := s.cfg.Session.TTL
	return &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   s.cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
