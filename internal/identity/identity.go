// Package identity provides anonymous game session identity primitives.
package identity

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// SessionHeaderName carries the game session id on requests that do not
// send it in the JSON body.
const SessionHeaderName = "X-Challenge-Session-ID"

type contextKey int

const sessionIDKey contextKey = iota

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}

// Sanitize trims id and reports whether it is a usable session id. Ids end
// up in file names and log lines, so only a conservative charset passes.
func Sanitize(id string) (string, bool) {
	id = strings.TrimSpace(id)
	if !sessionIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

// FromRequest returns the session id from the header or the session_id
// query parameter, or "" when neither holds a valid id.
func FromRequest(r *http.Request) string {
	sid := r.Header.Get(SessionHeaderName)
	if sid == "" {
		sid = r.URL.Query().Get("session_id")
	}
	id, ok := Sanitize(sid)
	if !ok {
		return ""
	}
	return id
}

// SessionIDFromContext extracts the session id stored by Middleware.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithSessionID returns a context carrying the session id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// Middleware injects the request's session id, if any, into its context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sid := FromRequest(r); sid != "" {
			r = r.WithContext(WithSessionID(r.Context(), sid))
		}
		next.ServeHTTP(w, r)
	})
}

// IPFromRequest returns a normalized remote IP for request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
