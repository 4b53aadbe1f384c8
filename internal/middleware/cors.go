// Package middleware provides HTTP middleware for the game API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/ashureev/challenge-game/internal/identity"
)

var (
	corsMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", ")
	corsHeaders = "Content-Type, " + identity.SessionHeaderName
)

// originPolicy answers which browser origins may call the game API.
type originPolicy struct {
	any      bool
	explicit map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{explicit: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		switch o {
		case "":
		case "*":
			p.any = true
		default:
			p.explicit[o] = struct{}{}
		}
	}
	return p
}

// match reports whether origin is allowed and whether it was listed by name.
// Credentials are only granted to named origins.
func (p originPolicy) match(origin string) (allowed, named bool) {
	if origin == "" {
		return false, false
	}
	if _, ok := p.explicit[origin]; ok {
		return true, true
	}
	return p.any, false
}

// CORS returns middleware that sets CORS headers for the game's browser
// controller and answers preflight requests.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newOriginPolicy(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			h.Add("Vary", "Origin")

			if allowed, named := policy.match(origin); allowed {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Allow-Headers", corsHeaders)
				if named {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
