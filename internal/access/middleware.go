package access

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/roster-hq/roster/internal/accounts"
)

// Requirements is the static table mapping operations to their required
// privilege. Default applies to every operation without an override, the way
// a type-level annotation covers all fields unless one declares its own.
type Requirements struct {
	Default   accounts.Privilege
	Overrides map[string]accounts.Privilege
}

// For returns the required privilege for the named operation.
func (r Requirements) For(operation string) accounts.Privilege {
	if p, ok := r.Overrides[operation]; ok {
		return p
	}
	if r.Default != "" {
		return r.Default
	}
	return accounts.PrivilegeStandard
}

// Middleware wires the gate into the HTTP handler chain.
type Middleware struct {
	Gate     *Gate
	Resolver *Resolver
	Logger   *slog.Logger
	// Observe, when set, receives the outcome of each gate decision
	// (granted, unauthenticated, unauthorized, error).
	Observe func(outcome string)
}

func (m Middleware) observe(outcome string) {
	if m.Observe != nil {
		m.Observe(outcome)
	}
}

// Require wraps a handler so it only runs for callers that are authenticated
// and meet the required privilege. The wrapped handler's context carries a
// lazy caller cell so object-level checks can re-resolve the identity at most
// once without the gate paying for resolution here.
func (m Middleware) Require(required accounts.Privilege) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer := BearerFromRequest(r)
			decision, err := m.Gate.Authorize(r.Context(), bearer, required)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Warn("access: gate check failed", slog.String("path", r.URL.Path), slog.Any("error", err))
				}
				m.observe("error")
				if errors.Is(err, ErrBadEmail) {
					http.Error(w, ErrBadEmail.Error(), http.StatusBadRequest)
					return
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !decision.Authenticated {
				m.observe("unauthenticated")
				http.Error(w, ErrUnauthenticated.Error(), http.StatusUnauthorized)
				return
			}
			if !decision.Authorized {
				m.observe("unauthorized")
				http.Error(w, ErrUnauthorized.Error(), http.StatusForbidden)
				return
			}
			m.observe("granted")
			ctx := ContextWithCaller(r.Context(), NewCaller(m.Resolver, bearer))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerFromRequest extracts the bearer credential from the Authorization
// header, tolerating both a bare token and the "Bearer " prefix.
func BearerFromRequest(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if after, ok := strings.CutPrefix(raw, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return raw
}
