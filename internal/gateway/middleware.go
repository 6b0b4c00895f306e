package gateway

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/internal/platform/httpx"
	"github.com/fleetrent/fleetrent/internal/shared"
)

// companyQueryParam carries the optional company context on guarded routes.
const companyQueryParam = "companyId"

// DecisionStats counts authorization outcomes. Nil-safe at the call sites so
// the gateway works without a metrics registry in tests.
type DecisionStats interface {
	AuthzDecision(outcome string)
}

// Middleware authenticates requests and guards routes with permission checks.
// It satisfies the Requirer interface the resource handlers declare.
type Middleware struct {
	engine   *authz.Engine
	sessions *SessionStore
	secret   []byte
	logger   *slog.Logger
	stats    DecisionStats
}

// NewMiddleware constructs the gateway middleware.
func NewMiddleware(engine *authz.Engine, sessions *SessionStore, secret []byte, logger *slog.Logger, stats DecisionStats) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{engine: engine, sessions: sessions, secret: secret, logger: logger, stats: stats}
}

// Authenticate resolves the request principal from a bearer token or session
// cookie and stores it on the context. Requests without credentials pass
// through unauthenticated; Require rejects them if the route is guarded.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := m.resolvePrincipal(r)
		if ok {
			r = r.WithContext(authz.ContextWithPrincipal(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) resolvePrincipal(r *http.Request) (authz.Principal, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			return authz.Principal{}, false
		}
		principal, err := ParseBearerToken(token, m.secret)
		if err != nil {
			return authz.Principal{}, false
		}
		return principal, true
	}
	if m.sessions != nil {
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			principal, err := m.sessions.Get(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, shared.ErrUnauthenticated) {
					m.logger.Error("session lookup failed", slog.Any("error", err))
				}
				return authz.Principal{}, false
			}
			return principal, true
		}
	}
	return authz.Principal{}, false
}

// Require returns middleware that allows the request only when the principal
// may perform the action on the resource. The company context, when relevant,
// comes from the companyId query parameter.
func (m *Middleware) Require(resource authz.Resource, action authz.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := authz.PrincipalFromContext(r.Context())
			if !ok {
				m.record("unauthenticated")
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}

			companyID := r.URL.Query().Get(companyQueryParam)
			decision, err := m.engine.CanAccess(r.Context(), principal, resource, action, companyID)
			if err != nil {
				// Fail closed: the engine already produced a denial decision.
				m.logger.Error("permission check failed",
					slog.String("user_id", principal.ID),
					slog.String("resource", resource.String()),
					slog.String("action", string(action)),
					slog.Any("error", err))
				m.record("unavailable")
				httpx.JSON(w, http.StatusForbidden, decision)
				return
			}
			if !decision.Allowed {
				m.record("denied")
				httpx.JSON(w, http.StatusForbidden, decision)
				return
			}

			m.record("allowed")
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) record(outcome string) {
	if m.stats != nil {
		m.stats.AuthzDecision(outcome)
	}
}
