package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/openleague/openleague-go/internal/api"
)

// RouteGroup defines an endpoint group with its auth requirements.
type RouteGroup struct {
	Name         string
	PathPrefix   string
	RequiresAuth bool
}

// routeGroups is the single source of truth for auth gating decisions.
var routeGroups = []RouteGroup{
	{Name: "health", PathPrefix: "/api/healthz", RequiresAuth: false},
	{Name: "auth", PathPrefix: "/api/auth", RequiresAuth: false},
	{Name: "orgs", PathPrefix: "/api/orgs", RequiresAuth: true},
	{Name: "invitations", PathPrefix: "/api/invitations", RequiresAuth: true},
	{Name: "leagues", PathPrefix: "/api/leagues", RequiresAuth: true},
	{Name: "teams", PathPrefix: "/api/teams", RequiresAuth: true},
	{Name: "players", PathPrefix: "/api/players", RequiresAuth: true},
	{Name: "games", PathPrefix: "/api/games", RequiresAuth: true},
	{Name: "referees", PathPrefix: "/api/referees", RequiresAuth: true},
}

// GetRouteGroups returns the route group definitions for testing.
func GetRouteGroups() []RouteGroup {
	return routeGroups
}

// IsAuthRequired checks if a given path requires authentication.
func IsAuthRequired(path string) bool {
	for _, rg := range routeGroups {
		if pathMatchesPrefix(path, rg.PathPrefix) {
			return rg.RequiresAuth
		}
	}
	// Unknown paths require auth.
	return true
}

// pathMatchesPrefix checks if path equals or is a subpath of prefix.
func pathMatchesPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	if len(path) > len(prefix) && path[:len(prefix)] == prefix {
		if path[len(prefix)] == '/' {
			return true
		}
	}
	return false
}

func (s *Server) setupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(RequestLogMiddleware(s.logger))
	r.Use(NewAuthGate(AuthGateConfig{
		RequireAuth: IsAuthRequired,
		Provider:    s.deps.Identity,
		Log:         s.logger,
	}))

	authHandler := api.NewAuthHandler(s.deps.Identity, s.deps.Orgs, s.cfg.CookieSecureEnabled(), s.logger)
	orgHandler := api.NewOrgHandler(s.deps.Orgs, s.deps.Sessions, s.logger)
	leagueHandler := api.NewLeagueHandler(s.deps.Leagues, s.logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", api.HealthHandler)

		// Credential endpoints are brute-force targets.
		r.Group(func(r chi.Router) {
			r.Use(NewRateLimitGate(s.deps.Limiter, s.logger))
			r.Mount("/auth", authHandler.Router())
		})

		r.Mount("/orgs", orgHandler.Router())
		r.Mount("/invitations", orgHandler.InvitationsRouter())
		leagueHandler.Mount(r)
	})

	return r
}
