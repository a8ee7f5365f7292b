// Package httpserver wires spec §6's HTTP API onto a chi router: the
// session/account endpoints, the job intake and query endpoints, and
// the contest/ranklist endpoints, each gated by auth.Sessions at the
// role minimum the spec's endpoint table names. Adapted from the
// teacher's internal/server router assembly, generalized from its
// /problems + /auth surface onto the full OJ surface.
package httpserver

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/codearena/judgecore/config"
	"github.com/codearena/judgecore/internal/auth"
	"github.com/codearena/judgecore/internal/contest"
	"github.com/codearena/judgecore/internal/intake"
	"github.com/codearena/judgecore/internal/store"
	"github.com/codearena/judgecore/types"
)

// Server wraps the HTTP server and router, following the teacher's
// Server shape.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
}

// Deps bundles everything a Server needs beyond configuration.
type Deps struct {
	DB       *sql.DB
	Static   config.Static
	Sessions *auth.Sessions
	AuthMode bool

	Users    *store.UserRepository
	Contests *store.ContestRepository
	Jobs     *store.JobRepository
	Intake   *intake.Service
	Ranklist *contest.Engine
}

// New constructs a Server with the full route table wired in.
func New(infra config.Infra, deps Deps) *Server {
	h := &handlers{deps: deps}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", h.healthz)

	role := func(min types.Role) func(http.Handler) http.Handler {
		return deps.Sessions.RequireRole(deps.AuthMode, min, func(ctx context.Context, id uint32) (types.Role, error) {
			u, err := deps.Users.GetByID(ctx, id)
			if err != nil {
				return 0, err
			}
			return u.Role, nil
		})
	}

	router.Post("/register", h.register)
	router.Post("/login", h.login)

	router.With(role(types.RoleUser)).Post("/passwd", h.changePassword)
	router.With(role(types.RoleAdmin)).Post("/privilege", h.setPrivilege)
	router.With(role(types.RoleAdmin)).Post("/users", h.createUser)
	router.With(role(types.RoleUser)).Get("/users", h.listUsers)

	router.With(role(types.RoleUser)).Post("/jobs", h.createJob)
	router.With(role(types.RoleUser)).Get("/jobs", h.listJobs)
	router.With(role(types.RoleUser)).Get("/jobs/{id}", h.getJob)
	router.With(role(types.RoleAuthor)).Put("/jobs/{id}", h.rejudgeJob)
	router.With(role(types.RoleAuthor)).Delete("/jobs/{id}", h.cancelJob)

	router.With(role(types.RoleAuthor)).Post("/contests", h.createContest)
	router.With(role(types.RoleUser)).Get("/contests", h.listContests)
	router.With(role(types.RoleUser)).Get("/contests/{id}", h.getContest)
	router.With(role(types.RoleUser)).Get("/contests/{id}/ranklist", h.ranklist)

	port := infra.ServerPort
	if port == 0 {
		port = 8080
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router: router,
		db:     deps.DB,
	}
}

// Router exposes the chi router, e.g. for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until it's closed or errors.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type handlers struct {
	deps Deps
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
