// internal/api/handler.go
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	custom_errors "portfolio-stats/internal/errors"
	"portfolio-stats/internal/model"
)

// Portfolio is the set of read operations the API exposes.
type Portfolio interface {
	Account(ctx context.Context) (*model.Account, error)
	Repositories(ctx context.Context, includeForks bool) ([]model.Repository, error)
	Featured(ctx context.Context, includeForks bool) ([]model.Repository, error)
	Counts(ctx context.Context) (model.RepositoryCounts, error)
	Stats(ctx context.Context) (model.Stats, error)
	Languages(ctx context.Context, name string) (map[string]int, error)
	Commits(ctx context.Context, name string) ([]model.Commit, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	svc    Portfolio
	logger *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(svc Portfolio, logger *slog.Logger) http.Handler {
	h := &Handler{
		svc:    svc,
		logger: logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/account", h.getAccount)
		r.Get("/stats", h.getStats)
		r.Route("/repos", func(r chi.Router) {
			r.Get("/", h.getRepositories)
			r.Get("/featured", h.getFeatured)
			r.Get("/counts", h.getCounts)
			r.Get("/{name}/languages", h.getLanguages)
			r.Get("/{name}/commits", h.getCommits)
		})
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getAccount returns the account profile.
// GET /v1/account
func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.svc.Account(r.Context())
	if err != nil {
		h.respondWithFetchError(w, r, err, "Failed to load account data")
		return
	}
	respondWithJSON(w, http.StatusOK, account)
}

// getRepositories returns the public repositories.
// GET /v1/repos?include_forks=true
func (h *Handler) getRepositories(w http.ResponseWriter, r *http.Request) {
	includeForks, ok := parseIncludeForks(w, r, true)
	if !ok {
		return
	}
	repos, err := h.svc.Repositories(r.Context(), includeForks)
	if err != nil {
		h.respondWithFetchError(w, r, err, "Failed to load repositories")
		return
	}
	respondWithJSON(w, http.StatusOK, repos)
}

// getFeatured returns the featured selection.
// GET /v1/repos/featured?include_forks=false
func (h *Handler) getFeatured(w http.ResponseWriter, r *http.Request) {
	includeForks, ok := parseIncludeForks(w, r, false)
	if !ok {
		return
	}
	repos, err := h.svc.Featured(r.Context(), includeForks)
	if err != nil {
		h.respondWithFetchError(w, r, err, "Failed to load featured repositories")
		return
	}
	respondWithJSON(w, http.StatusOK, repos)
}

// getCounts returns repository totals.
// GET /v1/repos/counts
func (h *Handler) getCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.Counts(r.Context())
	if err != nil {
		h.respondWithFetchError(w, r, err, "Failed to load repository counts")
		return
	}
	respondWithJSON(w, http.StatusOK, counts)
}

// getStats returns the aggregate statistics.
// GET /v1/stats
func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.respondWithFetchError(w, r, err, "Failed to load statistics")
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// getLanguages returns the language breakdown of a repository.
// GET /v1/repos/{name}/languages
func (h *Handler) getLanguages(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	langs, err := h.svc.Languages(r.Context(), name)
	if err != nil {
		h.respondWithFetchError(w, r, err, "Failed to load repository languages")
		return
	}
	respondWithJSON(w, http.StatusOK, langs)
}

// getCommits returns the latest commits of a repository.
// GET /v1/repos/{name}/commits
func (h *Handler) getCommits(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	commits, err := h.svc.Commits(r.Context(), name)
	if err != nil {
		h.respondWithFetchError(w, r, err, "Failed to load commits")
		return
	}
	respondWithJSON(w, http.StatusOK, commits)
}

// respondWithFetchError maps a failed fetch to a status code and a message
// the page can show next to its retry button. Once the request deadline has
// passed nothing is written; the Timeout middleware answers with 504.
func (h *Handler) respondWithFetchError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var (
		apiErr  *custom_errors.APIError
		nameErr *custom_errors.ErrInvalidRepoName
	)
	switch {
	case errors.Is(r.Context().Err(), context.DeadlineExceeded):
		h.logger.Warn(message, "error", err, "reason", "request deadline exceeded")
	case errors.As(err, &nameErr):
		respondWithError(w, http.StatusBadRequest, nameErr.Error())
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		respondWithError(w, http.StatusNotFound, message+": not found on GitHub")
	default:
		h.logger.Error(message, "error", err)
		respondWithError(w, http.StatusBadGateway, message)
	}
}

func parseIncludeForks(w http.ResponseWriter, r *http.Request, def bool) (bool, bool) {
	raw := r.URL.Query().Get("include_forks")
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid 'include_forks' parameter. Must be true or false.")
		return false, false
	}
	return v, true
}
