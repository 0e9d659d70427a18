// internal/portfolio/service.go
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	custom_errors "portfolio-stats/internal/errors"
	"portfolio-stats/internal/model"
	"portfolio-stats/internal/stats"
)

// Source is the read-only view of the GitHub account the service is built on.
type Source interface {
	GetAccount(ctx context.Context) (*model.Account, error)
	ListRepositories(ctx context.Context) ([]model.Repository, error)
	ListLanguages(ctx context.Context, name string) (map[string]int, error)
	ListCommits(ctx context.Context, name string) ([]model.Commit, error)
}

// Options tunes the derived views.
type Options struct {
	Featured         []string
	FeaturedLimit    int
	FallbackLanguage string
}

// Service exposes the read operations the portfolio page needs. Every
// operation is independent and safe to retry.
type Service struct {
	src    Source
	logger *slog.Logger
	opts   Options
}

// NewService creates a new Service instance.
func NewService(src Source, logger *slog.Logger, opts Options) *Service {
	if opts.FeaturedLimit <= 0 {
		opts.FeaturedLimit = stats.DefaultFeaturedLimit
	}
	if opts.FallbackLanguage == "" {
		opts.FallbackLanguage = stats.DefaultFallbackLanguage
	}
	return &Service{
		src:    src,
		logger: logger,
		opts:   opts,
	}
}

// Account returns the account profile.
func (s *Service) Account(ctx context.Context) (*model.Account, error) {
	account, err := s.src.GetAccount(ctx)
	if err != nil {
		s.logger.Error("Error fetching GitHub account", "error", err)
		return nil, fmt.Errorf("fetch account: %w", err)
	}
	return account, nil
}

// Repositories returns the public repositories, optionally without forks.
func (s *Service) Repositories(ctx context.Context, includeForks bool) ([]model.Repository, error) {
	repos, err := s.src.ListRepositories(ctx)
	if err != nil {
		s.logger.Error("Error fetching GitHub repositories", "error", err)
		return nil, fmt.Errorf("fetch repositories: %w", err)
	}
	return stats.FilterPublic(repos, includeForks), nil
}

// Featured returns the bounded, priority-ordered selection of public repositories.
func (s *Service) Featured(ctx context.Context, includeForks bool) ([]model.Repository, error) {
	repos, err := s.Repositories(ctx, includeForks)
	if err != nil {
		return nil, err
	}
	return stats.SelectFeatured(repos, s.opts.Featured, s.opts.FeaturedLimit), nil
}

// Counts returns repository totals by visibility and origin, private ones included.
func (s *Service) Counts(ctx context.Context) (model.RepositoryCounts, error) {
	repos, err := s.src.ListRepositories(ctx)
	if err != nil {
		s.logger.Error("Error fetching GitHub repositories", "error", err)
		return model.RepositoryCounts{}, fmt.Errorf("fetch repositories: %w", err)
	}
	return stats.CountRepositories(repos), nil
}

// Stats fetches the account and its public repositories concurrently and
// aggregates them.
func (s *Service) Stats(ctx context.Context) (model.Stats, error) {
	var (
		account *model.Account
		repos   []model.Repository
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		account, err = s.src.GetAccount(gctx)
		if err != nil {
			return fmt.Errorf("fetch account: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		all, err := s.src.ListRepositories(gctx)
		if err != nil {
			return fmt.Errorf("fetch repositories: %w", err)
		}
		repos = stats.FilterPublic(all, true)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Error fetching GitHub stats", "error", err)
		return model.Stats{}, err
	}

	return stats.Aggregate(repos, *account, s.opts.FallbackLanguage), nil
}

// Languages returns the language byte counts of one repository.
func (s *Service) Languages(ctx context.Context, name string) (map[string]int, error) {
	langs, err := s.src.ListLanguages(ctx, name)
	if err != nil {
		s.logger.Error("Error fetching repository languages", "repo", name, "error", err)
		return nil, fmt.Errorf("fetch languages for %s: %w", name, err)
	}
	return langs, nil
}

// Commits returns the latest commits of one repository. Upstream failures are
// logged and reported as an empty history; an invalid name is still an error.
func (s *Service) Commits(ctx context.Context, name string) ([]model.Commit, error) {
	commits, err := s.src.ListCommits(ctx, name)
	if err != nil {
		var nameErr *custom_errors.ErrInvalidRepoName
		if errors.As(err, &nameErr) {
			return nil, err
		}
		s.logger.Error("Error fetching commits", "repo", name, "error", err)
		return []model.Commit{}, nil
	}
	return commits, nil
}
