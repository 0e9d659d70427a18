// internal/github/client.go
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"portfolio-stats/internal/cache"
	custom_errors "portfolio-stats/internal/errors"
	"portfolio-stats/internal/model"
)

const (
	// DefaultUserAgent identifies this application to the GitHub API.
	DefaultUserAgent = "Portfolio-App"

	perPage = 100

	// Upper bound for one upstream call, which is shared by every caller
	// waiting on the same endpoint.
	requestTimeout = 30 * time.Second
)

var repoNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Client is a wrapper around the go-github client bound to a single account.
// Every response is served through the shared response cache.
type Client struct {
	gh        *github.Client
	account   string
	responses *cache.Cache
	logger    *slog.Logger
}

// NewClient creates and configures a new Client instance for account.
// When token is non-empty the requests are authenticated, which only raises
// the rate limit; the account identity stays fixed.
func NewClient(account, token string, responses *cache.Cache, logger *slog.Logger) *Client {
	var hc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		hc = oauth2.NewClient(context.Background(), ts)
	}

	gh := github.NewClient(hc)
	gh.UserAgent = DefaultUserAgent

	return &Client{
		gh:        gh,
		account:   account,
		responses: responses,
		logger:    logger.With("account", account),
	}
}

// WithBaseURL points the client at a different API root, such as a GitHub
// Enterprise instance or a test server.
func (c *Client) WithBaseURL(baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid GitHub API base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid GitHub API base URL %q: scheme and host are required", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	c.gh.BaseURL = u
	return nil
}

// SetUserAgent overrides the User-Agent header sent with every request.
func (c *Client) SetUserAgent(ua string) {
	if ua != "" {
		c.gh.UserAgent = ua
	}
}

// Account returns the account name every request is made for.
func (c *Client) Account() string {
	return c.account
}

// GetAccount fetches the account profile.
// GET /users/{account}
func (c *Client) GetAccount(ctx context.Context) (*model.Account, error) {
	endpoint := fmt.Sprintf("/users/%s", c.account)
	return fetch(ctx, c, endpoint, func(ctx context.Context) (*model.Account, error) {
		user, _, err := c.gh.Users.Get(ctx, c.account)
		if err != nil {
			return nil, err
		}
		return toInternalAccount(user), nil
	})
}

// ListRepositories fetches up to 100 repositories of the account, most recently updated first.
// GET /users/{account}/repos?sort=updated&per_page=100
func (c *Client) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	endpoint := fmt.Sprintf("/users/%s/repos?sort=updated&per_page=%d", c.account, perPage)
	return fetch(ctx, c, endpoint, func(ctx context.Context) ([]model.Repository, error) {
		opts := &github.RepositoryListByUserOptions{
			Sort:        "updated",
			ListOptions: github.ListOptions{PerPage: perPage},
		}
		repos, _, err := c.gh.Repositories.ListByUser(ctx, c.account, opts)
		if err != nil {
			return nil, err
		}
		out := make([]model.Repository, 0, len(repos))
		for _, r := range repos {
			out = append(out, toInternalRepository(r))
		}
		return out, nil
	})
}

// ListLanguages fetches the byte count per language of one of the account's repositories.
// GET /repos/{account}/{name}/languages
func (c *Client) ListLanguages(ctx context.Context, name string) (map[string]int, error) {
	if err := ValidateRepoName(name); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("/repos/%s/%s/languages", c.account, repoKey(name))
	return fetch(ctx, c, endpoint, func(ctx context.Context) (map[string]int, error) {
		langs, _, err := c.gh.Repositories.ListLanguages(ctx, c.account, name)
		if err != nil {
			return nil, err
		}
		if langs == nil {
			langs = map[string]int{}
		}
		return langs, nil
	})
}

// ListCommits fetches the latest 100 commits of one of the account's repositories.
// GET /repos/{account}/{name}/commits?per_page=100
func (c *Client) ListCommits(ctx context.Context, name string) ([]model.Commit, error) {
	if err := ValidateRepoName(name); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("/repos/%s/%s/commits?per_page=%d", c.account, repoKey(name), perPage)
	return fetch(ctx, c, endpoint, func(ctx context.Context) ([]model.Commit, error) {
		opts := &github.CommitsListOptions{
			ListOptions: github.ListOptions{PerPage: perPage},
		}
		commits, _, err := c.gh.Repositories.ListCommits(ctx, c.account, name, opts)
		if err != nil {
			return nil, err
		}
		out := make([]model.Commit, 0, len(commits))
		for _, commit := range commits {
			out = append(out, toInternalCommit(commit))
		}
		return out, nil
	})
}

// ValidateRepoName rejects names that cannot identify a repository.
func ValidateRepoName(name string) error {
	if !repoNamePattern.MatchString(name) || name == "." || name == ".." {
		return &custom_errors.ErrInvalidRepoName{Name: name}
	}
	return nil
}

// repoKey normalises a repository name for cache keys. GitHub resolves
// repository names case-insensitively.
func repoKey(name string) string {
	return strings.ToLower(name)
}

// fetch serves endpoint from the cache, calling get on a miss.
// Upstream failures are logged and translated before they reach the caller.
func fetch[T any](ctx context.Context, c *Client, endpoint string, get func(context.Context) (T, error)) (T, error) {
	logger := c.logger.With("endpoint", endpoint)
	if _, ok := c.responses.Get(endpoint); ok {
		logger.Debug("Serving response from cache")
	} else {
		logger.Debug("Cache miss, fetching from GitHub")
	}

	v, err := cache.Fetch(ctx, c.responses, endpoint, func(ctx context.Context) (T, error) {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		v, err := get(ctx)
		if err != nil {
			return v, translateError(err)
		}
		return v, nil
	})
	if err != nil {
		logger.Error("GitHub API fetch error", "error", err)
		return v, err
	}
	return v, nil
}

// translateError turns go-github response errors into an APIError carrying the
// HTTP status. Transport and decode errors are wrapped unchanged.
func translateError(err error) error {
	var (
		rateErr  *github.RateLimitError
		abuseErr *github.AbuseRateLimitError
		respErr  *github.ErrorResponse
		resp     *http.Response
	)
	switch {
	case errors.As(err, &rateErr):
		resp = rateErr.Response
	case errors.As(err, &abuseErr):
		resp = abuseErr.Response
	case errors.As(err, &respErr):
		resp = respErr.Response
	}
	if resp == nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	return &custom_errors.APIError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("GitHub API error: %s", http.StatusText(resp.StatusCode)),
	}
}

// toInternalAccount translates a github.User object to our internal model.Account.
func toInternalAccount(u *github.User) *model.Account {
	return &model.Account{
		Login:       u.GetLogin(),
		Name:        u.GetName(),
		AvatarURL:   u.GetAvatarURL(),
		URL:         u.GetHTMLURL(),
		PublicRepos: u.GetPublicRepos(),
		Followers:   u.GetFollowers(),
		Following:   u.GetFollowing(),
	}
}

// toInternalRepository translates a github.Repository object to our internal model.Repository.
func toInternalRepository(r *github.Repository) model.Repository {
	visibility := r.GetVisibility()
	if visibility == "" {
		visibility = model.VisibilityPublic
		if r.GetPrivate() {
			visibility = model.VisibilityPrivate
		}
	}
	topics := r.Topics
	if topics == nil {
		topics = []string{}
	}
	return model.Repository{
		ID:          r.GetID(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.Description,
		URL:         r.GetHTMLURL(),
		Language:    r.Language,
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		Watchers:    r.GetWatchersCount(),
		Topics:      topics,
		Visibility:  visibility,
		Fork:        r.GetFork(),
		UpdatedAt:   r.GetUpdatedAt().Time,
	}
}

// toInternalCommit translates a github.RepositoryCommit object to our internal model.Commit.
func toInternalCommit(c *github.RepositoryCommit) model.Commit {
	return model.Commit{
		SHA:         c.GetSHA(),
		AuthorName:  c.GetCommit().GetAuthor().GetName(),
		AuthorEmail: c.GetCommit().GetAuthor().GetEmail(),
		Message:     c.GetCommit().GetMessage(),
		URL:         c.GetHTMLURL(),
		Date:        c.GetCommit().GetAuthor().GetDate().Time,
	}
}
