// internal/github/client_test.go
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-stats/internal/cache"
	custom_errors "portfolio-stats/internal/errors"
)

// setupTestClient creates a httptest server and a client pointing to it.
func setupTestClient(t *testing.T, handler http.Handler) (*Client, *clockwork.FakeClock, *httptest.Server) {
	server := httptest.NewServer(handler)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	clock := clockwork.NewFakeClock()
	client := NewClient("tester", "", cache.New(cache.DefaultTTL, clock), logger)
	require.NoError(t, client.WithBaseURL(server.URL))

	return client, clock, server
}

func TestClient_GetAccount(t *testing.T) {
	t.Run("sends the fixed headers and decodes the account", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/tester", r.URL.Path)
			assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
			assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
			fmt.Fprintln(w, `{"login": "tester", "public_repos": 20, "followers": 10, "following": 5}`)
		})
		client, _, server := setupTestClient(t, handler)
		defer server.Close()

		account, err := client.GetAccount(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "tester", account.Login)
		assert.Equal(t, 20, account.PublicRepos)
		assert.Equal(t, 10, account.Followers)
		assert.Equal(t, 5, account.Following)
	})

	t.Run("serves repeated calls from cache until the entry expires", func(t *testing.T) {
		var requestCount int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requestCount, 1)
			fmt.Fprintln(w, `{"login": "tester"}`)
		})
		client, clock, server := setupTestClient(t, handler)
		defer server.Close()
		ctx := context.Background()

		_, err := client.GetAccount(ctx)
		require.NoError(t, err)
		_, err = client.GetAccount(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount), "second call should be served from cache")

		clock.Advance(cache.DefaultTTL + time.Second)
		_, err = client.GetAccount(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&requestCount), "expired entry should be fetched again")
	})

	t.Run("returns an APIError on 404 and caches nothing", func(t *testing.T) {
		var requestCount int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requestCount, 1)
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintln(w, `{"message": "Not Found"}`)
		})
		client, _, server := setupTestClient(t, handler)
		defer server.Close()

		_, err := client.GetAccount(context.Background())

		require.Error(t, err)
		var apiErr *custom_errors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
		assert.Equal(t, "GitHub API error: Not Found", apiErr.Message)
		assert.Equal(t, 0, client.responses.Len())

		_, err = client.GetAccount(context.Background())
		require.Error(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&requestCount), "failures must not be cached")
	})

	t.Run("does not retry server errors", func(t *testing.T) {
		var requestCount int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requestCount, 1)
			w.WriteHeader(http.StatusInternalServerError)
		})
		client, _, server := setupTestClient(t, handler)
		defer server.Close()

		_, err := client.GetAccount(context.Background())

		var apiErr *custom_errors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
		assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))
	})

	t.Run("reports rate limiting as an APIError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Limit", "60")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Hour).Unix()))
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintln(w, `{"message": "API rate limit exceeded for 127.0.0.1."}`)
		})
		client, _, server := setupTestClient(t, handler)
		defer server.Close()

		_, err := client.GetAccount(context.Background())

		var apiErr *custom_errors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusForbidden, apiErr.Status)
	})

	t.Run("wraps transport errors without a status", func(t *testing.T) {
		client, _, server := setupTestClient(t, http.NotFoundHandler())
		server.Close()

		_, err := client.GetAccount(context.Background())

		require.Error(t, err)
		var apiErr *custom_errors.APIError
		assert.False(t, errors.As(err, &apiErr))
	})
}

func TestClient_ListRepositories(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/tester/repos", r.URL.Path)
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		fmt.Fprintln(w, `[
			{"id": 1, "name": "a", "language": "Go", "stargazers_count": 5, "forks_count": 1, "topics": ["cli"], "visibility": "public", "updated_at": "2024-01-02T12:00:00Z"},
			{"id": 2, "name": "b", "language": null, "stargazers_count": 9, "fork": true, "private": true}
		]`)
	})
	client, _, server := setupTestClient(t, handler)
	defer server.Close()

	repos, err := client.ListRepositories(context.Background())

	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "a", repos[0].Name)
	require.NotNil(t, repos[0].Language)
	assert.Equal(t, "Go", *repos[0].Language)
	assert.Equal(t, []string{"cli"}, repos[0].Topics)
	assert.Equal(t, "public", repos[0].Visibility)
	assert.Equal(t, time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC), repos[0].UpdatedAt.UTC())

	assert.Nil(t, repos[1].Language)
	assert.True(t, repos[1].Fork)
	assert.Equal(t, "private", repos[1].Visibility)
	assert.Equal(t, []string{}, repos[1].Topics)

	_, ok := client.responses.Get("/users/tester/repos?sort=updated&per_page=100")
	assert.True(t, ok, "response should be cached under its endpoint path")
}

func TestClient_RepositoryEndpoints(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/tester/portfolio/languages":
			fmt.Fprintln(w, `{"Go": 1200, "HTML": 300}`)
		case "/repos/tester/portfolio/commits":
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			fmt.Fprintln(w, `[{"sha": "abc", "html_url": "url1", "commit": {"message": "init", "author": {"name": "tester", "email": "t@t.com", "date": "2024-01-01T12:00:00Z"}}}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	client, _, server := setupTestClient(t, handler)
	defer server.Close()
	ctx := context.Background()

	t.Run("languages", func(t *testing.T) {
		langs, err := client.ListLanguages(ctx, "portfolio")
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"Go": 1200, "HTML": 300}, langs)
	})

	t.Run("commits", func(t *testing.T) {
		commits, err := client.ListCommits(ctx, "portfolio")
		require.NoError(t, err)
		require.Len(t, commits, 1)
		assert.Equal(t, "abc", commits[0].SHA)
		assert.Equal(t, "init", commits[0].Message)
		assert.Equal(t, "t@t.com", commits[0].AuthorEmail)
	})

	t.Run("rejects invalid repository names without a request", func(t *testing.T) {
		for _, name := range []string{"", "..", "a/b", "a b"} {
			_, err := client.ListLanguages(ctx, name)
			var nameErr *custom_errors.ErrInvalidRepoName
			assert.ErrorAs(t, err, &nameErr, "name %q", name)
		}
	})
}

func TestValidateRepoName(t *testing.T) {
	assert.NoError(t, ValidateRepoName("itbi-county"))
	assert.NoError(t, ValidateRepoName("vitalis_app"))
	assert.NoError(t, ValidateRepoName("my.portfolio"))
	assert.Error(t, ValidateRepoName("."))
	assert.Error(t, ValidateRepoName("owner/name"))
}

func TestClient_RepositoryNamesShareCacheAcrossCase(t *testing.T) {
	var requestCount int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		assert.True(t, strings.EqualFold("/repos/tester/DevRec/languages", r.URL.Path), "unexpected path %s", r.URL.Path)
		fmt.Fprintln(w, `{"Go": 10}`)
	})
	client, _, server := setupTestClient(t, handler)
	defer server.Close()
	ctx := context.Background()

	first, err := client.ListLanguages(ctx, "DevRec")
	require.NoError(t, err)
	second, err := client.ListLanguages(ctx, "devrec")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount), "names differing only in case should hit the cache")
	_, ok := client.responses.Get("/repos/tester/devrec/languages")
	assert.True(t, ok)
}
