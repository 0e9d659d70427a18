// internal/model/models.go
package model

import "time"

// Repository represents the metadata of a GitHub repository owned by the portfolio account.
type Repository struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description *string   `json:"description"`
	URL         string    `json:"html_url"`
	Language    *string   `json:"language"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	Watchers    int       `json:"watchers_count"`
	Topics      []string  `json:"topics"`
	Visibility  string    `json:"visibility"`
	Fork        bool      `json:"fork"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Account is a snapshot of the portfolio owner's GitHub profile.
type Account struct {
	Login       string `json:"login"`
	Name        string `json:"name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	URL         string `json:"html_url,omitempty"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}

// Commit is one entry of a repository's recent history.
type Commit struct {
	SHA         string    `json:"sha"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	Message     string    `json:"message"`
	URL         string    `json:"html_url"`
	Date        time.Time `json:"date"`
}

// Stats is derived from an account and its repositories on every request.
// HasLanguageData is false when no repository declared a language, in which
// case MostUsedLanguage holds the configured fallback.
type Stats struct {
	TotalRepos       int            `json:"totalRepos"`
	TotalStars       int            `json:"totalStars"`
	TotalForks       int            `json:"totalForks"`
	Languages        map[string]int `json:"languages"`
	MostUsedLanguage string         `json:"mostUsedLanguage"`
	HasLanguageData  bool           `json:"hasLanguageData"`
	PublicRepos      int            `json:"publicRepos"`
	Followers        int            `json:"followers"`
	Following        int            `json:"following"`
}

// RepositoryCounts breaks the account's repositories down by visibility and origin.
type RepositoryCounts struct {
	Total    int `json:"total"`
	Original int `json:"original"`
	Forks    int `json:"forks"`
	Private  int `json:"private"`
}

// IsPublic reports whether the repository is publicly visible.
func (r Repository) IsPublic() bool {
	return r.Visibility == VisibilityPublic
}

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)
