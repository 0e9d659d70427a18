// internal/errors/errors.go
package errors

import "fmt"

// APIError is returned when the GitHub API answers with a non-success status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// ErrInvalidRepoName is returned when a repository name is empty or contains
// characters GitHub does not allow.
type ErrInvalidRepoName struct {
	Name string
}

func (e *ErrInvalidRepoName) Error() string {
	return fmt.Sprintf("invalid repository name: %q", e.Name)
}
