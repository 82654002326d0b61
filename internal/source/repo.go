package source

import (
	"regexp"
	"strings"

	"github.com/ppiankov/slopscore/internal/model"
)

var (
	// repoPattern extracts owner and name from any https://<host>/<owner>/<repo> URL
	repoPattern = regexp.MustCompile(`^https?://[^/\s]+/([^/\s?#]+)/([^/\s?#]+)`)

	// strictRepoPattern is the input check applied before a run is submitted
	strictRepoPattern = regexp.MustCompile(`^https://github\.com/[A-Za-z0-9_-]+/[A-Za-z0-9_.-]+/?$`)
)

// Repo identifies a hosted repository
type Repo struct {
	Owner string
	Name  string
}

// Slug returns "owner/name"
func (r Repo) Slug() string {
	return r.Owner + "/" + r.Name
}

// ParseRepoURL extracts owner and name from a repository URL
func ParseRepoURL(rawURL string) (Repo, error) {
	m := repoPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return Repo{}, model.NewError(model.KindInvalidInput, "invalid GitHub repository URL format: %q", rawURL)
	}
	return Repo{Owner: m[1], Name: m[2]}, nil
}

// ValidateRepoURL rejects anything but https://github.com/<owner>/<repo> with an optional trailing slash
func ValidateRepoURL(rawURL string) error {
	if !strictRepoPattern.MatchString(rawURL) {
		return model.NewError(model.KindInvalidInput, "please enter a valid GitHub repository URL (e.g., https://github.com/owner/repo)")
	}
	return nil
}
