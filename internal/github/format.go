package github

import (
	"strings"

	gh "github.com/google/go-github/v53/github"
	"github.com/kevinmichaelchen/star-topics/internal/models"
)

// DefaultMaxRepos is how many starred repositories are kept when the caller
// does not say otherwise.
const DefaultMaxRepos = 5

// FormatRepos keeps the first maxRepos records (all of them when maxRepos is
// nil) and maps each to a RepoSummary. A nil record or a record without
// full_name is fatal.
func FormatRepos(raw []*gh.Repository, maxRepos *int) ([]models.RepoSummary, error) {
	n := len(raw)
	if maxRepos != nil && *maxRepos >= 0 && *maxRepos < n {
		n = *maxRepos
	}

	out := make([]models.RepoSummary, 0, n)
	for i, r := range raw[:n] {
		if r == nil {
			return nil, &MalformedRecordError{Index: i, Field: "repository"}
		}
		if r.FullName == nil {
			return nil, &MalformedRecordError{Index: i, Field: "full_name"}
		}

		owner, _, _ := strings.Cut(r.GetFullName(), "/")
		topics := r.Topics
		if topics == nil {
			topics = []string{}
		}
		out = append(out, models.RepoSummary{
			Owner:       owner,
			Name:        r.GetName(),
			Description: r.GetDescription(),
			Topics:      topics,
		})
	}
	return out, nil
}
