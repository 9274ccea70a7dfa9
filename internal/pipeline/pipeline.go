package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	gh "github.com/google/go-github/v53/github"
	"github.com/kevinmichaelchen/star-topics/internal/github"
	"github.com/kevinmichaelchen/star-topics/internal/logger"
	"github.com/kevinmichaelchen/star-topics/internal/models"
	"github.com/kevinmichaelchen/star-topics/internal/topic"
	"golang.org/x/sync/errgroup"
)

const (
	defaultReadmeConcurrency = 5
	maxReadmeChars           = 3000
)

// StarFetcher is the part of the GitHub client the pipeline needs.
type StarFetcher interface {
	FetchStarred(ctx context.Context, username string) ([]*gh.Repository, error)
	FetchReadme(ctx context.Context, fullName string) (string, error)
}

// HistoryStore persists a summary of every completed analysis.
type HistoryStore interface {
	SaveAnalysis(ctx context.Context, rec models.AnalysisRecord) error
}

type Service struct {
	github            StarFetcher
	model             topic.Model
	history           HistoryStore
	readmeConcurrency int
}

type Option func(*Service)

func WithHistory(h HistoryStore) Option {
	return func(s *Service) {
		s.history = h
	}
}

func WithReadmeConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.readmeConcurrency = n
		}
	}
}

// NewService wires the fetcher and the topic model. model may be nil when
// only RepoInfo is used.
func NewService(fetcher StarFetcher, model topic.Model, opts ...Option) *Service {
	s := &Service{
		github:            fetcher,
		model:             model,
		readmeConcurrency: defaultReadmeConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RepoInfo fetches the starred repositories of username and normalizes the
// first maxRepos of them (all when maxRepos is nil).
func (s *Service) RepoInfo(ctx context.Context, username string, maxRepos *int) ([]models.RepoSummary, error) {
	raw, err := s.github.FetchStarred(ctx, username)
	if err != nil {
		return nil, err
	}
	return github.FormatRepos(raw, maxRepos)
}

// AnalyzeUser runs topic analysis over the starred repositories of username.
func (s *Service) AnalyzeUser(ctx context.Context, username string, maxRepos *int, includeReadme bool) (*models.AnalysisResult, error) {
	if s.model == nil {
		return nil, errors.New("no topic model configured")
	}

	repos, err := s.RepoInfo(ctx, username, maxRepos)
	if err != nil {
		return nil, err
	}

	docs := BuildDocuments(repos)
	if includeReadme {
		s.enrichWithReadmes(ctx, repos, docs)
	}

	res, err := topic.Analyze(ctx, s.model, docs)
	if err != nil {
		return nil, fmt.Errorf("analyzing stars of %s: %w", username, err)
	}

	result := &models.AnalysisResult{
		RepositoryInfo: repos,
		TopicAnalysis: models.TopicAnalysis{
			TopicDistribution: res.Labels,
			TopicInfo:         res.Info,
		},
	}

	if s.history != nil {
		if err := s.history.SaveAnalysis(ctx, newRecord(username, maxRepos, result)); err != nil {
			logger.Warnf("[Pipeline] saving analysis of %s: %v", username, err)
		}
	}
	return result, nil
}

// BuildDocuments returns one document per repository: its description
// followed by its topics.
func BuildDocuments(repos []models.RepoSummary) []string {
	docs := make([]string, len(repos))
	for i, r := range repos {
		docs[i] = joinDocument(r.Description, strings.Join(r.Topics, " "))
	}
	return docs
}

// enrichWithReadmes appends each repository's README to its document.
// A README that cannot be fetched leaves the document as it was.
func (s *Service) enrichWithReadmes(ctx context.Context, repos []models.RepoSummary, docs []string) {
	var fetched atomic.Int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.readmeConcurrency)

	for i, repo := range repos {
		g.Go(func() error {
			readme, err := s.github.FetchReadme(gCtx, repo.FullName())
			if err != nil {
				logger.Warnf("[Pipeline] README for %s: %v", repo.FullName(), err)
				return nil
			}
			docs[i] = joinDocument(docs[i], truncate(readme, maxReadmeChars))
			fetched.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	logger.Infof("[Pipeline] fetched %d/%d READMEs", fetched.Load(), len(repos))
}

func newRecord(username string, maxRepos *int, result *models.AnalysisResult) models.AnalysisRecord {
	rec := models.AnalysisRecord{
		Username:  username,
		MaxRepos:  maxRepos,
		RepoCount: len(result.RepositoryInfo),
		Topics:    []string{},
	}
	for _, l := range result.TopicAnalysis.TopicDistribution {
		if l == topic.OutlierTopic {
			rec.Outliers++
		}
	}
	for _, ti := range result.TopicAnalysis.TopicInfo {
		if ti.Topic == topic.OutlierTopic {
			continue
		}
		rec.TopicCount++
		name := ti.Label
		if name == "" {
			name = ti.Name
		}
		rec.Topics = append(rec.Topics, name)
	}
	return rec
}

func joinDocument(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
