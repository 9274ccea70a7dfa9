package surrealdb

import (
	"context"
	"fmt"

	"github.com/kevinmichaelchen/star-topics/internal/config"
	"github.com/kevinmichaelchen/star-topics/internal/models"
	sdk "github.com/surrealdb/surrealdb.go"
)

const defaultHistoryLimit = 20

type Client struct {
	db *sdk.DB
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	db, err := sdk.FromEndpointURLString(ctx, cfg.SurrealURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, sdk.Auth{
		Namespace: cfg.SurrealNS,
		Database:  cfg.SurrealDB,
		Username:  cfg.SurrealUser,
		Password:  cfg.SurrealPass,
	}); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("signing in: %w", err)
	}

	if err := db.Use(ctx, cfg.SurrealNS, cfg.SurrealDB); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("selecting ns/db: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close(ctx)
}

func (c *Client) InitSchema(ctx context.Context) error {
	schema := `
DEFINE TABLE IF NOT EXISTS analysis SCHEMAFULL;

DEFINE FIELD IF NOT EXISTS username    ON TABLE analysis TYPE string;
DEFINE FIELD IF NOT EXISTS max_repos   ON TABLE analysis TYPE option<int>;
DEFINE FIELD IF NOT EXISTS repo_count  ON TABLE analysis TYPE int;
DEFINE FIELD IF NOT EXISTS topic_count ON TABLE analysis TYPE int;
DEFINE FIELD IF NOT EXISTS outliers    ON TABLE analysis TYPE int;
DEFINE FIELD IF NOT EXISTS topics      ON TABLE analysis TYPE array<string>;
DEFINE FIELD IF NOT EXISTS analyzed_at ON TABLE analysis TYPE datetime DEFAULT time::now();

DEFINE INDEX IF NOT EXISTS idx_username ON TABLE analysis FIELDS username;
`
	_, err := sdk.Query[any](ctx, c.db, schema, nil)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// SaveAnalysis stores one analysis summary. analyzed_at is set by the
// database.
func (c *Client) SaveAnalysis(ctx context.Context, rec models.AnalysisRecord) error {
	// Only set max_repos when present to avoid CBOR NULL vs SurrealDB NONE
	// mismatch on option<int>.
	topics := rec.Topics
	if topics == nil {
		topics = []string{}
	}
	data := map[string]any{
		"username":    rec.Username,
		"repo_count":  rec.RepoCount,
		"topic_count": rec.TopicCount,
		"outliers":    rec.Outliers,
		"topics":      topics,
	}
	if rec.MaxRepos != nil {
		data["max_repos"] = *rec.MaxRepos
	}

	_, err := sdk.Query[any](ctx, c.db,
		`CREATE analysis CONTENT $data`,
		map[string]any{"data": data})
	if err != nil {
		return fmt.Errorf("saving analysis of %s: %w", rec.Username, err)
	}
	return nil
}

// ListAnalyses returns the most recent analyses, newest first.
func (c *Client) ListAnalyses(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	results, err := sdk.Query[[]models.AnalysisRecord](ctx, c.db,
		`SELECT username, max_repos, repo_count, topic_count, outliers, topics,
			<string> analyzed_at AS analyzed_at
		FROM analysis
		ORDER BY analyzed_at DESC
		LIMIT $limit`,
		map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	if len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}
