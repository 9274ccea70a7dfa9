package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kevinmichaelchen/star-topics/internal/config"
	"github.com/kevinmichaelchen/star-topics/internal/embedding"
	"github.com/kevinmichaelchen/star-topics/internal/github"
	"github.com/kevinmichaelchen/star-topics/internal/llm"
	"github.com/kevinmichaelchen/star-topics/internal/logger"
	"github.com/kevinmichaelchen/star-topics/internal/pipeline"
	"github.com/kevinmichaelchen/star-topics/internal/server"
	"github.com/kevinmichaelchen/star-topics/internal/surrealdb"
	"github.com/kevinmichaelchen/star-topics/internal/topic"
	"github.com/spf13/cobra"
)

var cfg *config.Config

func main() {
	root := &cobra.Command{
		Use:           "star-topics",
		Short:         "GitHub stars → topics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()
			return logger.Setup(cfg.LogLevel, cfg.LogFile)
		},
	}

	root.AddCommand(serveCmd(), infoCmd(), analyzeCmd(), readmeCmd(), schemaCmd(), historyCmd())

	if err := root.Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, closeFn, err := newService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			srv := server.NewServer(svc, cfg.HTTPAddr, cfg.RequestTimeout)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(shutdownCtx)
		},
	}
}

func infoCmd() *cobra.Command {
	var maxRepos int
	var all bool

	cmd := &cobra.Command{
		Use:     "info [username]",
		Short:   "Print the normalized starred repositories of a user",
		Args:    cobra.ExactArgs(1),
		PreRunE: needToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			gh, err := newGitHubClient()
			if err != nil {
				return err
			}

			repos, err := pipeline.NewService(gh, nil).RepoInfo(ctx, args[0], limit(maxRepos, all))
			if err != nil {
				return err
			}
			return printJSON(repos)
		},
	}
	cmd.Flags().IntVarP(&maxRepos, "max-repos", "n", github.DefaultMaxRepos, "Number of repositories to keep")
	cmd.Flags().BoolVar(&all, "all", false, "Keep every repository")
	return cmd
}

func analyzeCmd() *cobra.Command {
	var maxRepos int
	var all, readme bool

	cmd := &cobra.Command{
		Use:     "analyze [username]",
		Short:   "Cluster the starred repositories of a user into topics",
		Args:    cobra.ExactArgs(1),
		PreRunE: needToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, closeFn, err := newService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := svc.AnalyzeUser(ctx, args[0], limit(maxRepos, all), readme)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	cmd.Flags().IntVarP(&maxRepos, "max-repos", "n", github.DefaultMaxRepos, "Number of repositories to analyze")
	cmd.Flags().BoolVar(&all, "all", false, "Analyze every repository")
	cmd.Flags().BoolVar(&readme, "readme", false, "Add README text to each document")
	return cmd
}

func readmeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "readme [owner/repo]",
		Short:   "Print the cleansed README of a repository",
		Args:    cobra.ExactArgs(1),
		PreRunE: needToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			gh, err := newGitHubClient()
			if err != nil {
				return err
			}
			text, err := gh.FetchReadme(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Print(text)
			return nil
		},
	}
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Initialize/update SurrealDB schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			db, err := surrealdb.NewClient(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(ctx) }()

			if err := db.InitSchema(ctx); err != nil {
				return err
			}
			fmt.Println("Schema initialized")
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			db, err := surrealdb.NewClient(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(ctx) }()

			records, err := db.ListAnalyses(ctx, n)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No analyses stored")
				return nil
			}

			for _, r := range records {
				fmt.Printf("%s  %-20s repos=%d topics=%d outliers=%d\n",
					r.AnalyzedAt, r.Username, r.RepoCount, r.TopicCount, r.Outliers)
				if len(r.Topics) > 0 {
					fmt.Printf("   %s\n", strings.Join(r.Topics, ", "))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "limit", "l", 20, "Number of analyses to show")
	return cmd
}

// needToken fails one-shot commands early; the server instead reports a
// missing token per request.
func needToken(cmd *cobra.Command, args []string) error {
	_, err := cfg.Token()
	return err
}

func newGitHubClient() (*github.Client, error) {
	opts := []github.Option{github.WithTimeout(cfg.UpstreamTimeout)}
	if cfg.GitHubAPIURL != "" {
		opts = append(opts, github.WithBaseURL(cfg.GitHubAPIURL))
	}
	return github.NewClient(cfg.GitHubToken, opts...)
}

// newService builds the analysis service. The returned func releases the
// history store, if one was opened.
func newService(ctx context.Context) (*pipeline.Service, func(), error) {
	gh, err := newGitHubClient()
	if err != nil {
		return nil, nil, err
	}

	topicOpts := []topic.Option{
		topic.WithMinClusterSize(cfg.TopicMinClusterSize),
		topic.WithSimilarityThreshold(cfg.TopicSimilarityThreshold),
		topic.WithLanguage(cfg.TopicLanguage),
	}
	if cfg.LabelingEnabled() {
		topicOpts = append(topicOpts, topic.WithLabeler(llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)))
	}
	model := topic.NewClusterer(
		embedding.NewClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel),
		topicOpts...,
	)

	var svcOpts []pipeline.Option
	closeFn := func() {}
	if cfg.HistoryEnabled() {
		db, err := surrealdb.NewClient(ctx, cfg)
		if err != nil {
			logger.Warnf("history disabled: %v", err)
		} else {
			svcOpts = append(svcOpts, pipeline.WithHistory(db))
			closeFn = func() { _ = db.Close(context.Background()) }
		}
	}

	return pipeline.NewService(gh, model, svcOpts...), closeFn, nil
}

func limit(n int, all bool) *int {
	if all || n < 0 {
		return nil
	}
	return &n
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
