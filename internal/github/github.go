package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	gh "github.com/google/go-github/v53/github"
	"github.com/kevinmichaelchen/star-topics/internal/config"
	"github.com/kevinmichaelchen/star-topics/internal/markdown"
	"golang.org/x/oauth2"
)

// Client is a thin wrapper around the GitHub REST API.
type Client struct {
	token  string
	client *gh.Client
}

type Option func(*clientOptions)

type clientOptions struct {
	baseURL string
	timeout time.Duration
}

// WithBaseURL points the client at a different REST root, such as a GitHub
// Enterprise host or a test server.
func WithBaseURL(u string) Option {
	return func(o *clientOptions) {
		o.baseURL = u
	}
}

// WithTimeout bounds every outbound request.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// NewClient builds a client authenticating with token. An empty token is
// accepted here; each read operation then fails with
// config.ErrMissingCredential.
func NewClient(token string, opts ...Option) (*Client, error) {
	o := clientOptions{timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := &http.Client{}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	httpClient.Timeout = o.timeout

	client := gh.NewClient(httpClient)
	if o.baseURL != "" {
		base := o.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parsing GitHub API URL: %w", err)
		}
		client.BaseURL = u
	}

	return &Client{token: token, client: client}, nil
}

// FetchStarred returns the first page of repositories starred by username,
// exactly as the API reports them.
func (c *Client) FetchStarred(ctx context.Context, username string) ([]*gh.Repository, error) {
	if c.token == "" {
		return nil, config.ErrMissingCredential
	}
	if username == "" {
		return nil, errors.New("username is required")
	}

	const op = "fetching starred repositories"
	starred, resp, err := c.client.Activity.ListStarred(ctx, url.PathEscape(username), nil)
	if err != nil {
		return nil, wrapError(op, resp, err)
	}

	repos := make([]*gh.Repository, 0, len(starred))
	for _, s := range starred {
		if s == nil {
			repos = append(repos, nil)
			continue
		}
		repos = append(repos, s.Repository)
	}
	return repos, nil
}

// FetchReadme downloads the README of fullName ("owner/repo") and returns it
// as cleansed plain text.
func (c *Client) FetchReadme(ctx context.Context, fullName string) (string, error) {
	if c.token == "" {
		return "", config.ErrMissingCredential
	}
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || repo == "" {
		return "", &MalformedRecordError{Index: -1, Field: "full_name", Value: fullName}
	}

	op := "fetching README for " + fullName
	content, resp, err := c.client.Repositories.GetReadme(ctx, owner, repo, nil)
	if err != nil {
		return "", wrapError(op, resp, err)
	}

	text, err := content.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding README for %s: %w", fullName, err)
	}
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("decoding README for %s: content is not valid UTF-8", fullName)
	}
	return markdown.Cleanse(text), nil
}

// wrapError turns a go-github failure into an *UpstreamError when the API
// answered with a non-2xx status.
func wrapError(op string, resp *gh.Response, err error) error {
	if resp != nil && resp.Response != nil {
		status := resp.StatusCode
		if status < 200 || status > 299 {
			msg := http.StatusText(status)
			var errResp *gh.ErrorResponse
			if errors.As(err, &errResp) && errResp.Message != "" {
				msg = errResp.Message
			}
			return &UpstreamError{Op: op, StatusCode: status, Message: msg, Err: err}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
