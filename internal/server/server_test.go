package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kevinmichaelchen/star-topics/internal/github"
	"github.com/kevinmichaelchen/star-topics/internal/logger"
	"github.com/kevinmichaelchen/star-topics/internal/models"
	"github.com/kevinmichaelchen/star-topics/internal/pipeline"
	"github.com/kevinmichaelchen/star-topics/internal/topic"
)

func init() {
	logger.SetOutput(io.Discard)
}

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) RepoInfo(ctx context.Context, username string, maxRepos *int) ([]models.RepoSummary, error) {
	args := m.Called(ctx, username, maxRepos)
	repos, _ := args.Get(0).([]models.RepoSummary)
	return repos, args.Error(1)
}

func (m *mockAnalyzer) AnalyzeUser(ctx context.Context, username string, maxRepos *int, includeReadme bool) (*models.AnalysisResult, error) {
	args := m.Called(ctx, username, maxRepos, includeReadme)
	res, _ := args.Get(0).(*models.AnalysisResult)
	return res, args.Error(1)
}

// singleTopic puts every document into topic 0.
type singleTopic struct{}

func (singleTopic) FitTransform(_ context.Context, docs []string) (*topic.Result, error) {
	return &topic.Result{
		Labels: make([]int, len(docs)),
		Info:   []models.TopicInfo{{Topic: 0, Count: len(docs), Name: "0_go", Representation: []string{"go"}, RepresentativeDocs: docs}},
	}, nil
}

// newUpstream starts a fake GitHub API and an API server backed by a real
// GitHub client pointed at it.
func newUpstream(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	gh, err := github.NewClient("test-token", github.WithBaseURL(upstream.URL))
	require.NoError(t, err)

	srv := NewServer(pipeline.NewService(gh, singleTopic{}), ":0", 5*time.Second)
	api := httptest.NewServer(srv.Handler())
	t.Cleanup(api.Close)
	return api
}

func getJSON(t *testing.T, u string, v any) int {
	t.Helper()
	resp, err := http.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func starredMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octo/starred", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"starred_at":"2024-01-01T00:00:00Z","repo":{"full_name":"octo/cat","name":"cat","description":"A repo","topics":["go","cli"]}},
			{"starred_at":"2024-01-02T00:00:00Z","repo":{"full_name":"octo/dog","name":"dog"}}
		]`)
	})
	mux.HandleFunc("/users/ghost/starred", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})
	return mux
}

func TestRepoInfo_EndToEnd(t *testing.T) {
	api := newUpstream(t, starredMux())

	resp, err := http.Get(api.URL + "/github/repos/octo/info")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[
		{"owner_username":"octo","repository_name":"cat","description":"A repo","topics":["go","cli"]},
		{"owner_username":"octo","repository_name":"dog","description":"","topics":[]}
	]`, string(body))
}

func TestRepoInfo_UpstreamNotFound(t *testing.T) {
	api := newUpstream(t, starredMux())

	var out errorResponse
	status := getJSON(t, api.URL+"/github/repos/ghost/info", &out)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, out.Detail, "404")
}

func TestAnalysis_EndToEnd(t *testing.T) {
	api := newUpstream(t, starredMux())

	var out models.AnalysisResult
	status := getJSON(t, api.URL+"/github/analyze/user/octo/analysis?max_repos=null", &out)
	require.Equal(t, http.StatusOK, status)

	require.Len(t, out.RepositoryInfo, 2)
	assert.Equal(t, "cat", out.RepositoryInfo[0].Name)
	assert.Equal(t, []int{0, 0}, out.TopicAnalysis.TopicDistribution)
	require.Len(t, out.TopicAnalysis.TopicInfo, 1)
	assert.Equal(t, []string{"A repo go cli", ""}, out.TopicAnalysis.TopicInfo[0].RepresentativeDocs)
}

func TestAnalysis_UpstreamFailure(t *testing.T) {
	api := newUpstream(t, starredMux())

	var out errorResponse
	status := getJSON(t, api.URL+"/github/analyze/user/ghost/analysis", &out)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, out.Detail, "404")
}

func TestAnalysis_Failure(t *testing.T) {
	a := new(mockAnalyzer)
	a.On("AnalyzeUser", mock.Anything, "octo", mock.Anything, true).
		Return(nil, fmt.Errorf("analyzing stars of octo: %w", topic.ErrEmptyInput))
	api := httptest.NewServer(NewServer(a, ":0", time.Second).Handler())
	defer api.Close()

	var out errorResponse
	status := getJSON(t, api.URL+"/github/analyze/user/octo/analysis?include_readme=true", &out)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "analyzing stars of octo: empty analysis input", out.Detail)
	a.AssertExpectations(t)
}

func TestRepoInfo_DefaultMaxRepos(t *testing.T) {
	a := new(mockAnalyzer)
	a.On("RepoInfo", mock.Anything, "octo", mock.MatchedBy(func(p *int) bool {
		return p != nil && *p == github.DefaultMaxRepos
	})).Return([]models.RepoSummary{}, nil)
	api := httptest.NewServer(NewServer(a, ":0", time.Second).Handler())
	defer api.Close()

	var out []models.RepoSummary
	status := getJSON(t, api.URL+"/github/repos/octo/info", &out)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, out)
	a.AssertExpectations(t)
}

func TestRepoInfo_Error(t *testing.T) {
	a := new(mockAnalyzer)
	a.On("RepoInfo", mock.Anything, "octo", mock.Anything).Return(nil, errors.New("boom"))
	api := httptest.NewServer(NewServer(a, ":0", time.Second).Handler())
	defer api.Close()

	var out errorResponse
	status := getJSON(t, api.URL+"/github/repos/octo/info", &out)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "boom", out.Detail)
}

func TestValidation(t *testing.T) {
	a := new(mockAnalyzer)
	api := httptest.NewServer(NewServer(a, ":0", time.Second).Handler())
	defer api.Close()

	paths := []string{
		"/github/repos/octo/info?max_repos=-1",
		"/github/repos/octo/info?max_repos=abc",
		"/github/analyze/user/octo/analysis?max_repos=1.5",
		"/github/analyze/user/octo/analysis?include_readme=maybe",
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			var out errorResponse
			status := getJSON(t, api.URL+p, &out)
			assert.Equal(t, http.StatusUnprocessableEntity, status)
			assert.NotEmpty(t, out.Detail)
		})
	}
	a.AssertNotCalled(t, "RepoInfo", mock.Anything, mock.Anything, mock.Anything)
	a.AssertNotCalled(t, "AnalyzeUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHealth(t *testing.T) {
	api := httptest.NewServer(NewServer(new(mockAnalyzer), ":0", time.Second).Handler())
	defer api.Close()

	var out map[string]string
	status := getJSON(t, api.URL+"/healthz", &out)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", out["status"])
}

func TestParseMaxRepos(t *testing.T) {
	tests := []struct {
		query   string
		want    *int
		wantErr bool
	}{
		{"", intPtr(5), false},
		{"max_repos=", nil, false},
		{"max_repos=null", nil, false},
		{"max_repos=None", nil, false},
		{"max_repos=0", intPtr(0), false},
		{"max_repos=12", intPtr(12), false},
		{"max_repos=-3", nil, true},
		{"max_repos=ten", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			got, err := parseMaxRepos(q)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func intPtr(n int) *int { return &n }
