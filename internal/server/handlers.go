package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kevinmichaelchen/star-topics/internal/github"
	"github.com/kevinmichaelchen/star-topics/internal/logger"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) getRepoInfo(w http.ResponseWriter, r *http.Request) {
	maxRepos, err := parseMaxRepos(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	username := r.PathValue("username")
	repos, err := s.analyzer.RepoInfo(ctx, username, maxRepos)
	if err != nil {
		logger.Errorf("[Server] repo info for %s: %v", username, err)
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, repos)
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	maxRepos, err := parseMaxRepos(q)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	includeReadme, err := parseBool(q, "include_readme")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	username := r.PathValue("username")
	result, err := s.analyzer.AnalyzeUser(ctx, username, maxRepos, includeReadme)
	if err != nil {
		logger.Errorf("[Server] analysis for %s: %v", username, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseMaxRepos reads max_repos: absent means the default, null/none/empty
// means no limit.
func parseMaxRepos(q url.Values) (*int, error) {
	if !q.Has("max_repos") {
		n := github.DefaultMaxRepos
		return &n, nil
	}
	v := strings.TrimSpace(q.Get("max_repos"))
	switch strings.ToLower(v) {
	case "", "null", "none":
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("max_repos: value must be a non-negative integer or null, got %q", v)
	}
	return &n, nil
}

func parseBool(q url.Values, key string) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(q.Get(key)))
	switch v {
	case "":
		return false, nil
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: value could not be parsed to a boolean, got %q", key, v)
	}
	return b, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("[Server] encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
