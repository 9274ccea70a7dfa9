package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, content string, capture *openai.ChatCompletionRequest) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		raw, _ := json.Marshal(content)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":%s},"finish_reason":"stop"}]}`, raw)
	}))
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/v1", "test-key", "test-model")
}

func TestClient_LabelTopic(t *testing.T) {
	var req openai.ChatCompletionRequest
	c := chatServer(t, "\"Command Line Tools.\"", &req)

	label, err := c.LabelTopic(context.Background(), []string{"cli", "terminal", "shell"}, []string{"A fast shell", "Terminal UI kit"})
	require.NoError(t, err)
	assert.Equal(t, "Command Line Tools", label)

	assert.Equal(t, "test-model", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Contains(t, req.Messages[1].Content, "Keywords: cli, terminal, shell")
	assert.Contains(t, req.Messages[1].Content, "Example 2: Terminal UI kit")
}

func TestClient_LabelTopic_Empty(t *testing.T) {
	c := chatServer(t, "  ", nil)

	_, err := c.LabelTopic(context.Background(), []string{"x"}, nil)
	assert.Error(t, err)
}

func TestCleanLabel(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Web Frameworks", "Web Frameworks"},
		{"quoted", "'Machine Learning'", "Machine Learning"},
		{"fenced", "```text\nDatabases\n```", "Databases"},
		{"multi-line", "Rust Tooling\nBecause the keywords...", "Rust Tooling"},
		{"trailing period", "DevOps.", "DevOps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanLabel(tt.in))
		})
	}
}
