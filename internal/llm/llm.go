package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type Client struct {
	client *openai.Client
	model  string
}

func NewClient(baseURL, apiKey, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

const systemPrompt = `You name clusters of GitHub repositories. Given the most distinctive keywords of a cluster and a few example repository descriptions, reply with a short topic label of 2 to 5 words in English.

Return ONLY the label. No quotes, no punctuation at the end, no explanation.`

const maxExampleLen = 300

// LabelTopic asks the model for a human-readable name for one topic.
func (c *Client) LabelTopic(ctx context.Context, keywords []string, docs []string) (string, error) {
	var parts []string
	parts = append(parts, fmt.Sprintf("Keywords: %s", strings.Join(keywords, ", ")))
	for i, d := range docs {
		if len(d) > maxExampleLen {
			d = d[:maxExampleLen]
		}
		parts = append(parts, fmt.Sprintf("Example %d: %s", i+1, d))
	}
	userMsg := strings.Join(parts, "\n")

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMsg},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("LLM call for topic %q: %w", strings.Join(keywords, "_"), err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned for topic %q", strings.Join(keywords, "_"))
	}

	label := cleanLabel(resp.Choices[0].Message.Content)
	if label == "" {
		return "", fmt.Errorf("empty label returned for topic %q", strings.Join(keywords, "_"))
	}
	return label, nil
}

// cleanLabel strips code fences, quotes and trailing punctuation that some
// models add around a one-line answer.
func cleanLabel(s string) string {
	s = stripCodeFences(s)
	if i := strings.IndexByte(s, '\n'); i != -1 {
		s = s[:i]
	}
	s = strings.Trim(s, " \t\"'`")
	s = strings.TrimRight(s, ".!")
	return strings.TrimSpace(s)
}

// stripCodeFences removes markdown code fences that some models wrap around output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove opening fence (```text or ```)
		if i := strings.Index(s, "\n"); i != -1 {
			s = s[i+1:]
		}
		// Remove closing fence
		if i := strings.LastIndex(s, "```"); i != -1 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
