// Package topic groups short documents into topics.
//
// Model is the narrow seam between the pipeline and whatever does the
// clustering; Clusterer is the implementation used in production.
package topic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kevinmichaelchen/star-topics/internal/models"
)

// OutlierTopic labels documents that belong to no topic.
const OutlierTopic = -1

// ErrEmptyInput is returned before the model runs when there is nothing to
// analyze.
var ErrEmptyInput = errors.New("empty analysis input")

// Result holds one label per input document (parallel to the input) and a
// description of each topic.
type Result struct {
	Labels []int
	Info   []models.TopicInfo
}

type Model interface {
	FitTransform(ctx context.Context, docs []string) (*Result, error)
}

// ModelError wraps any failure raised by a Model.
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("topic model failed: %v", e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// Analyze validates docs, runs m and checks that every document got a label.
func Analyze(ctx context.Context, m Model, docs []string) (*Result, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyInput
	}
	if allBlank(docs) {
		return nil, fmt.Errorf("no descriptions available: %w", ErrEmptyInput)
	}

	res, err := m.FitTransform(ctx, docs)
	if err != nil {
		return nil, &ModelError{Err: err}
	}
	if res == nil || len(res.Labels) != len(docs) {
		got := 0
		if res != nil {
			got = len(res.Labels)
		}
		return nil, &ModelError{Err: fmt.Errorf("got %d labels for %d documents", got, len(docs))}
	}
	return res, nil
}

func allBlank(docs []string) bool {
	for _, d := range docs {
		if strings.TrimSpace(d) != "" {
			return false
		}
	}
	return true
}
