package github

import "fmt"

// UpstreamError reports a non-2xx answer from the GitHub API.
type UpstreamError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: upstream returned %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: upstream returned %d", e.Op, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// MalformedRecordError reports a repository record missing a field the
// formatter depends on. Index is -1 when the value did not come from a list.
type MalformedRecordError struct {
	Index int
	Field string
	Value string
}

func (e *MalformedRecordError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed repository record: bad %s %q", e.Field, e.Value)
	}
	return fmt.Sprintf("malformed repository record at index %d: missing %s", e.Index, e.Field)
}
