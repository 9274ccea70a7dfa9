package markdown

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var residue = regexp.MustCompile(`\[!\[.*?\]`)

func TestCleanse_PlainTextFromMarkdown(t *testing.T) {
	got := Cleanse("# Title\n\nSome **bold** text.")
	assert.Equal(t, "Title\nSome bold text.\n", got)
}

func TestCleanse_ImageLinks(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		keep    string
		removed string
	}{
		{
			name:    "bare image",
			input:   "![alt](img.png)",
			removed: "img.png",
		},
		{
			name:    "badge wrapped in link",
			input:   "[![build](https://ci.example.com/badge.svg)](https://ci.example.com)\n\nHello",
			keep:    "Hello",
			removed: "badge.svg",
		},
		{
			name:    "nested image link inside raw html",
			input:   "<div>\n[![a](b.png)](https://c.example.com) tail\n</div>",
			keep:    " tail",
			removed: "b.png",
		},
		{
			name:    "unclosed image link inside raw html",
			input:   "<div>\n[![a](b.png)] tail\n</div>",
			keep:    " tail",
			removed: "b.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cleanse(tt.input)
			assert.False(t, residue.MatchString(got), "residual image link in %q", got)
			assert.NotContains(t, got, tt.removed)
			if tt.keep != "" {
				assert.Contains(t, got, tt.keep)
			}
		})
	}
}

func TestCleanse_IdempotentOnPlainText(t *testing.T) {
	inputs := []string{
		"hello world",
		"a\n\nb",
		"Go is fun & fast",
		"multilingual テキスト",
	}
	for _, in := range inputs {
		once := Cleanse(in)
		assert.Equal(t, once, Cleanse(once), "input %q", in)
	}
}

func TestExtractText_SkipsScripts(t *testing.T) {
	got := ExtractText("<p>hi</p><script>var x = 1</script><style>p{}</style>")
	assert.Equal(t, "hi", got)
}
