package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeStripsScripts(t *testing.T) {
	t.Parallel()

	s := New()
	dirty := `<p>hello</p><script>alert("x")</script><a href="https://example.com" onclick="steal()">link</a>`
	clean := s.Sanitize(dirty)

	require.Contains(t, clean, "<p>hello</p>")
	require.Contains(t, clean, "link")
	require.NotContains(t, clean, "<script")
	require.NotContains(t, clean, "alert")
	require.NotContains(t, clean, "onclick")
}

func TestSanitizeIsDeterministic(t *testing.T) {
	t.Parallel()

	s := New()
	input := `<div><iframe src="evil"></iframe><b>bold</b></div>`
	first := s.Sanitize(input)
	second := s.Sanitize(input)
	require.Equal(t, first, second)
	require.NotContains(t, first, "iframe")
}
