package routepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"root", "/", "/"},
		{"empty", "", "/"},
		{"no leading slash", "about", "/about"},
		{"trailing slash", "/en/docs/", "/en/docs"},
		{"collapse slashes", "/blog//post", "/blog/post"},
		{"dot segment", "/blog/./post", "/blog/post"},
		{"dot dot", "/en/blog/../docs", "/en/docs"},
		{"dot dot to root", "/en/..", "/"},
		{"query", "/en/search?q=a/b", "/en/search"},
		{"fragment", "/en/docs#install", "/en/docs"},
		{"percent kept", "/en/caf%C3%A9", "/en/caf%C3%A9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Clean(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanRejects(t *testing.T) {
	tests := []struct {
		input string
		err   error
	}{
		{"/foo\\bar", ErrBackslashInPath},
		{"/a\x00b", ErrNullByteInPath},
		{"/a%00b", ErrNullByteInPath},
		{"/..", ErrPathEscapesRoot},
		{"/../secret", ErrPathEscapesRoot},
		{"/en/../../secret", ErrPathEscapesRoot},
	}

	for _, tt := range tests {
		_, err := Clean(tt.input)
		assert.ErrorIs(t, err, tt.err, tt.input)
	}
}
