package downloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "views and reactions prefix",
			input:    "1.6M views · 62K reactions | Sunday Service | La Barbería Espiritual",
			expected: "Sunday Service",
		},
		{
			name:     "views only prefix",
			input:    "12K views | Morning Prayer | Page Name",
			expected: "Morning Prayer",
		},
		{
			name:     "unicode pipe separator",
			input:    "850 views ｜ Testimony ｜ Account",
			expected: "Testimony",
		},
		{
			name:     "no metadata",
			input:    "Plain title without separators",
			expected: "Plain title without separators",
		},
		{
			name:     "emoji stripped and whitespace collapsed",
			input:    "Praise   Night 🔥🔥  2024",
			expected: "Praise Night 2024",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanTitle(tt.input))
		})
	}
}

func TestCleanTitle_CapsLength(t *testing.T) {
	long := ""
	for i := 0; i < 300; i++ {
		long += "a"
	}
	cleaned := CleanTitle(long)
	assert.Len(t, []rune(cleaned), maxTitleRunes)
}

func TestTitleFromMetadata(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "clip [abc123].mp4")
	sidecar := filepath.Join(dir, "clip [abc123].info.json")
	require.NoError(t, os.WriteFile(sidecar,
		[]byte(`{"title":"2K views | Real Title | Page","description":"the description"}`), 0o644))

	assert.Equal(t, "Real Title", TitleFromMetadata(videoPath))
	assert.Equal(t, "the description", DescriptionFromMetadata(videoPath))
}

func TestTitleFromMetadata_FallsBackToFilename(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "my video.mp4")

	assert.Equal(t, "my video", TitleFromMetadata(videoPath))
	assert.Empty(t, DescriptionFromMetadata(videoPath))
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://www.facebook.com/watch/?v=123"))
	assert.NoError(t, ValidateURL("https://m.facebook.com/story.php?id=1"))
	assert.NoError(t, ValidateURL("https://fb.watch/abc/"))
	assert.Error(t, ValidateURL("https://example.com/video"))
	assert.Error(t, ValidateURL("not a url"))
}
