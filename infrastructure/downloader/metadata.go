package downloader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"fb-video-manager/infrastructure/logger"
)

// maxTitleRunes matches the cap used in the output filename template.
const maxTitleRunes = 200

var (
	viewsReactionsPrefix = regexp.MustCompile(`(?i)^[\d.,]+[KMB]?\s*views\s*[·•]\s*[\d.,]+[KMB]?\s*reactions\s*[|｜]\s*`)
	viewsPrefix          = regexp.MustCompile(`(?i)^[\d.,]+[KMB]?\s*views\s*[|｜]\s*`)
	whitespaceRun        = regexp.MustCompile(`\s+`)
)

// CleanTitle strips the "1.6M views · 62K reactions |" metadata prefix and
// the trailing "| Account Name" suffix Facebook appends to scraped titles,
// drops emoji and control characters, and caps the length.
func CleanTitle(title string) string {
	if title == "" {
		return title
	}
	cleaned := viewsReactionsPrefix.ReplaceAllString(title, "")
	cleaned = viewsPrefix.ReplaceAllString(cleaned, "")

	// Account name rides after the last pipe separator
	if idx := strings.LastIndexAny(cleaned, "|｜"); idx >= 0 {
		cleaned = cleaned[:idx]
	}

	var b strings.Builder
	for _, r := range cleaned {
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			continue
		}
		if r > unicode.MaxLatin1 && !unicode.IsLetter(r) && !unicode.IsNumber(r) &&
			!unicode.IsPunct(r) && !unicode.IsSpace(r) {
			// emoji and pictographs
			continue
		}
		b.WriteRune(r)
	}
	cleaned = whitespaceRun.ReplaceAllString(b.String(), " ")
	cleaned = strings.TrimSpace(cleaned)

	runes := []rune(cleaned)
	if len(runes) > maxTitleRunes {
		cleaned = strings.TrimSpace(string(runes[:maxTitleRunes]))
	}
	return cleaned
}

type videoMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TitleFromMetadata reads the yt-dlp .info.json sidecar for the cleaned
// original title, falling back to the file name.
func TitleFromMetadata(videoPath string) string {
	if meta := readMetadata(videoPath); meta != nil && meta.Title != "" {
		return CleanTitle(meta.Title)
	}
	base := filepath.Base(videoPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DescriptionFromMetadata reads the original description, empty when no
// sidecar exists.
func DescriptionFromMetadata(videoPath string) string {
	if meta := readMetadata(videoPath); meta != nil {
		return meta.Description
	}
	return ""
}

func readMetadata(videoPath string) *videoMetadata {
	jsonPath := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".info.json"
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil
	}
	var meta videoMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		logger.GetLogger().WithField("path", jsonPath).WithField("error", err).Warn("Unreadable metadata sidecar")
		return nil
	}
	return &meta
}
