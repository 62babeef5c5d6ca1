package downloader

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"fb-video-manager/infrastructure/configuration"
	"fb-video-manager/infrastructure/logger"
)

// Downloader wraps the yt-dlp CLI for Facebook video extraction.
type Downloader struct {
	binary string
	config configuration.Downloader
}

func NewDownloader(config configuration.Downloader) *Downloader {
	return &Downloader{binary: "yt-dlp", config: config}
}

// CheckInstalled verifies the yt-dlp binary is on PATH and runnable.
func (d *Downloader) CheckInstalled(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, d.binary, "--version").Output()
	if err != nil {
		return fmt.Errorf("yt-dlp not available: %w", err)
	}
	logger.GetLogger().WithField("version", strings.TrimSpace(string(out))).Info("yt-dlp available")
	return nil
}

// ValidateURL accepts only Facebook video URLs.
func ValidateURL(rawURL string) error {
	for _, prefix := range []string{
		"https://www.facebook.com/",
		"https://facebook.com/",
		"https://m.facebook.com/",
		"https://fb.watch/",
	} {
		if strings.HasPrefix(rawURL, prefix) {
			return nil
		}
	}
	return fmt.Errorf("not a Facebook video URL: %s", rawURL)
}

// DownloadResult describes a completed extraction.
type DownloadResult struct {
	FilePath    string
	Title       string
	Description string
	FileSize    int64
}

// Download fetches one video. cookies, when non-empty, is Netscape cookie
// file content written to a temp file for authenticated pages.
func (d *Downloader) Download(ctx context.Context, videoURL, cookies string) (*DownloadResult, error) {
	if err := ValidateURL(videoURL); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(d.config.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	args := []string{
		"--output", filepath.Join(d.config.OutputDir, d.config.FilenameTemplate),
		"--format", fmt.Sprintf("%s[ext=%s]/%s", d.config.Quality, d.config.Format, d.config.Quality),
		"--no-playlist",
	}
	if d.config.SaveMetadata {
		args = append(args, "--write-info-json")
	}
	if d.config.MaxFileSizeMB > 0 {
		args = append(args, "--max-filesize", fmt.Sprintf("%dM", d.config.MaxFileSizeMB))
	}
	if d.config.Retries > 0 {
		args = append(args, "--retries", fmt.Sprintf("%d", d.config.Retries))
	}
	if cookies != "" {
		cookieFile, err := writeTempCookies(cookies)
		if err != nil {
			return nil, err
		}
		defer os.Remove(cookieFile)
		args = append(args, "--cookies", cookieFile)
	}
	args = append(args, videoURL)

	started := time.Now()
	cmd := exec.CommandContext(ctx, d.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		// yt-dlp sometimes exits non-zero after a usable download; only fail
		// when no new video file landed in the output dir.
		if newest := d.newestVideoSince(started); newest == "" {
			return nil, fmt.Errorf("yt-dlp failed: %s", firstErrorLine(output, err))
		}
		logger.GetLogger().WithField("url", videoURL).Warn("yt-dlp exited non-zero but produced a file")
	}

	filePath := d.newestVideoSince(started)
	if filePath == "" {
		return nil, fmt.Errorf("download produced no video file")
	}

	result := &DownloadResult{FilePath: filePath}
	if info, err := os.Stat(filePath); err == nil {
		result.FileSize = info.Size()
	}
	result.Title = TitleFromMetadata(filePath)
	result.Description = DescriptionFromMetadata(filePath)
	return result, nil
}

// PageVideo is one entry discovered on a Facebook page.
type PageVideo struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// ListPageVideos enumerates video URLs on a page via a flat-playlist probe.
func (d *Downloader) ListPageVideos(ctx context.Context, pageURL, cookies string, maxVideos int) ([]PageVideo, error) {
	if err := ValidateURL(pageURL); err != nil {
		return nil, err
	}
	args := []string{"--flat-playlist", "--print", "url", "--print", "title", "--no-warnings"}
	if cookies != "" {
		cookieFile, err := writeTempCookies(cookies)
		if err != nil {
			return nil, err
		}
		defer os.Remove(cookieFile)
		args = append(args, "--cookies", cookieFile)
	}
	if maxVideos > 0 {
		args = append(args, "--playlist-end", fmt.Sprintf("%d", maxVideos))
	}
	args = append(args, pageURL)

	output, err := exec.CommandContext(ctx, d.binary, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("listing page videos: %s", firstErrorLine(output, err))
	}

	var lines []string
	for _, line := range strings.Split(string(output), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	// yt-dlp prints url and title on alternating lines
	var videos []PageVideo
	for i := 0; i+1 < len(lines); i += 2 {
		url, title := lines[i], lines[i+1]
		if strings.HasPrefix(url, "https://") && title != "" {
			videos = append(videos, PageVideo{URL: url, Title: CleanTitle(title)})
		}
	}
	return videos, nil
}

// newestVideoSince returns the most recent video file created at or after t.
func (d *Downloader) newestVideoSince(t time.Time) string {
	var newest string
	var newestMod time.Time
	for _, ext := range []string{"*.mp4", "*.mkv", "*.webm"} {
		matches, _ := filepath.Glob(filepath.Join(d.config.OutputDir, ext))
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.ModTime().Before(t.Truncate(time.Second)) {
				continue
			}
			if info.ModTime().After(newestMod) {
				newest = m
				newestMod = info.ModTime()
			}
		}
	}
	return newest
}

func writeTempCookies(cookies string) (string, error) {
	f, err := os.CreateTemp("", "fbvm-cookies-*.txt")
	if err != nil {
		return "", fmt.Errorf("creating cookies file: %w", err)
	}
	if _, err := f.WriteString(cookies); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing cookies file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func firstErrorLine(output []byte, err error) string {
	for _, line := range strings.Split(string(output), "\n") {
		if strings.HasPrefix(line, "ERROR") {
			return line
		}
	}
	if len(output) > 0 {
		return strings.TrimSpace(string(output))
	}
	return err.Error()
}
