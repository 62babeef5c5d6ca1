package transcoder

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"fb-video-manager/infrastructure/configuration"
	"fb-video-manager/infrastructure/logger"
)

// Filenames past this length trip HandBrake on some filesystems, so they get
// a hashed temporary name during processing.
const maxFilenameLen = 150

// Transcoder re-encodes downloads into upload-friendly 720p H.264.
type Transcoder struct {
	config configuration.Transcoder
}

func NewTranscoder(config configuration.Transcoder) *Transcoder {
	if config.HandbrakeCLI == "" {
		config.HandbrakeCLI = "HandBrakeCLI"
	}
	return &Transcoder{config: config}
}

func (t *Transcoder) Enabled() bool {
	return t.config.Enabled
}

// IsAvailable probes the HandBrake binary.
func (t *Transcoder) IsAvailable(ctx context.Context) bool {
	if err := exec.CommandContext(ctx, t.config.HandbrakeCLI, "--version").Run(); err != nil {
		logger.GetLogger().WithField("binary", t.config.HandbrakeCLI).Warn("HandBrake CLI not available")
		return false
	}
	return true
}

// Process re-encodes inputPath and returns the processed file path. Long
// filenames are routed through temp names and renamed back afterwards.
func (t *Transcoder) Process(ctx context.Context, inputPath string) (string, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return "", fmt.Errorf("input file not found: %w", err)
	}

	dir := filepath.Dir(inputPath)
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	finalOutput := filepath.Join(dir, stem+"_processed.mp4")

	if len(base) <= maxFilenameLen {
		if err := t.run(ctx, inputPath, finalOutput); err != nil {
			return "", err
		}
		return finalOutput, nil
	}

	hash := fmt.Sprintf("%x", md5.Sum([]byte(base)))[:8]
	tempInput := filepath.Join(dir, fmt.Sprintf("temp_transcode_input_%s.mp4", hash))
	tempOutput := filepath.Join(dir, fmt.Sprintf("temp_transcode_output_%s.mp4", hash))

	if err := copyFile(inputPath, tempInput); err != nil {
		return "", fmt.Errorf("staging temp input: %w", err)
	}
	defer os.Remove(tempInput)

	if err := t.run(ctx, tempInput, tempOutput); err != nil {
		os.Remove(tempOutput)
		return "", err
	}
	if err := os.Rename(tempOutput, finalOutput); err != nil {
		os.Remove(tempOutput)
		return "", fmt.Errorf("moving processed file: %w", err)
	}
	return finalOutput, nil
}

func (t *Transcoder) run(ctx context.Context, inputPath, outputPath string) error {
	// Settings tuned for Facebook upload size limits
	cmd := exec.CommandContext(ctx, t.config.HandbrakeCLI,
		"--input", inputPath,
		"--output", outputPath,
		"--width", "1280",
		"--height", "720",
		"--rate", "24",
		"--cfr",
		"--encoder", "x264",
		"--quality", "28",
		"--encoder-preset", "fast",
		"--vb", "1500",
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("handbrake failed: %s", strings.TrimSpace(string(output)))
	}
	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("handbrake produced no output file")
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
