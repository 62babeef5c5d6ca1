package configuration

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigName(t *testing.T) {
	old := os.Getenv("ENV")
	defer os.Setenv("ENV", old)

	os.Setenv("ENV", "")
	assert.Equal(t, "config", getConfig())

	os.Setenv("ENV", "prod")
	assert.Equal(t, "config-prod", getConfig())
}

func TestInitAppDefaults(t *testing.T) {
	var c Config
	initApp(&c)
	assert.Equal(t, 5000, c.App.Port)
}

func TestInitDownloaderDefaults(t *testing.T) {
	var c Config
	initDownloader(&c)
	assert.Equal(t, "downloads", c.Downloader.OutputDir)
	assert.Equal(t, "best", c.Downloader.Quality)
	assert.Equal(t, "mp4", c.Downloader.Format)
	assert.Equal(t, 3, c.Downloader.Retries)
}

func TestInitSchedulerDefaults(t *testing.T) {
	var c Config
	initScheduler(&c)
	assert.Equal(t, 60, c.Scheduler.CheckIntervalSeconds)
	assert.Equal(t, 15, c.Scheduler.ProcessingTimeoutMin)
}

func TestGetFacebookConfig(t *testing.T) {
	oldToken := os.Getenv("FACEBOOK_ACCESS_TOKEN")
	oldPage := os.Getenv("FACEBOOK_PAGE_ID")
	defer func() {
		os.Setenv("FACEBOOK_ACCESS_TOKEN", oldToken)
		os.Setenv("FACEBOOK_PAGE_ID", oldPage)
	}()

	os.Setenv("FACEBOOK_ACCESS_TOKEN", "")
	os.Setenv("FACEBOOK_PAGE_ID", "")
	C.Facebook.AccessToken = ""
	C.Facebook.PageID = ""
	_, err := GetFacebookConfig("")
	require.ErrorIs(t, err, ErrMissingCredentials)

	os.Setenv("FACEBOOK_ACCESS_TOKEN", "tok")
	os.Setenv("FACEBOOK_PAGE_ID", "page-1")
	cfg, err := GetFacebookConfig("")
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.AccessToken)
	assert.Equal(t, "page-1", cfg.PageID)
	assert.Equal(t, "v18.0", cfg.GraphVersion)

	// Per-post owner overrides the configured page
	cfg, err = GetFacebookConfig("page-override")
	require.NoError(t, err)
	assert.Equal(t, "page-override", cfg.PageID)
}
