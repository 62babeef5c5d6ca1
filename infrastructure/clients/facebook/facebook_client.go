package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"golang.org/x/oauth2"

	"fb-video-manager/domain/model"
	"fb-video-manager/domain/repository"
	"fb-video-manager/infrastructure/logger"
)

const defaultGraphURL = "https://graph.facebook.com"

// Client talks to the Facebook Graph API for resumable video uploads and
// scheduled post management.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	version     string
	pageID      string
	accessToken string
}

// Config represents Facebook Graph API configuration
type Config struct {
	AccessToken  string `json:"access_token"`
	PageID       string `json:"page_id"`
	GraphVersion string `json:"graph_version"`
	BaseURL      string `json:"base_url"`
}

// NewFacebookClient creates a new Graph API client. The access token rides
// on an oauth2 static source so transport-level retries keep the bearer.
func NewFacebookClient(ctx context.Context, config *Config) (repository.IPublisher, error) {
	if config.AccessToken == "" || config.PageID == "" {
		return nil, fmt.Errorf("facebook access token and page ID are required")
	}
	version := config.GraphVersion
	if version == "" {
		version = "v18.0"
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultGraphURL
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.AccessToken, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(ctx, source)
	httpClient.Timeout = 5 * time.Minute

	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		version:     version,
		pageID:      config.PageID,
		accessToken: config.AccessToken,
	}, nil
}

func (c *Client) videosURL() string {
	return fmt.Sprintf("%s/%s/%s/videos", c.baseURL, c.version, url.PathEscape(c.pageID))
}

// Publish runs the three-phase resumable upload (start, transfer, finish).
// A non-zero scheduledAt publishes as a remotely scheduled post instead of
// going live immediately.
func (c *Client) Publish(ctx context.Context, filePath, title, description string, scheduledAt int64) (*repository.PublishResult, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("stat video file: %w", err)
	}

	session, err := c.startUpload(ctx, info.Size())
	if err != nil {
		return nil, err
	}
	logger.GetLogger().
		WithField("session_id", session.UploadSessionID).
		WithField("file_size", info.Size()).
		Info("Upload session started")

	if err := c.transferFile(ctx, session.UploadSessionID, filePath); err != nil {
		return nil, err
	}

	videoID, err := c.finishUpload(ctx, session, title, description, scheduledAt)
	if err != nil {
		return nil, err
	}

	return &repository.PublishResult{
		VideoID: videoID,
		URL:     fmt.Sprintf("https://www.facebook.com/%s/videos/%s", c.pageID, videoID),
	}, nil
}

type uploadSession struct {
	UploadSessionID string `json:"upload_session_id"`
	VideoID         string `json:"video_id"`
	StartOffset     string `json:"start_offset"`
	EndOffset       string `json:"end_offset"`
}

func (c *Client) startUpload(ctx context.Context, fileSize int64) (*uploadSession, error) {
	form := url.Values{}
	form.Set("upload_phase", "start")
	form.Set("file_size", strconv.FormatInt(fileSize, 10))
	form.Set("access_token", c.accessToken)

	var session uploadSession
	if err := c.postForm(ctx, c.videosURL(), form, &session); err != nil {
		return nil, fmt.Errorf("starting upload session: %w", err)
	}
	if session.UploadSessionID == "" {
		return nil, fmt.Errorf("upload session response missing session ID")
	}
	return &session, nil
}

func (c *Client) transferFile(ctx context.Context, sessionID, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("opening video file: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range map[string]string{
		"upload_phase":      "transfer",
		"upload_session_id": sessionID,
		"start_offset":      "0",
		"access_token":      c.accessToken,
	} {
		if err := writer.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := writer.CreateFormFile("video_file_chunk", filepath.Base(filePath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("buffering video file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.videosURL(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result uploadSession
	if err := c.do(req, &result); err != nil {
		return fmt.Errorf("transferring video file: %w", err)
	}
	endOffset, _ := strconv.ParseInt(result.EndOffset, 10, 64)
	if endOffset <= 0 {
		return fmt.Errorf("transfer phase moved no bytes")
	}
	return nil
}

func (c *Client) finishUpload(ctx context.Context, session *uploadSession, title, description string, scheduledAt int64) (string, error) {
	form := url.Values{}
	form.Set("upload_phase", "finish")
	form.Set("upload_session_id", session.UploadSessionID)
	form.Set("access_token", c.accessToken)
	if title != "" {
		form.Set("title", title)
	}
	if description != "" {
		form.Set("description", description)
	}
	if scheduledAt > 0 {
		form.Set("published", "false")
		form.Set("scheduled_publish_time", strconv.FormatInt(scheduledAt, 10))
	}

	var result struct {
		Success bool   `json:"success"`
		VideoID string `json:"video_id"`
	}
	if err := c.postForm(ctx, c.videosURL(), form, &result); err != nil {
		return "", fmt.Errorf("finishing upload session: %w", err)
	}
	if !result.Success {
		return "", fmt.Errorf("finish phase reported failure")
	}
	videoID := result.VideoID
	if videoID == "" {
		videoID = session.VideoID
	}
	return videoID, nil
}

type scheduledPostsQuery struct {
	Fields      string `url:"fields"`
	AccessToken string `url:"access_token"`
	Limit       int    `url:"limit,omitempty"`
}

// ListScheduled fetches posts queued on the platform side, used to build the
// merged upcoming view.
func (c *Client) ListScheduled(ctx context.Context) ([]*model.RemoteScheduledPost, error) {
	params, err := query.Values(scheduledPostsQuery{
		Fields:      "id,message,scheduled_publish_time,full_picture",
		AccessToken: c.accessToken,
		Limit:       50,
	})
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/%s/%s/scheduled_posts?%s",
		c.baseURL, c.version, url.PathEscape(c.pageID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []struct {
			ID                   string `json:"id"`
			Message              string `json:"message"`
			ScheduledPublishTime int64  `json:"scheduled_publish_time"`
			FullPicture          string `json:"full_picture"`
		} `json:"data"`
	}
	if err := c.do(req, &result); err != nil {
		return nil, fmt.Errorf("listing scheduled posts: %w", err)
	}

	posts := make([]*model.RemoteScheduledPost, 0, len(result.Data))
	for _, item := range result.Data {
		post := &model.RemoteScheduledPost{
			ID:                   item.ID,
			Message:              item.Message,
			ScheduledPublishTime: item.ScheduledPublishTime,
		}
		if item.FullPicture != "" {
			thumb := item.FullPicture
			post.Thumbnail = &thumb
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// CancelScheduled deletes a remotely scheduled post.
func (c *Client) CancelScheduled(ctx context.Context, remoteID string) error {
	endpoint := fmt.Sprintf("%s/%s/%s?access_token=%s",
		c.baseURL, c.version, url.PathEscape(remoteID), url.QueryEscape(c.accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	var result struct {
		Success bool `json:"success"`
	}
	if err := c.do(req, &result); err != nil {
		return fmt.Errorf("cancelling scheduled post %s: %w", remoteID, err)
	}
	if !result.Success {
		return fmt.Errorf("cancel of scheduled post %s reported failure", remoteID)
	}
	return nil
}

// TestConnection verifies the token by requesting the token owner's profile.
func (c *Client) TestConnection(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/%s/me?fields=id,name&access_token=%s",
		c.baseURL, c.version, url.QueryEscape(c.accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	var result struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.do(req, &result); err != nil {
		return fmt.Errorf("graph API connection test: %w", err)
	}
	logger.GetLogger().WithField("id", result.ID).WithField("name", result.Name).Info("Graph API connection OK")
	return nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var ge graphError
		if json.Unmarshal(body, &ge) == nil && ge.Error.Message != "" {
			return fmt.Errorf("graph API error %d (code %d): %s", resp.StatusCode, ge.Error.Code, ge.Error.Message)
		}
		return fmt.Errorf("graph API error %d: %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}
