package realtime

import (
	"encoding/json"
	"sync"

	"github.com/gin-gonic/gin"

	"fb-video-manager/domain/model"
)

// PostStatusEvent represents an SSE payload for scheduled post transitions.
type PostStatusEvent struct {
	Type       string  `json:"type"`
	PostID     int64   `json:"post_id"`
	Status     string  `json:"status"`
	RetryCount int     `json:"retry_count"`
	VideoID    *string `json:"facebook_video_id,omitempty"`
	Error      *string `json:"error,omitempty"`
}

// Hub maintains subscribers listening for post status events. The stream is
// unauthenticated; every subscriber sees every transition.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan PostStatusEvent]struct{}
}

func NewPostHub() *Hub {
	return &Hub{subs: make(map[chan PostStatusEvent]struct{})}
}

// Serve registers an SSE stream on the connection.
func (h *Hub) Serve(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan PostStatusEvent, 8)
	h.addSubscriber(ch)
	defer h.removeSubscriber(ch)

	// Initial comment to keep connection open
	c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	notify := c.Writer.CloseNotify()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: post_status\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *Hub) addSubscriber(ch chan PostStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[ch] = struct{}{}
}

func (h *Hub) removeSubscriber(ch chan PostStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// BroadcastPostStatus pushes a post's current state to all subscribers.
func (h *Hub) BroadcastPostStatus(post *model.ScheduledPost) {
	if post == nil {
		return
	}
	evt := PostStatusEvent{
		Type:       "post_status",
		PostID:     post.ID,
		Status:     post.Status,
		RetryCount: post.RetryCount,
		VideoID:    post.RemoteVideoID,
		Error:      post.ErrorMessage,
	}
	h.mu.RLock()
	for ch := range h.subs {
		select { // non-blocking
		case ch <- evt:
		default:
		}
	}
	h.mu.RUnlock()
}
