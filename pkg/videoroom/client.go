package videoroom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tutorlane/tutorhub-api/pkg/config"
)

// Recreator invalidates and recreates the external video room for a lesson.
// Reassignment treats this as a best-effort side effect.
type Recreator interface {
	RecreateRoom(ctx context.Context, lessonID, tutorID string) error
}

// Client talks to the hosted video-room provider.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a video-room client from configuration.
func NewClient(cfg config.VideoRoomConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type recreatePayload struct {
	LessonID string `json:"lesson_id"`
	TutorID  string `json:"tutor_id"`
}

// RecreateRoom asks the provider to tear down and rebuild the room bound to
// the lesson so the new tutor becomes the host.
func (c *Client) RecreateRoom(ctx context.Context, lessonID, tutorID string) error {
	if c.baseURL == "" {
		return fmt.Errorf("video room provider not configured")
	}

	body, err := json.Marshal(recreatePayload{LessonID: lessonID, TutorID: tutorID})
	if err != nil {
		return fmt.Errorf("marshal recreate payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rooms/recreate", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build recreate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("recreate room for lesson %s: %w", lessonID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("recreate room for lesson %s: provider returned %d", lessonID, resp.StatusCode)
	}
	return nil
}
