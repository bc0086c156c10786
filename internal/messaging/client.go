package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxErrorBody bounds how much of a failed response is echoed into the error.
const maxErrorBody = 4 << 10

// Client posts payloads to the host messaging API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client for the host API rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Post delivers payload and returns the decoded JSON response, if any.
func (c *Client) Post(ctx context.Context, payload Payload) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/estimates/message", c.baseURL), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &DeliveryError{Status: resp.StatusCode, Body: string(text)}
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return nil, nil
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode message response: %w", err)
	}
	return out, nil
}

// DeliveryError is a non-2xx answer from the host API.
type DeliveryError struct {
	Status int
	Body   string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to post estimator message (%d): %s", e.Status, e.Body)
}
