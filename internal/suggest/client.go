// Package suggest asks the remote service for AI-generated subtask titles.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/existflow/taskdeck/internal/logger"
)

// ErrEmptyPrompt is returned for a blank prompt; no request is made
var ErrEmptyPrompt = errors.New("please enter a prompt")

// Client calls POST /api/suggestions
type Client struct {
	serverURL  string
	httpClient *http.Client
}

type request struct {
	Prompt string `json:"prompt"`
}

type response struct {
	Suggestions []string `json:"suggestions"`
}

// NewClient creates a suggestion client for the given base URL
func NewClient(serverURL string, timeout time.Duration) *Client {
	return &Client{
		serverURL:  strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Suggest returns suggested subtask titles for the prompt, in server order
func (c *Client) Suggest(ctx context.Context, prompt string) ([]string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	body, err := json.Marshal(request{Prompt: prompt})
	if err != nil {
		return nil, err
	}

	url := c.serverURL + "/api/suggestions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Suggestion request failed", logger.F("error", err), logger.F("url", url))
		return nil, fmt.Errorf("failed to generate suggestions: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Error("Suggestion request rejected",
			logger.F("status", resp.StatusCode),
			logger.F("response", string(respBody)))
		return nil, fmt.Errorf("failed to generate suggestions: server returned %d", resp.StatusCode)
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to generate suggestions: decode response: %w", err)
	}

	logger.Info("Received suggestions", logger.F("count", len(result.Suggestions)))
	return result.Suggestions, nil
}
