package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
)

// SessionHeader carries the client session id on every request
const SessionHeader = "X-Session-ID"

// VersionHeader carries the version of the server's stored snapshot
const VersionHeader = "X-Snapshot-Version"

// StatusError is returned when the server answers with a non-success status
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: server returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client talks to the remote task service
type Client struct {
	serverURL  string
	sessionID  string
	httpClient *http.Client

	remoteVersion atomic.Int64
}

// NewClient creates a sync client for the given base URL
func NewClient(serverURL string, timeout time.Duration) *Client {
	return &Client{
		serverURL:  strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ServerURL returns the configured base URL
func (c *Client) ServerURL() string {
	return c.serverURL
}

// SetSessionID tags subsequent requests with a session id
func (c *Client) SetSessionID(id string) {
	c.sessionID = id
}

// Fetch downloads the full remote task collection
func (c *Client) Fetch(ctx context.Context) ([]model.Task, error) {
	url := c.serverURL + "/api/tasks"
	logger.Debug("HTTP Request", logger.F("method", "GET"), logger.F("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("HTTP request failed", logger.F("error", err), logger.F("url", url))
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	logger.Debug("HTTP Response", logger.F("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Op: "fetch tasks", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var tasks []model.Task
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return nil, fmt.Errorf("fetch tasks: decode response: %w", err)
	}

	if v, err := strconv.ParseInt(resp.Header.Get(VersionHeader), 10, 64); err == nil {
		c.remoteVersion.Store(v)
	}

	logger.Info("Fetched tasks from server", logger.F("count", len(tasks)))
	return tasks, nil
}

// Push uploads the full task collection. Only transport failures are
// reported; the response is not inspected beyond logging its status.
func (c *Client) Push(ctx context.Context, snap model.Snapshot) error {
	tasks := snap.Tasks
	if tasks == nil {
		tasks = []model.Task{}
	}
	body, err := json.Marshal(model.Snapshot{Version: snap.Version, Tasks: tasks})
	if err != nil {
		return err
	}

	url := c.serverURL + "/api/tasks/sync"
	logger.Debug("HTTP Request",
		logger.F("method", "POST"),
		logger.F("url", url),
		logger.F("bodySize", len(body)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("HTTP request failed", logger.F("error", err), logger.F("url", url))
		return fmt.Errorf("push tasks: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("Push answered with non-success status",
			logger.F("status", resp.StatusCode),
			logger.F("version", snap.Version))
	} else {
		logger.Info("Push completed", logger.F("tasks", len(tasks)), logger.F("version", snap.Version))
	}
	return nil
}

// RemoteVersion returns the snapshot version reported by the last fetch,
// or 0 if the server did not report one
func (c *Client) RemoteVersion() int64 {
	return c.remoteVersion.Load()
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.sessionID != "" {
		req.Header.Set(SessionHeader, c.sessionID)
	}
}
