package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/arzormc/warden/internal/model"
)

// HTTPClient implements WardenClient using the warden HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Sessions ---

func (c *HTTPClient) StartSession(ctx context.Context, req *StartSessionRequest) (*StartSessionResponse, error) {
	var resp StartSessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/sessions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, moderator string) (*model.SessionSnapshot, error) {
	var snap model.SessionSnapshot
	if err := c.doJSON(ctx, http.MethodGet, c.sessionPath(moderator, ""), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context) ([]model.SessionSnapshot, error) {
	var resp struct {
		Sessions []model.SessionSnapshot `json:"sessions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *HTTPClient) CancelSession(ctx context.Context, moderator string) (*model.SessionSnapshot, error) {
	var snap model.SessionSnapshot
	if err := c.doJSON(ctx, http.MethodDelete, c.sessionPath(moderator, ""), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *HTTPClient) SetCategory(ctx context.Context, moderator, category string) (*model.SessionSnapshot, error) {
	return c.putSelection(ctx, moderator, "category", map[string]string{"category": category})
}

func (c *HTTPClient) SetLevel(ctx context.Context, moderator string, level int) (*model.SessionSnapshot, error) {
	return c.putSelection(ctx, moderator, "level", map[string]int{"level": level})
}

func (c *HTTPClient) SetSilent(ctx context.Context, moderator string, silent bool) (*model.SessionSnapshot, error) {
	return c.putSelection(ctx, moderator, "silent", map[string]bool{"silent": silent})
}

func (c *HTTPClient) putSelection(ctx context.Context, moderator, field string, body any) (*model.SessionSnapshot, error) {
	var snap model.SessionSnapshot
	if err := c.doJSON(ctx, http.MethodPut, c.sessionPath(moderator, field), body, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *HTTPClient) BeginReason(ctx context.Context, moderator string) (*CaptureResponse, error) {
	var resp CaptureResponse
	if err := c.doJSON(ctx, http.MethodPost, c.sessionPath(moderator, "reason"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Dispatch(ctx context.Context, moderator string) (*DispatchResponse, error) {
	var resp DispatchResponse
	if err := c.doJSON(ctx, http.MethodPost, c.sessionPath(moderator, "dispatch"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) sessionPath(moderator, suffix string) string {
	p := "/v1/sessions/" + url.PathEscape(moderator)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

// --- Chat intake ---

func (c *HTTPClient) Chat(ctx context.Context, moderator, text string) (bool, error) {
	var resp struct {
		Consumed bool `json:"consumed"`
	}
	body := map[string]string{"moderator": moderator, "text": text}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/chat", body, &resp); err != nil {
		return false, err
	}
	return resp.Consumed, nil
}

// --- History ---

func (c *HTTPClient) BrowseHistory(ctx context.Context, req *BrowseHistoryRequest) (*BrowseHistoryResponse, error) {
	q := url.Values{}
	if req.Kind != "" {
		q.Set("kind", req.Kind)
	}
	if req.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", req.Offset))
	}

	path := "/v1/history/" + url.PathEscape(req.Subject)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp BrowseHistoryResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) StageAction(ctx context.Context, req *StageActionRequest) (*StageActionResponse, error) {
	var resp StageActionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/history/actions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ConfirmAction(ctx context.Context, moderator string) (*HistoryEntry, error) {
	var entry HistoryEntry
	path := "/v1/history/actions/" + url.PathEscape(moderator) + "/confirm"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *HTTPClient) CancelAction(ctx context.Context, moderator string) (bool, error) {
	var resp struct {
		Cancelled bool `json:"cancelled"`
	}
	path := "/v1/history/actions/" + url.PathEscape(moderator) + "/cancel"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return false, err
	}
	return resp.Cancelled, nil
}

// --- Presence ---

func (c *HTTPClient) Heartbeat(ctx context.Context, moderator, name, event string) error {
	body := map[string]string{"moderator": moderator}
	if name != "" {
		body["name"] = name
	}
	if event != "" {
		body["event"] = event
	}
	return c.doJSON(ctx, http.MethodPost, "/v1/presence/heartbeat", body, nil)
}

func (c *HTTPClient) Roster(ctx context.Context) ([]RosterEntry, error) {
	var resp struct {
		Moderators []RosterEntry `json:"moderators"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/presence/roster", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Moderators, nil
}

// --- Admin ---

func (c *HTTPClient) Reload(ctx context.Context) (*ReloadResponse, error) {
	var resp ReloadResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/reload", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content — success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
