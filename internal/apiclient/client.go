// Package apiclient talks to the remote dashboard backend: the
// authentication liveness check, the AI analysis endpoint, and the
// spreadsheet upload endpoint. The bearer token lives in the blob store
// under the accessToken key; a 401 from any call clears it and surfaces
// ErrUnauthorized so the caller can redirect to the login flow.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"paydash/internal/blob"
	"paydash/internal/core"
)

// ErrUnauthorized means the session token is missing or was rejected.
// It is not recoverable locally; any in-flight data operation is
// abandoned and the user is sent to the login flow.
var ErrUnauthorized = errors.New("unauthorized")

type Client struct {
	baseURL string
	httpc   *http.Client
	blobs   blob.Store
}

// New creates a client for the given base URL. The blob store supplies
// and receives the bearer token.
func New(baseURL string, blobs blob.Store) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   newHTTPClient(),
		blobs:   blobs,
	}
}

func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Me performs the authentication liveness check. Any non-2xx response is
// treated as "not authenticated".
func (c *Client) Me(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/user/me", "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("auth check: status %d: %w", resp.StatusCode, ErrUnauthorized)
	}
	return nil
}

// AnalyzeMonth posts the month's transaction subset to the analysis
// service and decodes the Insight. The month field carries the selected
// YYYY-MM key, which is also how the caller keys the cache write.
func (c *Client) AnalyzeMonth(ctx context.Context, month string, txs []core.Transaction) (core.Insight, error) {
	body, err := json.Marshal(struct {
		Transactions []core.Transaction `json:"transactions"`
		Month        string             `json:"month"`
	}{Transactions: txs, Month: month})
	if err != nil {
		return core.Insight{}, fmt.Errorf("marshal analysis request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/analysis", "application/json", bytes.NewReader(body))
	if err != nil {
		return core.Insight{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.Insight{}, fmt.Errorf("analysis request: status %d", resp.StatusCode)
	}

	var insight core.Insight
	if err := json.NewDecoder(resp.Body).Decode(&insight); err != nil {
		return core.Insight{}, fmt.Errorf("decode insight: %w", err)
	}
	return insight, nil
}

// Upload sends a spreadsheet file to the import endpoint as a multipart
// body. Only success or failure is reported.
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finish multipart body: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/transactions/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upload: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	token, err := c.blobs.Get(ctx, blob.KeyAccessToken)
	if err == nil && len(token) > 0 {
		req.Header.Set("Authorization", "Bearer "+string(token))
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if err := c.blobs.Delete(ctx, blob.KeyAccessToken); err != nil {
			slog.ErrorContext(ctx, "Failed to clear access token", "error", err)
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	return resp, nil
}
