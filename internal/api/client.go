// Package api talks to the upstream shop REST API over JSON.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"autoshop/internal/errors"
)

// Client issues JSON requests against the upstream base URL. Non-2xx
// responses come back as *errors.APIError. Requests are never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type Request struct {
	Method string
	Path   string
	Token  string
	Query  url.Values
	Body   interface{}
}

// Do sends req and decodes the response body into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out interface{}) error {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("upstream call",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.NewAPIError(resp.StatusCode, errorMessage(resp.StatusCode, raw))
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrap(raw), out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", req.Method, req.Path, err)
	}
	return nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func errorMessage(status int, raw []byte) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	return http.StatusText(status)
}

var envelopeKeys = map[string]bool{
	"data": true, "success": true, "message": true, "meta": true,
	"total": true, "page": true, "limit": true,
}

// unwrap strips a {"data": ...} envelope when the upstream uses one. An
// object with any key outside the envelope vocabulary is an entity.
func unwrap(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return raw
	}
	data, ok := envelope["data"]
	if !ok {
		return raw
	}
	for key := range envelope {
		if !envelopeKeys[key] {
			return raw
		}
	}
	return data
}
