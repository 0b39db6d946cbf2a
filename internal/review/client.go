// Package review talks to the remote diff-analysis service and keeps a short
// local history of its answers.
package review

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
)

var ErrEmptyDiff = errors.New("diff content cannot be empty")

type Request struct {
	Diff  string `json:"diff"`
	PRURL string `json:"pr_url,omitempty"`
}

// Result is the service's answer. Text is the message on success and
// "Error: <detail>" otherwise.
type Result struct {
	OK     bool
	Status int
	Text   string
}

type Client struct {
	Endpoint string
	HTTP     *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{Endpoint: endpoint, HTTP: &http.Client{Timeout: timeout}}
}

type responseBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// Analyze posts the diff. A non-2xx response is a Result, not an error;
// errors are reserved for failures before a usable response arrives.
func (c *Client) Analyze(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Diff) == "" {
		return Result{}, ErrEmptyDiff
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, err
	}
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	hr.Header.Set("Content-Type", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(hr)
	if err != nil {
		return Result{}, fmt.Errorf("post %s: %w", c.Endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	var rb responseBody
	if err := json.Unmarshal(raw, &rb); err != nil {
		return Result{}, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	res := Result{OK: ok, Status: resp.StatusCode, Text: rb.Message}
	if !ok {
		res.Text = "Error: " + rb.Detail
	}
	return res, nil
}
