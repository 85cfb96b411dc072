package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/docqa/internal/models"
)

// Client calls a running docqa server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL, e.g. http://localhost:8080.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Ask posts a question.
func (c *Client) Ask(ctx context.Context, req models.AskRequest) (*models.AskResponse, error) {
	var out models.AskResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/ask", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Retrieve posts a retrieval query.
func (c *Client) Retrieve(ctx context.Context, req models.RetrieveRequest) (*models.RetrieveResponse, error) {
	var out models.RetrieveResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/retrieve", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status fetches index statistics.
func (c *Client) Status(ctx context.Context) (*models.IndexStatus, error) {
	var out models.IndexStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reload asks the server to rebuild the index now.
func (c *Client) Reload(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/reload", nil, nil)
}

// Functions lists the helper functions the server can run.
func (c *Client) Functions(ctx context.Context) (*models.FunctionList, error) {
	var out models.FunctionList
	if err := c.do(ctx, http.MethodGet, "/api/v1/functions", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CallFunction runs the named helper function with args.
func (c *Client) CallFunction(ctx context.Context, name string, args map[string]interface{}) (*models.FunctionResult, error) {
	var out models.FunctionResult
	body := map[string]interface{}{"args": args}
	if err := c.do(ctx, http.MethodPost, "/api/v1/functions/"+strings.Trim(name, "/"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
