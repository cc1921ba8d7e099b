// Package client talks to a running selection server.
package client

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"featsel/internal/server"
	"featsel/internal/storage"

	"github.com/go-resty/resty/v2"
)

type Client struct {
	base string
	rest *resty.Client
}

func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(30 * time.Second) // default fallback
	}
	r.SetHeader("Content-Type", "application/json")
	return &Client{base: base, rest: r}
}

// Select posts a matrix to /select.
func (c *Client) Select(ctx context.Context, req server.SelectRequest) (*server.SelectResponse, error) {
	result := &server.SelectResponse{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(result).
		Post(c.base + "/select")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("select: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return result, nil
}

func (c *Client) Health(ctx context.Context) (*server.HealthResponse, error) {
	result := &server.HealthResponse{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(result).
		Get(c.base + "/health")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("health: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return result, nil
}

// Runs lists up to limit stored runs, newest first.
func (c *Client) Runs(ctx context.Context, limit int) ([]storage.RunRecord, error) {
	var runs []storage.RunRecord
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&runs).
		Get(c.base + "/runs")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("runs: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return runs, nil
}

// DeleteRun removes a stored run.
func (c *Client) DeleteRun(ctx context.Context, id string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("id", id).
		Delete(c.base + "/runs")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("delete run: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
