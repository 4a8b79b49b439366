package websearch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/merchantiq/docengine/internal/config"
)

// Result is a grounded web answer with its cited pages.
type Result struct {
	Content   string     `json:"content"`
	Citations []Citation `json:"citations"`
}

type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Client fronts an external search-grounded completion API. Zero value
// of the config disables it; callers treat a nil Client as no web access.
type Client struct {
	client   *resty.Client
	endpoint string
	model    string
}

func New(cfg config.WebSearchConfig) *Client {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil
	}
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetAuthToken(cfg.APIKey)
	return &Client{client: client, endpoint: cfg.Endpoint, model: cfg.Model}
}

type searchRequest struct {
	Model string `json:"model"`
	Query string `json:"query"`
}

func (c *Client) Search(ctx context.Context, query string) (*Result, error) {
	var result Result
	rsp, err := c.client.R().
		SetContext(ctx).
		SetBody(searchRequest{Model: c.model, Query: query}).
		SetResult(&result).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}
	if rsp.IsError() {
		return nil, fmt.Errorf("web search: status %d", rsp.StatusCode())
	}
	return &result, nil
}
