package cartsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ZeeshanZk09/zebotix-e-commerce/internal/middleware"
)

// Client talks to the storefront cart endpoints on behalf of one user. It is
// the production Uploader behind a Controller.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	userID  string
	plan    string
}

func NewClient(baseURL, userID string, member bool) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}

	plan := ""
	if member {
		plan = "plus"
	}

	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 10 * time.Second},
		userID:  userID,
		plan:    plan,
	}, nil
}

func (c *Client) UploadCart(ctx context.Context, items []Line) error {
	body := struct {
		Items []Line `json:"items"`
	}{Items: items}

	resp, err := c.do(ctx, http.MethodPost, "/api/cart", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cart upload: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) FetchCart(ctx context.Context) ([]Line, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/cart", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cart fetch: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Items []Line `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode cart response: %w", err)
	}
	return out.Items, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	ref := &url.URL{Path: path}
	target := c.baseURL.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.HeaderUserID, c.userID)
	if c.plan != "" {
		req.Header.Set(middleware.HeaderUserPlan, c.plan)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}
