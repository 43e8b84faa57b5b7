// Package api is the HTTP client the operator console uses to call the
// PackVault server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dmolchanov/packvault/internal/common"
)

// Pack mirrors the server's pack definition payload.
type Pack struct {
	PackID      int64     `json:"PackID"`
	Collection  string    `json:"Collection"`
	UnlockTime  time.Time `json:"UnlockTime"`
	TemplateRef string    `json:"TemplateRef"`
	DisplayData string    `json:"DisplayData"`
}

// Allocation mirrors the server's allocation request payload.
type Allocation struct {
	ItemID    string   `json:"ItemID"`
	PackID    int64    `json:"PackID"`
	Requester string   `json:"Requester"`
	Status    string   `json:"Status"`
	Bundle    []string `json:"Bundle"`
}

// Client calls the server's JSON API on behalf of an authenticated operator.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken installs the bearer token sent with subsequent calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) CreatePack(ctx context.Context, packID int64, collection string, unlockTime time.Time, templateRef, displayData string) (*Pack, error) {
	pack := &Pack{}
	err := c.call(ctx, http.MethodPost, "/v1/packs", map[string]any{
		"pack_id":      packID,
		"collection":   collection,
		"unlock_time":  unlockTime,
		"template_ref": templateRef,
		"display_data": displayData,
	}, pack)
	if err != nil {
		return nil, err
	}
	return pack, nil
}

func (c *Client) GetPack(ctx context.Context, packID int64) (*Pack, error) {
	pack := &Pack{}
	err := c.call(ctx, http.MethodGet, fmt.Sprintf("/v1/packs/%d", packID), nil, pack)
	if err != nil {
		return nil, err
	}
	return pack, nil
}

func (c *Client) InsertEntry(ctx context.Context, packID int64, bundle []string) error {
	return c.call(ctx, http.MethodPost, "/v1/pool/entries", map[string]any{
		"pack_id": packID,
		"bundle":  bundle,
	}, nil)
}

func (c *Client) GenerateEntries(ctx context.Context, packID int64, category string, bundleSize int) (int, error) {
	var out struct {
		Entries int `json:"entries"`
	}
	err := c.call(ctx, http.MethodPost, "/v1/pool/generate", map[string]any{
		"pack_id":     packID,
		"category":    category,
		"bundle_size": bundleSize,
	}, &out)
	return out.Entries, err
}

func (c *Client) GetAllocation(ctx context.Context, itemID string) (*Allocation, error) {
	alloc := &Allocation{}
	err := c.call(ctx, http.MethodGet, "/v1/allocations/"+url.PathEscape(itemID), nil, alloc)
	if err != nil {
		return nil, err
	}
	return alloc, nil
}

func (c *Client) RetryAllocation(ctx context.Context, itemID string) error {
	return c.call(ctx, http.MethodPost, "/v1/allocations/"+url.PathEscape(itemID)+"/retry", map[string]any{}, nil)
}

func (c *Client) ClaimAllocation(ctx context.Context, itemID string) error {
	return c.call(ctx, http.MethodPost, "/v1/allocations/"+url.PathEscape(itemID)+"/claim", map[string]any{}, nil)
}

func (c *Client) ApproveStaged(ctx context.Context, itemID, requester string) error {
	return c.call(ctx, http.MethodPost, "/v1/staged/"+url.PathEscape(itemID)+"/approve", map[string]any{
		"requester": requester,
	}, nil)
}

func (c *Client) SettleStaged(ctx context.Context, itemID, producedTemplate string) error {
	return c.call(ctx, http.MethodPost, "/v1/staged/"+url.PathEscape(itemID)+"/settle", map[string]any{
		"produced_template": producedTemplate,
	}, nil)
}

func (c *Client) WithdrawStaged(ctx context.Context, itemID string) error {
	return c.call(ctx, http.MethodPost, "/v1/staged/"+url.PathEscape(itemID)+"/withdraw", map[string]any{}, nil)
}

func (c *Client) RemoveAll(ctx context.Context, scope string) error {
	return c.call(ctx, http.MethodPost, "/v1/admin/removeall", map[string]any{
		"scope": scope,
	}, nil)
}

func (c *Client) ExportAudit(ctx context.Context) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := c.call(ctx, http.MethodPost, "/v1/admin/audit/export", map[string]any{}, &out)
	return out.URL, err
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("request marshal error: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set(common.AccessTokenHeaderName, c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var errBody struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, errBody.Error)
		}
		return fmt.Errorf("server error: unexpected status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("response error: %w", err)
		}
	}
	return nil
}
