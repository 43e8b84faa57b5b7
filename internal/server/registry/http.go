package registry

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

// HTTPClient implements Client against the registry's JSON API.
type HTTPClient struct {
	baseURL string
	account string
	client  *http.Client
}

// NewHTTPClient builds a client for the registry at baseURL. Outbound
// commands (transfer, mint, burn) act on behalf of the given service account.
func NewHTTPClient(baseURL, account string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		account: account,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) GetAsset(ctx context.Context, assetID string) (*Asset, error) {
	asset := &Asset{}
	err := c.getJSON(ctx, "/v1/assets/"+url.PathEscape(assetID), asset)
	if err != nil {
		return nil, err
	}
	return asset, nil
}

func (c *HTTPClient) GetCollection(ctx context.Context, name string) (*Collection, error) {
	collection := &Collection{}
	err := c.getJSON(ctx, "/v1/collections/"+url.PathEscape(name), collection)
	if err != nil {
		return nil, err
	}
	return collection, nil
}

func (c *HTTPClient) ListOwnedAssets(ctx context.Context, account string) ([]*Asset, error) {
	var assets []*Asset
	err := c.getJSON(ctx, "/v1/accounts/"+url.PathEscape(account)+"/assets", &assets)
	if err != nil {
		return nil, err
	}
	return assets, nil
}

func (c *HTTPClient) Transfer(ctx context.Context, to string, assetIDs []string, memo string) error {
	return c.postJSON(ctx, "/v1/transfers", map[string]any{
		"from":      c.account,
		"to":        to,
		"asset_ids": assetIDs,
		"memo":      memo,
	})
}

func (c *HTTPClient) Mint(ctx context.Context, collection, category, templateRef, newOwner string) error {
	return c.postJSON(ctx, "/v1/mints", map[string]any{
		"authorized_minter": c.account,
		"collection":        collection,
		"category":          category,
		"template_ref":      templateRef,
		"new_owner":         newOwner,
	})
}

func (c *HTTPClient) Burn(ctx context.Context, assetID string) error {
	return c.postJSON(ctx, "/v1/assets/"+url.PathEscape(assetID)+"/burn", map[string]any{
		"owner": c.account,
	})
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("registry request error: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("registry request error: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return common.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("registry error: unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("registry response error: %w", err)
	}
	return nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("registry request error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("registry request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("registry request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("registry error: unexpected status %d", resp.StatusCode)
	}
	return nil
}
