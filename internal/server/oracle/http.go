package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// HTTPClient implements Client against the oracle's JSON API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) RequestRand(ctx context.Context, correlationID string, signingValue uint64, callbackAccount string) error {
	// Signing values can exceed the integer range JSON consumers handle
	// reliably, so they travel as decimal strings.
	raw, err := json.Marshal(map[string]string{
		"correlation_id": correlationID,
		"signing_value":  strconv.FormatUint(signingValue, 10),
		"callback":       callbackAccount,
	})
	if err != nil {
		return fmt.Errorf("oracle request error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/requests", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("oracle request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("oracle request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("oracle error: unexpected status %d", resp.StatusCode)
	}
	return nil
}
