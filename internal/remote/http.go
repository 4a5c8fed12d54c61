package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
)

const defaultTimeout = 20 * time.Second

// HTTPClient talks to a JSON marketplace API:
//
//	POST {base}/api/listings            (create, relist)
//	PUT  {base}/api/listings/{id}       (update)
//	DELETE {base}/api/listings/{id}     (delete)
//	GET  {base}/api/listings/{id}
//	GET  {base}/api/listings?limit=N
//	GET  {base}/api/policies/{type}/{id}
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	userAgent string
	authToken string
}

// HTTPClientOptions configures the HTTP marketplace client.
type HTTPClientOptions struct {
	BaseURL   string
	UserAgent string
	AuthToken string
	Timeout   time.Duration
}

// NewHTTPClient creates a marketplace client with a bounded request timeout.
func NewHTTPClient(opts HTTPClientOptions) (*HTTPClient, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, errors.New("BaseURL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = "listsync-service/1.0"
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(base, "/"),
		client:    &http.Client{Timeout: timeout},
		userAgent: ua,
		authToken: opts.AuthToken,
	}, nil
}

// Publish pushes one canonical payload. The HTTP verb follows the intent;
// the remote id is the caller's, never mined from the payload content.
func (c *HTTPClient) Publish(ctx context.Context, intent domain.Intent, remoteID string, payload []byte) (*PublishResult, error) {
	method := http.MethodPost
	endpoint := c.baseURL + "/api/listings"
	switch intent {
	case domain.IntentUpdate, domain.IntentDelete:
		if remoteID == "" {
			// Without an item id the request cannot be addressed; retrying
			// will not change that.
			return nil, &Error{
				Message:   fmt.Sprintf("remote id required for %s", intent),
				Transient: false,
			}
		}
		method = http.MethodPut
		if intent == domain.IntentDelete {
			method = http.MethodDelete
		}
		endpoint += "/" + url.PathEscape(remoteID)
	}

	body, err := c.do(ctx, method, endpoint, payload)
	if err != nil {
		return nil, err
	}

	result := &PublishResult{RemoteID: remoteID}
	var ack struct {
		RemoteID string `json:"remote_id"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &ack); err == nil && ack.RemoteID != "" {
			result.RemoteID = ack.RemoteID
		}
	}
	return result, nil
}

// FetchListing retrieves the marketplace's current document for an item.
func (c *HTTPClient) FetchListing(ctx context.Context, remoteID string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, c.baseURL+"/api/listings/"+url.PathEscape(remoteID), nil)
}

// FetchPolicy retrieves one account-level policy document.
func (c *HTTPClient) FetchPolicy(ctx context.Context, policyType, remoteID string) ([]byte, error) {
	endpoint := c.baseURL + "/api/policies/" + url.PathEscape(policyType) + "/" + url.PathEscape(remoteID)
	return c.do(ctx, http.MethodGet, endpoint, nil)
}

// FetchInventory pages through the account's active listings.
func (c *HTTPClient) FetchInventory(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 100
	}
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/api/listings?limit="+strconv.Itoa(limit), nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Listings []json.RawMessage `json:"listings"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &Error{Message: "malformed inventory response: " + err.Error(), Transient: false}
	}

	items := make([]Item, 0, len(envelope.Listings))
	for _, raw := range envelope.Listings {
		var head struct {
			ItemID string `json:"item_id"`
			SKU    string `json:"sku"`
		}
		if err := json.Unmarshal(raw, &head); err != nil || head.ItemID == "" {
			continue
		}
		items = append(items, Item{ItemID: head.ItemID, SKU: head.SKU, Document: raw})
	}
	return items, nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build marketplace request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// Timeouts and connection failures are retriable.
		return nil, &Error{Message: err.Error(), Transient: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "failed to read response: " + err.Error(), Transient: true}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, classifyStatus(resp.StatusCode, body)
}

func classifyStatus(status int, body []byte) *Error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{
		StatusCode: status,
		Message:    msg,
		Transient:  status == http.StatusTooManyRequests || status >= 500,
	}
}
