package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/queme-app/queme-client/internal/domain"
)

// QueueStatus fetches the authoritative position for one queue token.
// Returns ErrNotFound when the backend no longer knows the token, which
// callers treat as a terminal state.
func (c *Client) QueueStatus(ctx context.Context, token string) (*domain.QueueSnapshot, error) {
	var snap domain.QueueSnapshot
	path := "/queue/status?token=" + url.QueryEscape(token)
	if err := c.do(ctx, http.MethodGet, path, nil, true, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ProviderQueue fetches the live queue for one of the provider's services:
// who is being served and who is waiting.
func (c *Client) ProviderQueue(ctx context.Context, providerID, serviceID int64) (*domain.ProviderQueue, error) {
	var q domain.ProviderQueue
	path := fmt.Sprintf("/queue?providerId=%d&serviceId=%d", providerID, serviceID)
	if err := c.do(ctx, http.MethodGet, path, nil, true, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// CallNext advances one service's queue: the first waiting customer becomes
// the one being served.
func (c *Client) CallNext(ctx context.Context, serviceID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/queue/%d/call-next", serviceID), nil, true, nil)
}
