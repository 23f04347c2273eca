package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/queme-app/queme-client/internal/domain"
)

// Providers returns the public provider directory. No auth required.
func (c *Client) Providers(ctx context.Context) ([]domain.Provider, error) {
	var providers []domain.Provider
	if err := c.do(ctx, http.MethodGet, "/provider", nil, false, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// ProviderServices returns the services offered by one provider. No auth required.
func (c *Client) ProviderServices(ctx context.Context, providerID int64) ([]domain.Service, error) {
	var services []domain.Service
	path := fmt.Sprintf("/provider/%d/services", providerID)
	if err := c.do(ctx, http.MethodGet, path, nil, false, &services); err != nil {
		return nil, err
	}
	return services, nil
}

type FeedbackRequest struct {
	ProviderID int64  `json:"provider_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment,omitempty"`
}

func (c *Client) SubmitFeedback(ctx context.Context, req FeedbackRequest) error {
	return c.do(ctx, http.MethodPost, "/feedback", req, true, nil)
}
