package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/queme-app/queme-client/internal/domain"
)

type CreateBookingRequest struct {
	ProviderID  int64  `json:"provider_id"`
	ServiceID   int64  `json:"service_id,omitempty"`
	ServiceType string `json:"service_type"`
}

// ListBookings returns every booking for the authenticated user. The backend
// scopes the list by the bearer token.
func (c *Client) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	var bookings []domain.Booking
	if err := c.do(ctx, http.MethodGet, "/bookings", nil, true, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *Client) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	var booking domain.Booking
	if err := c.do(ctx, http.MethodPost, "/bookings", req, true, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) CancelBooking(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/bookings/%d/cancel", id), nil, true, nil)
}
