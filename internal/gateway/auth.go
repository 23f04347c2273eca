package gateway

import (
	"context"
	"net/http"

	"github.com/queme-app/queme-client/internal/domain"
)

type LoginResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    domain.User `json:"user"`
}

type RegisterForm struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Phone        string `json:"phone"`
	UserType     string `json:"user_type"`
	BusinessName string `json:"business_name,omitempty"`
	BusinessType string `json:"business_type,omitempty"`
	Address      string `json:"address,omitempty"`
}

// RegisterResponse never carries a token: registration leaves the account
// pending email verification and does not establish a session.
type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", payload, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, form RegisterForm) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", form, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProviderProfile revalidates a provider identity against the backend.
// Requires a bearer token.
func (c *Client) ProviderProfile(ctx context.Context) (*domain.Provider, error) {
	var profile domain.Provider
	if err := c.do(ctx, http.MethodGet, "/provider/profile", nil, true, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
