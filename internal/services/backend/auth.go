package backend

import (
	"context"
	"errors"
	"strings"

	"prepcoach/internal/services"
)

// SignUpRequest registers a new account.
type SignUpRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest exchanges credentials for a bearer token.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// MinPasswordLength mirrors the backend's password rule so users get the
// error before a round trip.
const MinPasswordLength = 6

// SignUp creates an account. Backends that sign the user in immediately
// return a token; otherwise the returned token is empty.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (string, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FullName == "" {
		return "", services.Wrap(services.ErrValidation, "auth", "signup", "full name required", nil)
	}
	if err := validateCredentials(req.Email, req.Password); err != nil {
		return "", err
	}
	var resp tokenResponse
	if err := c.postJSON(ctx, req, &resp, "auth", "signup"); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Token), nil
}

// SignIn authenticates and returns the bearer token.
func (c *Client) SignIn(ctx context.Context, req SignInRequest) (string, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return "", services.Wrap(services.ErrValidation, "auth", "signin", "email and password required", nil)
	}
	var resp tokenResponse
	if err := c.postJSON(ctx, req, &resp, "auth", "signin"); err != nil {
		return "", err
	}
	token := strings.TrimSpace(resp.Token)
	if token == "" {
		return "", services.Wrap(services.ErrValidation, "auth", "signin", "response did not include a token", errors.New("empty token"))
	}
	return token, nil
}

func validateCredentials(email, password string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return services.Wrap(services.ErrValidation, "auth", "signup", "a valid email address is required", nil)
	}
	if len(password) < MinPasswordLength {
		return services.Wrap(services.ErrValidation, "auth", "signup", "password must be at least 6 characters long", nil)
	}
	return nil
}
