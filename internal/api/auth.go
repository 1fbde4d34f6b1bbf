package api

import (
	"context"
	"net/http"
	"net/url"

	"autoshop/internal/domain"
)

// AuthClient is the upstream auth collaborator.
type AuthClient struct {
	client *Client
}

func NewAuthClient(client *Client) *AuthClient {
	return &AuthClient{client: client}
}

func (a *AuthClient) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthGrant, error) {
	var grant domain.AuthGrant
	if err := a.client.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/login", Body: creds}, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

func (a *AuthClient) Logout(ctx context.Context, token string) error {
	return a.client.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/logout", Token: token}, nil)
}

func (a *AuthClient) GetCurrentUser(ctx context.Context, token string) (*domain.User, error) {
	var user domain.User
	if err := a.client.Do(ctx, Request{Method: http.MethodGet, Path: "/auth/me", Token: token}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

func (a *AuthClient) Register(ctx context.Context, reg Registration) (*domain.User, error) {
	var user domain.User
	if err := a.client.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/register", Body: reg}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *AuthClient) RequestPasswordReset(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return a.client.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/forgot-password", Body: body}, nil)
}

func (a *AuthClient) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"password": newPassword}
	path := "/auth/reset-password/" + url.PathEscape(token)
	return a.client.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, nil)
}

func (a *AuthClient) VerifyEmail(ctx context.Context, token string) error {
	path := "/auth/verify-email/" + url.PathEscape(token)
	return a.client.Do(ctx, Request{Method: http.MethodGet, Path: path}, nil)
}
