package client

import (
	"context"
	"errors"
	"net/http"
)

var ErrEmptyToken = errors.New("empty_token")

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// ObtainToken exchanges operator credentials for an access/refresh pair.
func (c *Client) ObtainToken(ctx context.Context, username, password string) (string, string, error) {
	resp, err := c.do(ctx, request{
		op:        "token",
		method:    http.MethodPost,
		path:      "/token/",
		body:      tokenRequest{Username: username, Password: password},
		anonymous: true,
	})
	if err != nil {
		return "", "", err
	}
	var out tokenPair
	if err := decode(resp, &out); err != nil {
		return "", "", err
	}
	if out.Access == "" {
		return "", "", ErrEmptyToken
	}
	return out.Access, out.Refresh, nil
}

// RefreshToken trades a refresh token for a new access token.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (string, error) {
	resp, err := c.do(ctx, request{
		op:        "token_refresh",
		method:    http.MethodPost,
		path:      "/token/refresh/",
		body:      map[string]string{"refresh": refresh},
		anonymous: true,
	})
	if err != nil {
		return "", err
	}
	var out tokenPair
	if err := decode(resp, &out); err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", ErrEmptyToken
	}
	return out.Access, nil
}
