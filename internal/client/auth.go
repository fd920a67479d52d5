package client

import (
	"context"
	"net/http"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the result of a login or refresh. The refresh token itself
// lives in the client's cookie jar.
type Session struct {
	AccessToken        string `json:"accessToken"`
	TokenType          string `json:"tokenType"`
	ExpiresIn          int    `json:"expiresIn"`
	MustChangePassword bool   `json:"mustChangePassword"`
	User               *User  `json:"user"`
}

func (c *Client) Register(ctx context.Context, in RegisterRequest) (*User, error) {
	out := new(User)
	if _, err := c.call(ctx, http.MethodPost, apiPrefix+"/auth/register", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Login authenticates and uses the new access token for later calls. The
// cache is emptied because reads may differ per account.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	return c.session(ctx, apiPrefix+"/auth/login", Credentials{Email: email, Password: password})
}

// Refresh exchanges the refresh cookie for a new token pair.
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	return c.session(ctx, apiPrefix+"/auth/refresh", nil)
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) (*Session, error) {
	return c.session(ctx, apiPrefix+"/auth/change-password", map[string]string{
		"currentPassword": current,
		"newPassword":     next,
		"confirmPassword": next,
	})
}

func (c *Client) session(ctx context.Context, path string, body any) (*Session, error) {
	out := new(Session)
	if _, err := c.call(ctx, http.MethodPost, path, body, out); err != nil {
		return nil, err
	}
	c.SetAuthToken(out.AccessToken)
	c.cache.InvalidateAll()
	return out, nil
}

// Logout revokes the refresh cookie and forgets the access token.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.call(ctx, http.MethodPost, apiPrefix+"/auth/logout", nil, nil); err != nil {
		return err
	}
	c.SetAuthToken("")
	c.cache.InvalidateAll()
	return nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	out := new(User)
	if _, err := c.call(ctx, http.MethodGet, apiPrefix+"/auth/me", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}
