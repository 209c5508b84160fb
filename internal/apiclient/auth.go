package apiclient

import (
	"context"
	"net/http"
	"time"

	"github.com/iliyamo/band-manager/internal/model"
)

// Token is one half of the pair returned by login.
type Token struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Session is the login response.
type Session struct {
	User    model.User `json:"user"`
	Access  Token      `json:"access"`
	Refresh Token      `json:"refresh"`
}

// Login exchanges credentials for a token pair and starts using the
// access token.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &s)
	if err == nil {
		c.SetToken(s.Access.Token)
	}
	return s, err
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var u model.User
	return u, c.do(ctx, http.MethodGet, "/auth/me", nil, &u)
}

// Bands lists the caller's bands.
func (c *Client) Bands(ctx context.Context) ([]model.Band, error) {
	var out []model.Band
	return out, c.do(ctx, http.MethodGet, "/bands", nil, &out)
}
