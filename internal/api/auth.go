package api

import (
	"context"
	"net/http"

	"github.com/medchat/medchat/internal/models"
)

// LoginResult is the response to a successful login.
type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// RegisterResult is the response to a registration request. Accounts
// are activated manually; registration never logs the user in.
type RegisterResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new user account.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (*RegisterResult, error) {
	var result RegisterResult
	err := c.do(ctx, http.MethodPost, "/auth/register",
		registerRequest{Email: email, Password: password, FullName: fullName}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Login obtains a token and the user record for the given credentials.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/login",
		loginRequest{Email: email, Password: password}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Profile fetches the authenticated user's record.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
