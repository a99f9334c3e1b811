package services

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/veyra/internal/client/client"
	"github.com/dmitrijs2005/veyra/internal/client/models"
)

type passwordSetter interface {
	SetPassword(password string)
}

// Auth wraps the authentication endpoints.
type Auth struct {
	client client.Client
}

func NewAuth(c client.Client) *Auth {
	return &Auth{client: c}
}

// Login authenticates and stores the resulting token in the session.
func (a *Auth) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	return a.client.Login(ctx, username, password)
}

// ChangePassword changes the password of the logged-in account and returns
// the service's acknowledgement.
func (a *Auth) ChangePassword(ctx context.Context, currentPassword, newPassword string) (string, error) {
	var res models.MessageResponse
	err := a.client.Do(ctx, http.MethodPost, "/api/auth/change-password", models.ChangePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	}, &res)
	if err != nil {
		return "", err
	}
	if ps, ok := a.client.(passwordSetter); ok {
		ps.SetPassword(newPassword)
	}
	return res.Message, nil
}
