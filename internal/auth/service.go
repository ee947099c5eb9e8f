// Package auth wraps the sign-in, registration and identity endpoints.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/manage-pm/manage-admin/internal/platform/httpx"
)

// ErrNoRole is returned when the identity endpoint answers without a role.
var ErrNoRole = errors.New("auth: role missing from response")

// Requester is the part of httpx.Client the service needs.
type Requester interface {
	Do(ctx context.Context, method, path string, in, out any) error
}

// Service wraps the authentication endpoints.
type Service struct {
	api      Requester
	validate *validator.Validate
}

// NewService constructs a new Service.
func NewService(api Requester) *Service {
	return &Service{api: api, validate: validator.New()}
}

// Login exchanges an account and password for a bearer token.
func (s *Service) Login(ctx context.Context, account, password string) (LoginResult, error) {
	in := credentials{Account: account, Password: password}
	if err := s.check(in); err != nil {
		return LoginResult{}, err
	}
	var out LoginResult
	if err := s.api.Do(ctx, http.MethodPost, "/api/login", in, &out); err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

// CheckEmailRegistered asks whether email already has an account.
func (s *Service) CheckEmailRegistered(ctx context.Context, email string) (EmailCheck, error) {
	in := emailRequest{Email: email}
	if err := s.check(in); err != nil {
		return EmailCheck{}, err
	}
	var out EmailCheck
	if err := s.api.Do(ctx, http.MethodPost, "/api/check-email-registered", in, &out); err != nil {
		return EmailCheck{}, err
	}
	return out, nil
}

// SendVerificationCode requests a verification code for email.
func (s *Service) SendVerificationCode(ctx context.Context, email string) (VerificationCode, error) {
	in := emailRequest{Email: email}
	if err := s.check(in); err != nil {
		return VerificationCode{}, err
	}
	var out VerificationCode
	if err := s.api.Do(ctx, http.MethodPost, "/api/send-verification-code", in, &out); err != nil {
		return VerificationCode{}, err
	}
	return out, nil
}

// Register creates a self-service account.
func (s *Service) Register(ctx context.Context, in Registration) (httpx.Ack, error) {
	if err := s.check(in); err != nil {
		return httpx.Ack{}, err
	}
	var out httpx.Ack
	if err := s.api.Do(ctx, http.MethodPost, "/api/register", in, &out); err != nil {
		return httpx.Ack{}, err
	}
	return out, nil
}

// RecoverAccount sets a new password for an existing account.
func (s *Service) RecoverAccount(ctx context.Context, in Recovery) (httpx.Ack, error) {
	if err := s.check(in); err != nil {
		return httpx.Ack{}, err
	}
	var out httpx.Ack
	if err := s.api.Do(ctx, http.MethodPost, "/api/recover-account", in, &out); err != nil {
		return httpx.Ack{}, err
	}
	return out, nil
}

// FetchUserRole returns the raw role of the token holder.
func (s *Service) FetchUserRole(ctx context.Context) (string, error) {
	var out roleResponse
	if err := s.api.Do(ctx, http.MethodGet, "/api/user-role", nil, &out); err != nil {
		return "", err
	}
	if out.Role == "" {
		return "", ErrNoRole
	}
	return out.Role, nil
}

// FetchCurrentUserName returns the display name of the token holder.
func (s *Service) FetchCurrentUserName(ctx context.Context) (string, error) {
	var out nameResponse
	if err := s.api.Do(ctx, http.MethodGet, "/api/current-user-name", nil, &out); err != nil {
		return "", err
	}
	return out.Username, nil
}

func (s *Service) check(in any) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("auth: %w: %v", httpx.ErrValidation, err)
	}
	return nil
}
