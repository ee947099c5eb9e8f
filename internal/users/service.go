// Package users wraps the account management endpoints.
package users

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/manage-pm/manage-admin/internal/platform/httpx"
)

// Requester is the part of httpx.Client the service needs.
type Requester interface {
	Do(ctx context.Context, method, path string, in, out any) error
	Download(ctx context.Context, method, path string, in any) (*httpx.Blob, error)
}

// Service handles user management calls.
type Service struct {
	api      Requester
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(api Requester) *Service {
	return &Service{api: api, validate: validator.New()}
}

// List returns all users.
func (s *Service) List(ctx context.Context) (List, error) {
	var out List
	err := s.api.Do(ctx, http.MethodGet, "/api/users", nil, &out)
	return out, err
}

// Members returns the users holding the member role.
func (s *Service) Members(ctx context.Context) (MemberList, error) {
	var out MemberList
	err := s.api.Do(ctx, http.MethodGet, "/api/users/members", nil, &out)
	return out, err
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if err := checkID(id); err != nil {
		return User{}, err
	}
	var out User
	err := s.api.Do(ctx, http.MethodGet, fmt.Sprintf("/api/users/%d", id), nil, &out)
	return out, err
}

// Create adds an account; the server assigns its default password.
func (s *Service) Create(ctx context.Context, in Input) (httpx.Ack, error) {
	if err := s.check(in); err != nil {
		return httpx.Ack{}, err
	}
	var out httpx.Ack
	err := s.api.Do(ctx, http.MethodPost, "/api/users", in, &out)
	return out, err
}

// UpdateInfo replaces the profile fields of an account.
func (s *Service) UpdateInfo(ctx context.Context, id int64, in Input) (httpx.Ack, error) {
	if err := checkID(id); err != nil {
		return httpx.Ack{}, err
	}
	if err := s.check(in); err != nil {
		return httpx.Ack{}, err
	}
	var out httpx.Ack
	err := s.api.Do(ctx, http.MethodPut, fmt.Sprintf("/api/users/%d/info", id), in, &out)
	return out, err
}

// UpdateStatus enables or disables an account.
func (s *Service) UpdateStatus(ctx context.Context, id int64, active bool) (httpx.Ack, error) {
	if err := checkID(id); err != nil {
		return httpx.Ack{}, err
	}
	var out httpx.Ack
	err := s.api.Do(ctx, http.MethodPut, fmt.Sprintf("/api/users/%d/status", id), statusUpdate{Active: active}, &out)
	return out, err
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id int64) (httpx.Ack, error) {
	if err := checkID(id); err != nil {
		return httpx.Ack{}, err
	}
	var out httpx.Ack
	err := s.api.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/users/%d", id), nil, &out)
	return out, err
}

// Export downloads the selected users as a spreadsheet.
func (s *Service) Export(ctx context.Context, ids []int64) (*httpx.Blob, error) {
	in := exportRequest{UserIDs: ids}
	if err := s.check(in); err != nil {
		return nil, err
	}
	return s.api.Download(ctx, http.MethodPost, "/api/users/export", in)
}

func (s *Service) check(in any) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("users: %w: %v", httpx.ErrValidation, err)
	}
	return nil
}

func checkID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("users: %w: id must be positive", httpx.ErrValidation)
	}
	return nil
}
