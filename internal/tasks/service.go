// Package tasks wraps the task, comment and attachment endpoints.
package tasks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/manage-pm/manage-admin/internal/platform/httpx"
)

// Requester is the part of httpx.Client the service needs.
type Requester interface {
	Do(ctx context.Context, method, path string, in, out any) error
	Download(ctx context.Context, method, path string, in any) (*httpx.Blob, error)
}

// Service handles task calls.
type Service struct {
	api      Requester
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(api Requester) *Service {
	return &Service{api: api, validate: validator.New()}
}

// List returns the tasks of active projects visible to the caller.
func (s *Service) List(ctx context.Context) (List, error) {
	var out List
	err := s.api.Do(ctx, http.MethodGet, "/api/tasks", nil, &out)
	return out, err
}

// Member returns the tasks assigned to the caller.
func (s *Service) Member(ctx context.Context) (List, error) {
	var out List
	err := s.api.Do(ctx, http.MethodGet, "/api/tasks/member", nil, &out)
	return out, err
}

// Get returns one task.
func (s *Service) Get(ctx context.Context, id int64) (Task, error) {
	if err := checkID(id); err != nil {
		return Task{}, err
	}
	var out Task
	err := s.api.Do(ctx, http.MethodGet, fmt.Sprintf("/api/tasks/%d", id), nil, &out)
	return out, err
}

// Create adds a task.
func (s *Service) Create(ctx context.Context, in Input) (httpx.Ack, error) {
	if err := s.check(in); err != nil {
		return httpx.Ack{}, err
	}
	var out httpx.Ack
	err := s.api.Do(ctx, http.MethodPost, "/api/tasks", in, &out)
	return out, err
}

// Update replaces the fields of a task.
func (s *Service) Update(ctx context.Context, id int64, in Input) (httpx.Ack, error) {
	if err := checkID(id); err != nil {
		return httpx.Ack{}, err
	}
	if err := s.check(in); err != nil {
		return httpx.Ack{}, err
	}
	var out httpx.Ack
	err := s.api.Do(ctx, http.MethodPut, fmt.Sprintf("/api/tasks/%d", id), in, &out)
	return out, err
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id int64) (httpx.Ack, error) {
	if err := checkID(id); err != nil {
		return httpx.Ack{}, err
	}
	var out httpx.Ack
	err := s.api.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil, &out)
	return out, err
}

// UpdateStatus moves a task to status.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (StatusAck, error) {
	if err := checkID(id); err != nil {
		return StatusAck{}, err
	}
	in := statusUpdate{Status: status}
	if err := s.check(in); err != nil {
		return StatusAck{}, err
	}
	var out StatusAck
	err := s.api.Do(ctx, http.MethodPut, fmt.Sprintf("/api/tasks/%d/status", id), in, &out)
	return out, err
}

// Comments lists the comments of a task.
func (s *Service) Comments(ctx context.Context, id int64) (CommentList, error) {
	if err := checkID(id); err != nil {
		return CommentList{}, err
	}
	var out CommentList
	err := s.api.Do(ctx, http.MethodGet, fmt.Sprintf("/api/tasks/%d/comments", id), nil, &out)
	return out, err
}

// SubmitComment posts a comment authored by the caller.
func (s *Service) SubmitComment(ctx context.Context, id int64, content string) (CommentAck, error) {
	if err := checkID(id); err != nil {
		return CommentAck{}, err
	}
	in := commentInput{Content: content}
	if err := s.check(in); err != nil {
		return CommentAck{}, err
	}
	var out CommentAck
	err := s.api.Do(ctx, http.MethodPost, fmt.Sprintf("/api/tasks/%d/comments", id), in, &out)
	return out, err
}

// Download fetches a task attachment by the path stored in AttachmentURL.
func (s *Service) Download(ctx context.Context, filename string) (*httpx.Blob, error) {
	filename = strings.Trim(filename, "/")
	if filename == "" {
		return nil, fmt.Errorf("tasks: %w: filename required", httpx.ErrValidation)
	}
	segments := strings.Split(filename, "/")
	for i, seg := range segments {
		if seg == ".." {
			return nil, fmt.Errorf("tasks: %w: filename must not climb directories", httpx.ErrValidation)
		}
		segments[i] = url.PathEscape(seg)
	}
	return s.api.Download(ctx, http.MethodGet, "/api/download/"+strings.Join(segments, "/"), nil)
}

func (s *Service) check(in any) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("tasks: %w: %v", httpx.ErrValidation, err)
	}
	return nil
}

func checkID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("tasks: %w: id must be positive", httpx.ErrValidation)
	}
	return nil
}
