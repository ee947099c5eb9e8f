// Package projects wraps the project, progress and archive endpoints.
package projects

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

// Service handles project calls.
type Service struct {
	api      Requester
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(api Requester) *Service {
	return &Service{api: api, validate: validator.New()}
}

// List returns the active projects visible to the caller.
func (s *Service) List(ctx context.Context) (List, error) {
	var out List
	err := s.api.Do(ctx, http.MethodGet, "/api/projects", nil, &out)
	return out, err
}

// Get returns one project.
func (s *Service) Get(ctx context.Context, id int64) (Project, error) {
	if err := checkID(id); err != nil {
		return Project{}, err
	}
	var out Project
	err := s.api.Do(ctx, http.MethodGet, fmt.Sprintf("/api/projects/%d", id), nil, &out)
	return out, err
}

// Create adds a project managed by the caller.
func (s *Service) Create(ctx context.Context, in Input) (httpx.Ack, error) {
	if err := s.check(in); err != nil {
		return httpx.Ack{}, err
	}
	var out httpx.Ack
	err := s.api.Do(ctx, http.MethodPost, "/api/projects", in, &out)
	return out, err
}

// Update changes a project. Setting StatusArchived archives it.
func (s *Service) Update(ctx context.Context, id int64, in Input) (httpx.Ack, error) {
	if err := checkID(id); err != nil {
		return httpx.Ack{}, err
	}
	if err := s.check(in); err != nil {
		return httpx.Ack{}, err
	}
	var out httpx.Ack
	err := s.api.Do(ctx, http.MethodPut, fmt.Sprintf("/api/projects/%d", id), in, &out)
	return out, err
}

// Delete removes a project along with its tasks and progress record.
func (s *Service) Delete(ctx context.Context, id int64) (httpx.Ack, error) {
	if err := checkID(id); err != nil {
		return httpx.Ack{}, err
	}
	var out httpx.Ack
	err := s.api.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/projects/%d", id), nil, &out)
	return out, err
}

// Export downloads the selected projects as a spreadsheet.
func (s *Service) Export(ctx context.Context, ids []int64) (*httpx.Blob, error) {
	in := exportRequest{IDs: ids}
	if err := s.check(in); err != nil {
		return nil, err
	}
	return s.api.Download(ctx, http.MethodPost, "/api/projects/export", in)
}

// Archived lists archived projects visible to the caller.
func (s *Service) Archived(ctx context.Context) (ArchivedList, error) {
	var out ArchivedList
	err := s.api.Do(ctx, http.MethodGet, "/api/archived-project", nil, &out)
	return out, err
}

// Processes lists the progress of active projects visible to the caller.
func (s *Service) Processes(ctx context.Context) (ProcessList, error) {
	var out ProcessList
	err := s.api.Do(ctx, http.MethodGet, "/api/processes", nil, &out)
	return out, err
}

// Process returns one progress record.
func (s *Service) Process(ctx context.Context, id int64) (Process, error) {
	if err := checkID(id); err != nil {
		return Process{}, err
	}
	var out Process
	err := s.api.Do(ctx, http.MethodGet, fmt.Sprintf("/api/processes/%d", id), nil, &out)
	return out, err
}

// UpdateProcess sets the completion rate, in percent.
func (s *Service) UpdateProcess(ctx context.Context, id int64, completionRate float64) (httpx.Ack, error) {
	if err := checkID(id); err != nil {
		return httpx.Ack{}, err
	}
	in := progressUpdate{CompletionRate: completionRate}
	if err := s.check(in); err != nil {
		return httpx.Ack{}, err
	}
	var out httpx.Ack
	err := s.api.Do(ctx, http.MethodPut, fmt.Sprintf("/api/processes/%d", id), in, &out)
	return out, err
}

func (s *Service) check(in any) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("projects: %w: %v", httpx.ErrValidation, err)
	}
	return nil
}

func checkID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("projects: %w: id must be positive", httpx.ErrValidation)
	}
	return nil
}
