package jobs

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskExportUsers exports selected accounts to a spreadsheet.
	TaskExportUsers = "export:users"
	// TaskExportProjects exports selected projects to a spreadsheet.
	TaskExportProjects = "export:projects"
)

// ErrEmptySelection is returned when an export names no records.
var ErrEmptySelection = errors.New("jobs: export selection is empty")

// ExportPayload selects the records to export.
type ExportPayload struct {
	IDs         []int64 `json:"ids"`
	RequestedBy string  `json:"requested_by,omitempty"`
}

// NewExportUsersTask constructs a TaskExportUsers task.
func NewExportUsersTask(payload ExportPayload) (*asynq.Task, error) {
	return newExportTask(TaskExportUsers, payload)
}

// NewExportProjectsTask constructs a TaskExportProjects task.
func NewExportProjectsTask(payload ExportPayload) (*asynq.Task, error) {
	return newExportTask(TaskExportProjects, payload)
}

func newExportTask(kind string, payload ExportPayload) (*asynq.Task, error) {
	if len(payload.IDs) == 0 {
		return nil, ErrEmptySelection
	}
	for _, id := range payload.IDs {
		if id <= 0 {
			return nil, fmt.Errorf("jobs: invalid id %d", id)
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(kind, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

func decodeExport(t *asynq.Task) (ExportPayload, error) {
	var payload ExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return ExportPayload{}, fmt.Errorf("jobs: decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if len(payload.IDs) == 0 {
		return ExportPayload{}, fmt.Errorf("%w: %w", ErrEmptySelection, asynq.SkipRetry)
	}
	return payload, nil
}

// ScheduledExports registers periodic exports of fixed selections. An empty
// spec or selection schedules nothing.
func ScheduledExports(spec string, userIDs, projectIDs []int64) ([]CronRegistration, error) {
	if spec == "" {
		return nil, nil
	}
	var out []CronRegistration
	if len(userIDs) > 0 {
		task, err := NewExportUsersTask(ExportPayload{IDs: userIDs, RequestedBy: "schedule"})
		if err != nil {
			return nil, err
		}
		out = append(out, CronRegistration{Spec: spec, Task: task})
	}
	if len(projectIDs) > 0 {
		task, err := NewExportProjectsTask(ExportPayload{IDs: projectIDs, RequestedBy: "schedule"})
		if err != nil {
			return nil, err
		}
		out = append(out, CronRegistration{Spec: spec, Task: task})
	}
	return out, nil
}
