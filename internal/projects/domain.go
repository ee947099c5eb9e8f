package projects

// Status is the lifecycle state of a project.
type Status string

// Priority ranks a project.
type Priority string

const (
	StatusInProgress Status = "进行中"
	StatusCompleted  Status = "已完成"
	StatusArchived   Status = "已归档"

	PriorityLow    Priority = "低"
	PriorityNormal Priority = "正常"
	PriorityHigh   Priority = "高"
)

// Project as returned by the API. Dates use "2006-01-02 15:04:05".
type Project struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	ManagerID   int64    `json:"manager_id"`
	ManagerName string   `json:"manager_name"`
}

// List is the envelope of GET /api/projects.
type List struct {
	Total    int       `json:"total"`
	Projects []Project `json:"projects"`
}

// Input carries the editable fields of a project. The manager is always the
// caller, as decided by the server.
type Input struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date" validate:"required"`
	Status      Status   `json:"status,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
}

// Process is the progress record kept for every project.
type Process struct {
	ID             int64   `json:"id"`
	ProjectID      int64   `json:"project_id"`
	ProjectName    string  `json:"project_name"`
	CompletionRate float64 `json:"completion_rate"`
	UpdateTime     string  `json:"update_time"`
}

// ProcessList is the envelope of GET /api/processes.
type ProcessList struct {
	Total     int       `json:"total"`
	Processes []Process `json:"processes"`
}

// Archived is a project moved to the archive.
type Archived struct {
	ID           int64  `json:"id"`
	ProjectID    int64  `json:"project_id"`
	ManagerName  string `json:"manager_name"`
	ProjectName  string `json:"project_name"`
	ArchivedDate string `json:"archived_date"`
}

// ArchivedList is the envelope of GET /api/archived-project.
type ArchivedList struct {
	Total    int        `json:"total"`
	Projects []Archived `json:"projects"`
}

type progressUpdate struct {
	CompletionRate float64 `json:"completion_rate" validate:"gte=0,lte=100"`
}

type exportRequest struct {
	IDs []int64 `json:"ids" validate:"min=1,dive,gt=0"`
}
