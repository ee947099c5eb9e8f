package tasks

// Status is the state of a task.
type Status string

const (
	StatusInProgress Status = "进行中"
	StatusCompleted  Status = "已完成"
)

// Task as returned by the API. DueDate uses "2006-01-02 15:04:05".
type Task struct {
	ID                 int64  `json:"id"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	DueDate            string `json:"due_date"`
	AssigneeID         int64  `json:"assignee_id"`
	AssigneeName       string `json:"assignee_name"`
	ProjectID          int64  `json:"project_id"`
	ProjectName        string `json:"project_name"`
	ProjectManagerName string `json:"project_manager_name"`
	AttachmentURL      string `json:"attachmentUrl"`
	Status             Status `json:"status"`
}

// List is the envelope of the task listings.
type List struct {
	Total int    `json:"total"`
	Tasks []Task `json:"tasks"`
}

// Input carries the editable fields of a task.
type Input struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	DueDate     string `json:"due_date" validate:"required"`
	AssigneeID  *int64 `json:"assignee_id,omitempty" validate:"omitempty,gt=0"`
	ProjectID   *int64 `json:"project_id" validate:"omitempty,gt=0"`
	Status      Status `json:"status,omitempty"`
}

// Comment is a note left on a task.
type Comment struct {
	ID         int64  `json:"id"`
	TaskID     int64  `json:"task_id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"`
}

// CommentList is the envelope of GET /api/tasks/{id}/comments.
type CommentList struct {
	Message  string    `json:"message"`
	Comments []Comment `json:"comments"`
}

// CommentAck is returned after a comment is stored.
type CommentAck struct {
	Message string  `json:"message"`
	Comment Comment `json:"comment"`
}

// StatusAck is returned after a status change.
type StatusAck struct {
	Message string `json:"message"`
	TaskID  int64  `json:"task_id"`
	Status  Status `json:"status"`
}

type statusUpdate struct {
	Status Status `json:"status" validate:"required"`
}

type commentInput struct {
	Content string `json:"content" validate:"required"`
}
