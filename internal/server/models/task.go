// Package models defines the server-side domain types and their input
// validation rules.
package models

import (
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

// Status is the progress state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

const (
	statusTag   = "oneof=pending in_progress completed"
	priorityTag = "oneof=low medium high"
	titleTag    = "required,min=1,max=255"
)

// Task is a work item owned by exactly one user.
type Task struct {
	ID          int64
	OwnerID     int64
	Title       string
	Description *string
	Status      Status
	Priority    Priority
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTask is the input for creating a task. The owner is always the caller.
type NewTask struct {
	Title       string   `json:"title" validate:"required,min=1,max=255"`
	Description *string  `json:"description"`
	Status      Status   `json:"status" validate:"oneof=pending in_progress completed"`
	Priority    Priority `json:"priority" validate:"oneof=low medium high"`
}

// WithDefaults fills an empty status and priority.
func (n NewTask) WithDefaults() NewTask {
	if n.Status == "" {
		n.Status = StatusPending
	}
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	return n
}

// Validate checks n after defaults have been applied.
func (n NewTask) Validate() error {
	return validateStruct(n)
}

// TaskPatch is a partial update: only Set fields change.
type TaskPatch struct {
	Title       Optional[string]   `json:"title"`
	Description Optional[*string]  `json:"description"`
	Status      Optional[Status]   `json:"status"`
	Priority    Optional[Priority] `json:"priority"`
}

func (p TaskPatch) IsEmpty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Status.Set && !p.Priority.Set
}

// Validate checks every present field with the same rules as NewTask.
// An explicit null is only meaningful for the description.
func (p TaskPatch) Validate() error {
	var errs []error
	if p.Title.Set {
		errs = append(errs, notNullVar("title", p.Title.Null, p.Title.Value, titleTag))
	}
	if p.Status.Set {
		errs = append(errs, notNullVar("status", p.Status.Null, string(p.Status.Value), statusTag))
	}
	if p.Priority.Set {
		errs = append(errs, notNullVar("priority", p.Priority.Null, string(p.Priority.Value), priorityTag))
	}
	return merge(errs...)
}

func notNullVar(field string, null bool, value any, tag string) error {
	if null {
		return common.NewValidationError(field, "must not be null")
	}
	return validateVar(field, value, tag)
}

// Apply returns t with the present fields replaced. Identity, ownership
// and timestamps are left to the caller.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title.Set {
		t.Title = p.Title.Value
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.Status.Set {
		t.Status = p.Status.Value
	}
	if p.Priority.Set {
		t.Priority = p.Priority.Value
	}
	return t
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

// ListOptions filters and pages a task listing. Nil filters are not applied.
type ListOptions struct {
	Status   *Status   `json:"status" validate:"omitnil,oneof=pending in_progress completed"`
	Priority *Priority `json:"priority" validate:"omitnil,oneof=low medium high"`
	Search   *string   `json:"search" validate:"omitnil,min=1"`
	Skip     int       `json:"skip" validate:"gte=0"`
	Limit    int       `json:"limit" validate:"gte=1,lte=100"`
}

// DefaultListOptions returns the first page with no filters.
func DefaultListOptions() ListOptions {
	return ListOptions{Limit: DefaultListLimit}
}

func (o ListOptions) Validate() error {
	return validateStruct(o)
}
