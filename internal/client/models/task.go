// Package models defines client-side data models used by the taskkeeper CLI.
// They mirror the REST API's JSON bodies.
package models

import (
	"net/url"
	"strconv"
	"time"
)

type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTask is the create body. Empty status or priority lets the server
// apply its defaults.
type NewTask struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
	Priority    string  `json:"priority,omitempty"`
}

// TaskPatch is a partial update. Only keys present in the map are sent; a
// nil value for "description" clears it.
type TaskPatch map[string]any

// TaskFilter holds the list query parameters. Zero values are omitted.
type TaskFilter struct {
	Status   string
	Priority string
	Search   string
	Skip     int
	Limit    int
}

// Query renders f as URL query parameters.
func (f TaskFilter) Query() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Priority != "" {
		q.Set("priority", f.Priority)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Skip != 0 {
		q.Set("skip", strconv.Itoa(f.Skip))
	}
	if f.Limit != 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}
