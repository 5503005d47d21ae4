package client

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/client/models"
)

// Client is the taskkeeper REST API as seen by the CLI.
type Client interface {
	SetToken(token string)
	Ping(ctx context.Context) error
	Register(ctx context.Context, r models.Registration) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.Token, error)
	Me(ctx context.Context) (*models.User, error)
	ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error)
	CreateTask(ctx context.Context, t models.NewTask) (*models.Task, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	UpdateTask(ctx context.Context, id int64, p models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}
