package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// Repository persists tasks. Every read and write other than Create is
// scoped by owner: a task belonging to someone else is reported as
// common.ErrorNotFound, exactly like a task that does not exist.
type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	List(ctx context.Context, ownerID int64, opts models.ListOptions) ([]*models.Task, error)
	Get(ctx context.Context, ownerID, id int64) (*models.Task, error)
	Update(ctx context.Context, ownerID, id int64, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id int64) error
	DeleteByOwner(ctx context.Context, ownerID int64) (int64, error)
}
