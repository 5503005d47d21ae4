package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
)

// TaskService runs task operations on behalf of an already resolved user.
// The owner id is always the caller's; nothing in the input can change it.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager) *TaskService {
	return &TaskService{db: db, repomanager: m}
}

func (s *TaskService) Create(ctx context.Context, ownerID int64, in models.NewTask) (*models.Task, error) {
	in = in.WithDefaults()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	task := &models.Task{
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
	}
	created, err := s.repomanager.Tasks(s.db).Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}
	return created, nil
}

func (s *TaskService) List(ctx context.Context, ownerID int64, opts models.ListOptions) ([]*models.Task, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Tasks(s.db).List(ctx, ownerID, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}
	return list, nil
}

// Get returns common.ErrorNotFound both for a missing id and for a task
// owned by someone else.
func (s *TaskService) Get(ctx context.Context, ownerID, id int64) (*models.Task, error) {
	return s.repomanager.Tasks(s.db).Get(ctx, ownerID, id)
}

// Update validates patch and applies it to the caller's task. An empty patch
// returns the task untouched without a write.
func (s *TaskService) Update(ctx context.Context, ownerID, id int64, patch models.TaskPatch) (*models.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Tasks(s.db)
	if patch.IsEmpty() {
		return repo.Get(ctx, ownerID, id)
	}
	return repo.Update(ctx, ownerID, id, patch)
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id int64) error {
	return s.repomanager.Tasks(s.db).Delete(ctx, ownerID, id)
}
