package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/client/client"
	"github.com/dmitrijs2005/taskkeeper/internal/client/models"
	"github.com/dmitrijs2005/taskkeeper/internal/client/repositories/state"
	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

// TaskService wraps the task endpoints. List keeps a copy of the last
// successful result so it can still answer while the server is unreachable.
type TaskService interface {
	List(ctx context.Context, f models.TaskFilter) ([]models.Task, bool, error)
	Create(ctx context.Context, t models.NewTask) (*models.Task, error)
	Get(ctx context.Context, id int64) (*models.Task, error)
	Update(ctx context.Context, id int64, p models.TaskPatch) (*models.Task, error)
	Complete(ctx context.Context, id int64) (*models.Task, error)
	Delete(ctx context.Context, id int64) error
}

type taskService struct {
	client client.Client
	db     *sql.DB
}

func NewTaskService(c client.Client, db *sql.DB) TaskService {
	return &taskService{client: c, db: db}
}

func (s *taskService) repo() state.Repository {
	return state.NewSQLiteRepository(s.db)
}

// cacheKey identifies the cached result of one filter. Encode sorts the
// parameters, so equal filters share a key.
func cacheKey(f models.TaskFilter) string {
	return keyTaskCache + "?" + f.Query().Encode()
}

// List returns the tasks and whether they came from the local cache. Offline,
// only a result fetched earlier with the same filter is served.
func (s *taskService) List(ctx context.Context, f models.TaskFilter) ([]models.Task, bool, error) {
	key := cacheKey(f)

	list, err := s.client.ListTasks(ctx, f)
	if err == nil {
		if b, merr := json.Marshal(list); merr == nil {
			// a failed cache write only costs the offline fallback
			_ = s.repo().Put(ctx, key, b)
		}
		return list, false, nil
	}

	if !errors.Is(err, client.ErrUnavailable) {
		return nil, false, err
	}

	raw, cerr := s.repo().Get(ctx, key)
	if cerr != nil {
		if errors.Is(cerr, common.ErrorNotFound) {
			return nil, false, err
		}
		return nil, false, cerr
	}

	var cached []models.Task
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false, fmt.Errorf("decode cached tasks: %w", err)
	}
	return cached, true, nil
}

// invalidate drops every cached list after a successful write, so an offline
// list never shows a task as it was before the change.
func (s *taskService) invalidate(ctx context.Context) {
	// a failed purge leaves stale lists that the next online list replaces
	_ = s.repo().DeletePrefix(ctx, keyTaskCache)
}

func (s *taskService) Create(ctx context.Context, t models.NewTask) (*models.Task, error) {
	task, err := s.client.CreateTask(ctx, t)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return task, nil
}

func (s *taskService) Get(ctx context.Context, id int64) (*models.Task, error) {
	return s.client.GetTask(ctx, id)
}

func (s *taskService) Update(ctx context.Context, id int64, p models.TaskPatch) (*models.Task, error) {
	task, err := s.client.UpdateTask(ctx, id, p)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return task, nil
}

func (s *taskService) Complete(ctx context.Context, id int64) (*models.Task, error) {
	return s.Update(ctx, id, models.TaskPatch{"status": "completed"})
}

func (s *taskService) Delete(ctx context.Context, id int64) error {
	if err := s.client.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}
