package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/taskkeeper/internal/client/client"
	"github.com/dmitrijs2005/taskkeeper/internal/client/models"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fakeClient struct {
	token string

	loginToken *models.Token
	loginErr   error
	pingErr    error

	tasks     []models.Task
	listErr   error
	lastPatch models.TaskPatch
	updateErr error
}

func (f *fakeClient) SetToken(token string)          { f.token = token }
func (f *fakeClient) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeClient) Register(ctx context.Context, r models.Registration) (*models.User, error) {
	return &models.User{ID: 1, Username: r.Username, Email: r.Email, IsActive: true}, nil
}

func (f *fakeClient) Login(ctx context.Context, username, password string) (*models.Token, error) {
	return f.loginToken, f.loginErr
}

func (f *fakeClient) Me(ctx context.Context) (*models.User, error) {
	return &models.User{ID: 1, Username: "alice"}, nil
}

func (f *fakeClient) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.Task{}
	for _, t := range f.tasks {
		if filter.Status == "" || t.Status == filter.Status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeClient) CreateTask(ctx context.Context, t models.NewTask) (*models.Task, error) {
	return &models.Task{ID: 1, Title: t.Title, Status: "pending", Priority: "medium"}, nil
}

func (f *fakeClient) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			return &f.tasks[i], nil
		}
	}
	return nil, client.ErrNotFound
}

func (f *fakeClient) UpdateTask(ctx context.Context, id int64, p models.TaskPatch) (*models.Task, error) {
	f.lastPatch = p
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.Task{ID: id}, nil
}

func (f *fakeClient) DeleteTask(ctx context.Context, id int64) error { return nil }
