package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// fakeClock hands out strictly increasing instants.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) tick() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[int64]*models.User
	nextID int64
	err    error
}

func newFakeUsersRepo(us ...*models.User) *fakeUsersRepo {
	r := &fakeUsersRepo{byID: map[int64]*models.User{}}
	for _, u := range us {
		r.nextID++
		if u.ID == 0 {
			u.ID = r.nextID
		}
		r.byID[u.ID] = u
	}
	return r
}

func (r *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, o := range r.byID {
		if o.Email == u.Email {
			return nil, &common.ConflictError{Field: "email"}
		}
		if o.UserName == u.UserName {
			return nil, &common.ConflictError{Field: "username"}
		}
	}
	r.nextID++
	cp := *u
	cp.ID = r.nextID
	r.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeUsersRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUsersRepo) GetByUserName(_ context.Context, name string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.byID {
		if u.UserName == name {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) Update(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if _, ok := r.byID[u.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	for _, o := range r.byID {
		if o.ID != u.ID && o.Email == u.Email {
			return nil, &common.ConflictError{Field: "email"}
		}
	}
	cp := *u
	r.byID[u.ID] = &cp
	return u, nil
}

func (r *fakeUsersRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

// fakeTasksRepo mirrors the owner-scoped semantics of the postgres store.
type fakeTasksRepo struct {
	mu       sync.Mutex
	rows     map[int64]models.Task
	nextID   int64
	clock    *fakeClock
	writes   int
	err      error
	purgeErr error
}

func newFakeTasksRepo() *fakeTasksRepo {
	return &fakeTasksRepo{
		rows:  map[int64]models.Task{},
		clock: &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func (r *fakeTasksRepo) Create(_ context.Context, t *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.nextID++
	r.writes++
	t.ID = r.nextID
	t.CreatedAt = r.clock.tick()
	t.UpdatedAt = t.CreatedAt
	r.rows[t.ID] = *t
	return t, nil
}

func (r *fakeTasksRepo) List(_ context.Context, ownerID int64, opts models.ListOptions) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var all []models.Task
	for _, t := range r.rows {
		if t.OwnerID != ownerID {
			continue
		}
		if opts.Status != nil && t.Status != *opts.Status {
			continue
		}
		if opts.Priority != nil && t.Priority != *opts.Priority {
			continue
		}
		if opts.Search != nil && !matches(t, *opts.Search) {
			continue
		}
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	out := make([]*models.Task, 0)
	for i := opts.Skip; i < len(all) && len(out) < opts.Limit; i++ {
		t := all[i]
		out = append(out, &t)
	}
	return out, nil
}

func matches(t models.Task, q string) bool {
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(t.Title), q) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), q)
}

func (r *fakeTasksRepo) Get(_ context.Context, ownerID, id int64) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	t, ok := r.rows[id]
	if !ok || t.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *fakeTasksRepo) Update(_ context.Context, ownerID, id int64, p models.TaskPatch) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[id]
	if !ok || cur.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	r.writes++
	cur = p.Apply(cur)
	cur.UpdatedAt = r.clock.tick()
	r.rows[id] = cur
	out := cur
	return &out, nil
}

func (r *fakeTasksRepo) Delete(_ context.Context, ownerID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok || t.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeTasksRepo) DeleteByOwner(_ context.Context, ownerID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.purgeErr != nil {
		return 0, r.purgeErr
	}
	var n int64
	for id, t := range r.rows {
		if t.OwnerID == ownerID {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	t *fakeTasksRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository          { return m.u }
func (m *fakeRepoManager) Tasks(db dbx.DBTX) tasks.Repository          { return m.t }

var errNoToken = errors.New("no such token")

// stubTokens maps literal tokens to subjects.
type stubTokens map[string]string

func (s stubTokens) Verify(token string) (string, error) {
	sub, ok := s[token]
	if !ok {
		return "", common.ErrInvalidToken
	}
	return sub, nil
}

func (s stubTokens) Issue(subject string, _ time.Duration) (string, error) {
	if subject == "" {
		return "", errNoToken
	}
	return "token-for-" + subject, nil
}
