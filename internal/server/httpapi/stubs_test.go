package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

var (
	alice    = &models.User{ID: 1, Email: "alice@example.com", UserName: "alice", IsActive: true}
	disabled = &models.User{ID: 3, Email: "carol@example.com", UserName: "carol", IsActive: false}
	created  = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
)

// stubIdentity accepts "tok-<username>" for the users it knows.
type stubIdentity struct {
	users map[string]*models.User
	err   error
}

func newStubIdentity() *stubIdentity {
	return &stubIdentity{users: map[string]*models.User{"alice": alice, "carol": disabled}}
}

func (s *stubIdentity) Authenticate(_ context.Context, token string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	name, ok := strings.CutPrefix(token, "tok-")
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	u, ok := s.users[name]
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	return u, nil
}

func (s *stubIdentity) AuthorizeActive(u *models.User) (*models.User, error) {
	if !u.IsActive {
		return nil, common.ErrorForbidden
	}
	return u, nil
}

// stubTasks keeps tasks in memory, owner scoped, and records its inputs.
type stubTasks struct {
	rows      map[int64]*models.Task
	nextID    int64
	lastOpts  models.ListOptions
	lastPatch models.TaskPatch
	err       error
}

func newStubTasks() *stubTasks {
	return &stubTasks{rows: map[int64]*models.Task{}}
}

func (s *stubTasks) seed(owner int64, title string) *models.Task {
	s.nextID++
	t := &models.Task{ID: s.nextID, OwnerID: owner, Title: title, Status: models.StatusPending, Priority: models.PriorityMedium, CreatedAt: created, UpdatedAt: created}
	s.rows[t.ID] = t
	return t
}

func (s *stubTasks) Create(_ context.Context, ownerID int64, in models.NewTask) (*models.Task, error) {
	in = in.WithDefaults()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t := s.seed(ownerID, in.Title)
	t.Description, t.Status, t.Priority = in.Description, in.Status, in.Priority
	return t, nil
}

func (s *stubTasks) List(_ context.Context, ownerID int64, opts models.ListOptions) ([]*models.Task, error) {
	s.lastOpts = opts
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	out := []*models.Task{}
	for _, t := range s.rows {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubTasks) Get(_ context.Context, ownerID, id int64) (*models.Task, error) {
	t, ok := s.rows[id]
	if !ok || t.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (s *stubTasks) Update(ctx context.Context, ownerID, id int64, patch models.TaskPatch) (*models.Task, error) {
	s.lastPatch = patch
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	t, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	merged := patch.Apply(*t)
	s.rows[id] = &merged
	return &merged, nil
}

func (s *stubTasks) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	delete(s.rows, id)
	return nil
}

type stubUsers struct {
	registerErr error
	deleted     []int64
}

func (s *stubUsers) Register(_ context.Context, in models.Registration) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &models.User{ID: 10, Email: in.Email, UserName: in.UserName, FullName: in.FullName, IsActive: true, CreatedAt: created, UpdatedAt: created}, nil
}

func (s *stubUsers) Login(_ context.Context, userName, password string) (*services.AccessToken, error) {
	switch {
	case userName == "alice" && password == "secret":
		return &services.AccessToken{AccessToken: "tok-alice", TokenType: "bearer", ExpiresIn: 30 * time.Minute}, nil
	case userName == "carol" && password == "secret":
		return nil, common.ErrorForbidden
	default:
		return nil, common.ErrorUnauthorized
	}
}

func (s *stubUsers) Profile(_ context.Context, id int64) (*models.User, error) {
	if id == alice.ID {
		return alice, nil
	}
	return nil, common.ErrorNotFound
}

func (s *stubUsers) UpdateProfile(_ context.Context, u *models.User, p models.ProfileUpdate) (*models.User, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	merged := p.Apply(*u)
	return &merged, nil
}

func (s *stubUsers) DeleteAccount(_ context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

var errDBDown = errors.New("dial tcp: connection refused")

type testAPI struct {
	app   *fiber.App
	ident *stubIdentity
	tasks *stubTasks
	users *stubUsers
}

func newTestAPI(t *testing.T, mutate ...func(*config.Config)) *testAPI {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AuthRateLimit = 0
	for _, m := range mutate {
		m(cfg)
	}

	api := &testAPI{ident: newStubIdentity(), tasks: newStubTasks(), users: &stubUsers{}}
	srv := NewServer(cfg, logging.Nop{}, Deps{
		Identity: api.ident,
		Tasks:    api.tasks,
		Users:    api.users,
		DB:       stubPinger{},
	})
	api.app = srv.App()
	return api
}

func (a *testAPI) do(t *testing.T, method, path, token, body string) (*http.Response, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, string(b)
}
