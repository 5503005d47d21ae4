package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/client/client"
	"github.com/dmitrijs2005/taskkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	regIn    models.Registration
	loginPwd string
	loginErr error
	restored string
	loggedIn bool
	pingErr  error
}

func (f *fakeAuth) Register(ctx context.Context, r models.Registration) (*models.User, error) {
	f.regIn = r
	return &models.User{ID: 9, Username: r.Username}, nil
}

func (f *fakeAuth) Login(ctx context.Context, username string, password []byte) error {
	f.loginPwd = string(password)
	if f.loginErr != nil {
		return f.loginErr
	}
	f.loggedIn = true
	return nil
}

func (f *fakeAuth) Restore(ctx context.Context) (string, error) {
	if f.restored == "" {
		return "", client.ErrLocalDataNotAvailable
	}
	return f.restored, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.loggedIn = false
	return nil
}

func (f *fakeAuth) Profile(ctx context.Context) (*models.User, error) {
	name := "Alice"
	return &models.User{ID: 1, Username: "alice", Email: "alice@example.com", FullName: &name, IsActive: true}, nil
}

func (f *fakeAuth) Ping(ctx context.Context) error { return f.pingErr }

type fakeTasks struct {
	list      []models.Task
	cached    bool
	lastF     models.TaskFilter
	created   models.NewTask
	lastID    int64
	lastPatch models.TaskPatch
	completed int64
	deleted   int64
}

func (f *fakeTasks) List(ctx context.Context, flt models.TaskFilter) ([]models.Task, bool, error) {
	f.lastF = flt
	return f.list, f.cached, nil
}

func (f *fakeTasks) Create(ctx context.Context, t models.NewTask) (*models.Task, error) {
	f.created = t
	return &models.Task{ID: 42, Title: t.Title}, nil
}

func (f *fakeTasks) Get(ctx context.Context, id int64) (*models.Task, error) {
	f.lastID = id
	desc := "2 liters"
	return &models.Task{ID: id, Title: "Buy milk", Description: &desc, Status: "pending", Priority: "high"}, nil
}

func (f *fakeTasks) Update(ctx context.Context, id int64, p models.TaskPatch) (*models.Task, error) {
	f.lastID, f.lastPatch = id, p
	return &models.Task{ID: id, Title: "updated", Status: "pending", Priority: "medium"}, nil
}

func (f *fakeTasks) Complete(ctx context.Context, id int64) (*models.Task, error) {
	f.completed = id
	return &models.Task{ID: id, Status: "completed"}, nil
}

func (f *fakeTasks) Delete(ctx context.Context, id int64) error {
	f.deleted = id
	return nil
}

func newTestApp(input string) (*App, *fakeAuth, *fakeTasks, *bytes.Buffer) {
	fa, ft := &fakeAuth{}, &fakeTasks{}
	out := &bytes.Buffer{}
	return &App{
		authService: fa,
		taskService: ft,
		reader:      bufio.NewReader(strings.NewReader(input)),
		out:         out,
	}, fa, ft, out
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}

func TestRegister_PromptsAndSkipsEmptyFullName(t *testing.T) {
	stubPassword(t, "secret1")
	app, fa, _, out := newTestApp("dave@example.com\ndave\n\n")

	require.NoError(t, app.Register(context.Background()))
	assert.Equal(t, models.Registration{Email: "dave@example.com", Username: "dave", Password: "secret1"}, fa.regIn)
	assert.Contains(t, out.String(), "Registered dave (id 9)")
	assert.False(t, app.isLoggedIn(), "register does not log in")
}

func TestLoginLogout(t *testing.T) {
	stubPassword(t, "secret")
	app, fa, _, out := newTestApp("alice\n")
	ctx := context.Background()

	require.NoError(t, app.Login(ctx))
	assert.Equal(t, "secret", fa.loginPwd)
	assert.True(t, app.isLoggedIn())
	assert.Equal(t, "(alice)", app.getStatus())

	require.NoError(t, app.Logout(ctx))
	assert.False(t, app.isLoggedIn())
	assert.Contains(t, out.String(), "Logged out")
}

func TestLogin_Failure(t *testing.T) {
	stubPassword(t, "nope")
	app, fa, _, _ := newTestApp("alice\n")
	fa.loginErr = &client.APIError{StatusCode: 401, Message: "Incorrect username or password"}

	err := app.Login(context.Background())
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.False(t, app.isLoggedIn())
}

func TestMe(t *testing.T) {
	app, _, _, out := newTestApp("")
	require.NoError(t, app.Me(context.Background()))
	assert.Contains(t, out.String(), "alice <alice@example.com>")
	assert.Contains(t, out.String(), "Name:    Alice")
}

func TestList_FiltersAndTable(t *testing.T) {
	app, _, ft, out := newTestApp("")
	ft.list = []models.Task{{ID: 1, Title: "Buy milk", Status: "pending", Priority: "high"}}

	require.NoError(t, app.List(context.Background(), []string{"status=pending", "search=milk", "limit=5"}))
	assert.Equal(t, models.TaskFilter{Status: "pending", Search: "milk", Limit: 5}, ft.lastF)
	assert.Contains(t, out.String(), "ID  STATUS   PRIORITY  TITLE")
	assert.Contains(t, out.String(), "1   pending  high      Buy milk")
}

func TestList_Cached(t *testing.T) {
	app, _, ft, out := newTestApp("")
	ft.cached = true

	require.NoError(t, app.List(context.Background(), nil))
	assert.Contains(t, out.String(), "(offline: showing the last fetched list)")
	assert.Contains(t, out.String(), "No tasks")
}

func TestList_BadArgs(t *testing.T) {
	app, _, _, _ := newTestApp("")
	ctx := context.Background()

	assert.ErrorContains(t, app.List(ctx, []string{"owner=2"}), `unknown key "owner"`)
	assert.ErrorContains(t, app.List(ctx, []string{"pending"}), "expected key=value")
	assert.ErrorContains(t, app.List(ctx, []string{"limit=ten"}), "limit must be an integer")
}

func TestAdd(t *testing.T) {
	app, _, ft, out := newTestApp("Buy milk\n\nhigh\n")

	require.NoError(t, app.Add(context.Background()))
	assert.Equal(t, models.NewTask{Title: "Buy milk", Priority: "high"}, ft.created)
	assert.Contains(t, out.String(), "Created task #42")
}

func TestShow(t *testing.T) {
	app, _, ft, out := newTestApp("")

	require.NoError(t, app.Show(context.Background(), []string{"7"}))
	assert.Equal(t, int64(7), ft.lastID)
	assert.Contains(t, out.String(), "#7 Buy milk")
	assert.Contains(t, out.String(), "  2 liters")

	assert.ErrorIs(t, app.Show(context.Background(), nil), errUsageID)
	assert.ErrorIs(t, app.Show(context.Background(), []string{"abc"}), errUsageID)
}

func TestUpdate_BuildsPatch(t *testing.T) {
	app, _, ft, _ := newTestApp("")

	require.NoError(t, app.Update(context.Background(), []string{"5", "title=Buy oat milk", "description="}))
	assert.Equal(t, int64(5), ft.lastID)
	assert.Equal(t, models.TaskPatch{"title": "Buy oat milk", "description": nil}, ft.lastPatch)

	assert.EqualError(t, app.Update(context.Background(), []string{"5"}), "nothing to update")
	assert.Error(t, app.Update(context.Background(), []string{"5", "owner_id=2"}))
}

func TestDoneAndDelete(t *testing.T) {
	app, _, ft, out := newTestApp("")
	ctx := context.Background()

	require.NoError(t, app.Done(ctx, []string{"3"}))
	require.NoError(t, app.Delete(ctx, []string{"4"}))
	assert.Equal(t, int64(3), ft.completed)
	assert.Equal(t, int64(4), ft.deleted)
	assert.Contains(t, out.String(), "Task #3 completed")
	assert.Contains(t, out.String(), "Task #4 deleted")
}

func TestCheckOnline_SwitchesMode(t *testing.T) {
	app, fa, _, _ := newTestApp("")
	ctx := context.Background()

	app.checkOnline(ctx)
	assert.Equal(t, "(online)", app.getStatus())

	fa.pingErr = client.ErrUnavailable
	app.checkOnline(ctx)
	assert.Equal(t, "(offline)", app.getStatus())
}

func TestStartOnlineStatusWatcher_StopsOnCancel(t *testing.T) {
	app, _, _, _ := newTestApp("")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		app.StartOnlineStatusWatcher(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Equal(t, "(online)", app.getStatus())
}
