package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/client/client"
	"github.com/dmitrijs2005/taskkeeper/internal/client/config"
	"github.com/dmitrijs2005/taskkeeper/internal/client/services"
	"github.com/dmitrijs2005/taskkeeper/internal/filex"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	taskService services.TaskService
	reader      *bufio.Reader
	out         io.Writer

	mu       sync.Mutex
	userName string
	mode     Mode
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	dir, err := filex.EnsureDir(c.StateDir)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, filepath.Join(dir, "state.db"))
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)

	return &App{
		config:      c,
		authService: services.NewAuthService(apiClient, db),
		taskService: services.NewTaskService(apiClient, db),
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != mode {
		a.mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) setUser(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userName = name
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userName != ""
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := strings.TrimSpace(a.userName + " " + string(a.mode))
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// checkOnline probes the server once and updates the mode.
func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.authService.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Run restores any saved session and serves the REPL on stdin until exit.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to taskkeeper CLI (type 'help' for commands)")

	a.checkOnline(ctx)

	name, err := a.authService.Restore(ctx)
	switch {
	case err == nil:
		a.setUser(name)
		fmt.Fprintf(a.out, "Resumed session for %s\n", name)
	case !errors.Is(err, client.ErrLocalDataNotAvailable):
		log.Printf("could not restore session: %v", err)
	}

	if a.config.OnlineCheckInterval > 0 {
		go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader), a.out)
}
