// Package services contains application services for the taskkeeper client.
// This file defines the session service: register, login, session restore
// from the local database, logout and liveness probe.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/client/client"
	"github.com/dmitrijs2005/taskkeeper/internal/client/models"
	"github.com/dmitrijs2005/taskkeeper/internal/client/repositories/state"
	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
)

const (
	keyUsername  = "username"
	keyToken     = "access_token"
	keyExpiresAt = "expires_at"
	// keyTaskCache prefixes one cached list per query string.
	keyTaskCache = "tasks_cache"
)

// AuthService defines session operations for the CLI.
//
// Contract:
//   - Login: authenticate against the server and persist the token locally.
//   - Restore: reuse a persisted, unexpired token after a restart.
//   - Logout: forget the token and every locally cached value.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Register(ctx context.Context, r models.Registration) (*models.User, error)
	Login(ctx context.Context, username string, password []byte) error
	Restore(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*models.User, error)
	Ping(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
	now    func() time.Time
}

// NewAuthService constructs an AuthService bound to the given API client and DB.
func NewAuthService(c client.Client, db *sql.DB) AuthService {
	return &authService{client: c, db: db, now: time.Now}
}

func (a *authService) Register(ctx context.Context, r models.Registration) (*models.User, error) {
	return a.client.Register(ctx, r)
}

// Login exchanges credentials for a token and replaces all local state with
// the new username, token and expiry in a single transaction. Cached task
// lists of an earlier session are dropped with it.
func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	token, err := a.client.Login(ctx, username, string(password))
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}

	expiresAt := a.now().Add(time.Duration(token.ExpiresIn) * time.Second).UTC()

	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := state.NewSQLiteRepository(tx)
		if err := repo.Clear(ctx); err != nil {
			return err
		}
		if err := repo.Put(ctx, keyUsername, []byte(username)); err != nil {
			return err
		}
		if err := repo.Put(ctx, keyToken, []byte(token.AccessToken)); err != nil {
			return err
		}
		return repo.Put(ctx, keyExpiresAt, []byte(strconv.FormatInt(expiresAt.Unix(), 10)))
	})
	if err != nil {
		return fmt.Errorf("session saving error: %w", err)
	}

	a.client.SetToken(token.AccessToken)
	return nil
}

// Restore loads the saved session. It returns client.ErrLocalDataNotAvailable
// when there is none or it has expired; an expired session is wiped together
// with its cached tasks.
func (a *authService) Restore(ctx context.Context) (string, error) {
	repo := state.NewSQLiteRepository(a.db)

	token, err := repo.Get(ctx, keyToken)
	if errors.Is(err, common.ErrorNotFound) {
		return "", client.ErrLocalDataNotAvailable
	}
	if err != nil {
		return "", err
	}

	raw, err := repo.Get(ctx, keyExpiresAt)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return "", err
	}
	exp, perr := strconv.ParseInt(string(raw), 10, 64)
	if perr != nil || !a.now().Before(time.Unix(exp, 0)) {
		if err := repo.Clear(ctx); err != nil {
			return "", err
		}
		return "", client.ErrLocalDataNotAvailable
	}

	username, err := repo.Get(ctx, keyUsername)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return "", err
	}

	a.client.SetToken(string(token))
	return string(username), nil
}

// Logout clears the in-memory token and all local state.
func (a *authService) Logout(ctx context.Context) error {
	a.client.SetToken("")
	return state.NewSQLiteRepository(a.db).Clear(ctx)
}

func (a *authService) Profile(ctx context.Context) (*models.User, error) {
	return a.client.Me(ctx)
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
