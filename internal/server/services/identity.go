package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
)

// TokenVerifier returns the subject of a valid token.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// IdentityService maps a presented bearer token to an active user.
type IdentityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      TokenVerifier
}

func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, tokens TokenVerifier) *IdentityService {
	return &IdentityService{db: db, repomanager: m, tokens: tokens}
}

// Authenticate verifies token and loads the user named by its subject.
// Any token failure and an unknown user both yield common.ErrorUnauthorized.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userName, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	user, err := s.repomanager.Users(s.db).GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return user, nil
}

// AuthorizeActive rejects disabled accounts with common.ErrorForbidden.
func (s *IdentityService) AuthorizeActive(user *models.User) (*models.User, error) {
	if !user.IsActive {
		return nil, common.ErrorForbidden
	}
	return user, nil
}

// Resolve runs Authenticate then AuthorizeActive.
func (s *IdentityService) Resolve(ctx context.Context, token string) (*models.User, error) {
	user, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.AuthorizeActive(user)
}
