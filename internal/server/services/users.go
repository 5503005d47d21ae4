package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
)

// TokenIssuer signs a session token for subject.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (string, error)
}

// PasswordHasher is the credential store used for registration and login.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	VerifyDummy(password string) bool
}

// AccessToken is the result of a successful login.
type AccessToken struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
}

// UserService handles registration, login and the caller's own account.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	tokens                      TokenIssuer
	hasher                      PasswordHasher
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens TokenIssuer, hasher PasswordHasher, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		tokens:                      tokens,
		hasher:                      hasher,
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Register creates an active account. A taken email or username yields a
// *common.ConflictError.
func (s *UserService) Register(ctx context.Context, in models.Registration) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	user := &models.User{
		Email:        in.Email,
		UserName:     in.UserName,
		FullName:     in.FullName,
		PasswordHash: hash,
		IsActive:     true,
	}
	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login checks the credentials and issues an access token. Unknown users
// and wrong passwords are indistinguishable; a disabled account with the
// right password yields common.ErrorForbidden.
func (s *UserService) Login(ctx context.Context, userName, password string) (*AccessToken, error) {
	user, err := s.repomanager.Users(s.db).GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyDummy(password)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}
	if !user.IsActive {
		return nil, common.ErrorForbidden
	}

	token, err := s.tokens.Issue(user.UserName, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	return &AccessToken{
		AccessToken: token,
		TokenType:   common.TokenType,
		ExpiresIn:   s.accessTokenValidityDuration,
	}, nil
}

// Profile reloads the account by id.
func (s *UserService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// UpdateProfile applies a partial edit to user. An empty edit is a no-op.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, p models.ProfileUpdate) (*models.User, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return user, nil
	}

	merged := p.Apply(*user)
	u, err := s.repomanager.Users(s.db).Update(ctx, &merged)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) || errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return u, nil
}

// DeleteAccount removes the user's tasks and then the user in one
// transaction.
func (s *UserService) DeleteAccount(ctx context.Context, userID int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Tasks(tx).DeleteByOwner(ctx, userID); err != nil {
			return fmt.Errorf("error deleting tasks: %w", err)
		}
		return s.repomanager.Users(tx).Delete(ctx, userID)
	})
}
