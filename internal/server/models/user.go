package models

import (
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

// MaxPasswordBytes mirrors the bcrypt input limit.
const MaxPasswordBytes = 72

// User is an account. PasswordHash is an opaque bcrypt string and is never
// serialized to clients.
type User struct {
	ID           int64
	Email        string
	UserName     string
	FullName     *string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Registration is the input for creating an account.
type Registration struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	UserName string  `json:"username" validate:"required,min=3,max=100"`
	Password string  `json:"password" validate:"required,min=6"`
	FullName *string `json:"full_name" validate:"omitnil,max=255"`
}

func (r Registration) Validate() error {
	var tooLong error
	if len(r.Password) > MaxPasswordBytes {
		tooLong = common.NewValidationError("password", "must be at most 72 bytes")
	}
	return merge(validateStruct(r), tooLong)
}

// ProfileUpdate is a partial edit of the caller's own profile.
type ProfileUpdate struct {
	FullName Optional[*string] `json:"full_name"`
	Email    Optional[string]  `json:"email"`
}

func (p ProfileUpdate) IsEmpty() bool {
	return !p.FullName.Set && !p.Email.Set
}

func (p ProfileUpdate) Validate() error {
	var errs []error
	if p.FullName.Set && p.FullName.Value != nil {
		errs = append(errs, validateVar("full_name", *p.FullName.Value, "max=255"))
	}
	if p.Email.Set {
		if p.Email.Null {
			errs = append(errs, common.NewValidationError("email", "must not be null"))
		} else {
			errs = append(errs, validateVar("email", p.Email.Value, "required,email,max=255"))
		}
	}
	return merge(errs...)
}

// Apply returns u with the present fields replaced.
func (p ProfileUpdate) Apply(u User) User {
	if p.FullName.Set {
		u.FullName = p.FullName.Value
	}
	if p.Email.Set {
		u.Email = p.Email.Value
	}
	return u
}
