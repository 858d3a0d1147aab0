package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Domain errors
var (
	ErrNotFound      = errors.New("user: not found")
	ErrNoIdentityKey = errors.New("user: identity carries neither subject nor email")
)

// DuplicateError is a store-level uniqueness violation. The
// reconciliation engine recovers from it locally; it never reaches
// callers of the service.
type DuplicateError struct {
	Field string // "email", "username" or "external_subject_id"
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("user: duplicate %s", e.Field)
}

// SubjectConflictError means a user matched by email is already linked
// to a different external subject. It is surfaced, never auto-resolved.
type SubjectConflictError struct {
	Email    string
	Existing string
	Incoming string
}

func (e *SubjectConflictError) Error() string {
	return fmt.Sprintf(
		"user: %s already linked to subject %s, refusing relink to %s",
		e.Email, e.Existing, e.Incoming,
	)
}

// Store defines the durable keyed storage the reconciliation engine
// depends on. Uniqueness of email (case-insensitive), username, and
// external_subject_id (when present) is enforced store-side; Insert
// reports violations as *DuplicateError.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByExternalSubjectID(ctx context.Context, subject string) (*User, error)
	// FindByEmail matches case-insensitively.
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Insert(ctx context.Context, u *User) (*User, error)
	Update(ctx context.Context, u *User) (*User, error)
}
