package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/devYoryet/user-final/internal/identity"
)

// User is the canonical local user record. The store assigns ID on
// creation; ExternalSubjectID is set once and may be backfilled when an
// existing email-only record is first seen with a provider subject.
type User struct {
	ID                uuid.UUID     `db:"id" json:"id"`
	FullName          string        `db:"full_name" json:"fullName"`
	Username          string        `db:"username" json:"username"`
	Email             string        `db:"email" json:"email"`
	Phone             string        `db:"phone" json:"phone"`
	Role              identity.Role `db:"role" json:"role"`
	ExternalSubjectID string        `db:"external_subject_id" json:"externalSubjectId,omitempty"`
	CreatedAt         time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updatedAt"`
}
