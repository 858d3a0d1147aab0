package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/devYoryet/user-final/internal/db"
	"github.com/devYoryet/user-final/internal/identity"
)

const userColumns = `id, full_name, username, email, phone, role, external_subject_id, created_at, updated_at`

// PostgresStore is the canonical Store implementation. All serialization
// of concurrent first-sightings is delegated to the database's unique
// constraints; the store holds no locks of its own.
type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (s *PostgresStore) FindByExternalSubjectID(ctx context.Context, subject string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE external_subject_id = $1
	`, subject)
	return scanUser(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)
	return scanUser(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PostgresStore) Insert(ctx context.Context, u *User) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (full_name, username, email, phone, role, external_subject_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns+`
	`,
		u.FullName,
		u.Username,
		u.Email,
		u.Phone,
		u.Role,
		nullableSubject(u.ExternalSubjectID),
		u.CreatedAt,
		u.UpdatedAt,
	)

	created, err := scanUser(row)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return created, nil
}

func (s *PostgresStore) Update(ctx context.Context, u *User) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET full_name = $2,
		    username = $3,
		    email = $4,
		    phone = $5,
		    role = $6,
		    external_subject_id = $7,
		    updated_at = $8
		WHERE id = $1
		RETURNING `+userColumns+`
	`,
		u.ID,
		u.FullName,
		u.Username,
		u.Email,
		u.Phone,
		u.Role,
		nullableSubject(u.ExternalSubjectID),
		u.UpdatedAt,
	)

	updated, err := scanUser(row)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return updated, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u       User
		role    string
		subject sql.NullString
	)
	err := row.Scan(
		&u.ID,
		&u.FullName,
		&u.Username,
		&u.Email,
		&u.Phone,
		&role,
		&subject,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	u.Role = identity.Role(role)
	u.ExternalSubjectID = subject.String
	return &u, nil
}

// external_subject_id is nullable so the partial unique index ignores
// records that were never linked to a provider.
func nullableSubject(subject string) sql.NullString {
	return sql.NullString{String: subject, Valid: subject != ""}
}

// mapUniqueViolation turns a Postgres unique-constraint violation into
// the typed DuplicateError the reconciliation engine recovers from.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}
	return &DuplicateError{Field: fieldForConstraint(pqErr.Constraint)}
}

func fieldForConstraint(constraint string) string {
	switch {
	case strings.Contains(constraint, "email"):
		return "email"
	case strings.Contains(constraint, "username"):
		return "username"
	case strings.Contains(constraint, "external_subject"):
		return "external_subject_id"
	default:
		return constraint
	}
}
