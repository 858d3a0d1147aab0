package db

import (
	"context"
	"database/sql"
)

const usersMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS users (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    full_name text NOT NULL,
    username text NOT NULL,
    email text NOT NULL,
    phone text NOT NULL DEFAULT '',
    role text NOT NULL DEFAULT 'CUSTOMER',
    external_subject_id text,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_unique
ON users (LOWER(email));

CREATE UNIQUE INDEX IF NOT EXISTS users_username_unique
ON users (username);

CREATE UNIQUE INDEX IF NOT EXISTS users_external_subject_unique
ON users (external_subject_id)
WHERE external_subject_id IS NOT NULL;
`

// RunUsersMigration creates the users table and the uniqueness
// constraints the reconciliation engine relies on for race recovery.
func RunUsersMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, usersMigration)
	return err
}
