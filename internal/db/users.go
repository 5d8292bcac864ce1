package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tasklist/backend/internal/model"
)

const userColumns = `id, email, password_hash, sessions, version, created_at, updated_at`

func (db *Postgres) CreateUser(ctx context.Context, user *model.User) error {
	sessions, err := encodeSessions(user.Sessions())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (id, email, password_hash, sessions, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = db.Pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		sessions,
		user.Version,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return mapPgError(err)
}

func (db *Postgres) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, id))
}

func (db *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, email))
}

// UpdateUser locks the user row for the duration of fn so concurrent logins
// append their sessions one after another instead of overwriting each other.
func (db *Postgres) UpdateUser(ctx context.Context, id string, fn func(*model.User) error) (*model.User, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	user, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if err := fn(user); err != nil {
		return nil, err
	}

	sessions, err := encodeSessions(user.Sessions())
	if err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx, `
		UPDATE users
		SET email = $2, password_hash = $3, sessions = $4, version = version + 1, updated_at = $5
		WHERE id = $1
		RETURNING version
	`, user.ID, user.Email, user.PasswordHash, sessions, user.UpdatedAt).Scan(&user.Version)
	if err != nil {
		return nil, mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the user; lists and tasks go with it through ON DELETE CASCADE.
func (db *Postgres) DeleteUser(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		user model.User
		raw  []byte
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&raw,
		&user.Version,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}

	var sessions []model.Session
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &sessions); err != nil {
			return nil, fmt.Errorf("failed to decode sessions for user %s: %w", user.ID, err)
		}
	}
	user.RestoreSessions(sessions)
	return &user, nil
}

func encodeSessions(sessions []model.Session) ([]byte, error) {
	if sessions == nil {
		sessions = []model.Session{}
	}
	raw, err := json.Marshal(sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sessions: %w", err)
	}
	return raw, nil
}
