package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const checkUserEmailExists = `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

func (q *Queries) CheckUserEmailExists(ctx context.Context, email string) (bool, error) {
	row := q.db.QueryRow(ctx, checkUserEmailExists, email)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	DisplayName  string
	AvatarUrl    pgtype.Text
	SettingsJson []byte
}

const createUser = `
INSERT INTO users (email, password_hash, display_name, avatar_url, settings_json)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, email, password_hash, display_name, avatar_url, settings_json, created_at, updated_at
`

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.Email, arg.PasswordHash, arg.DisplayName, arg.AvatarUrl, arg.SettingsJson)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.AvatarUrl, &u.SettingsJson, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByEmail = `
SELECT id, email, password_hash, display_name, avatar_url, settings_json, created_at, updated_at
FROM users WHERE email = $1
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.AvatarUrl, &u.SettingsJson, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByID = `
SELECT id, email, password_hash, display_name, avatar_url, settings_json, created_at, updated_at
FROM users WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id pgtype.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.AvatarUrl, &u.SettingsJson, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
