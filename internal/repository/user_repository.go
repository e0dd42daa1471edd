package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/pathik-bd/pathik-api/internal/model"
	"github.com/pathik-bd/pathik-api/internal/store"
	"github.com/pathik-bd/pathik-api/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userColumns = "id,email,password_hash,display_name,photo_url,role,is_active,created_at,updated_at"

// Create inserts a user and returns its generated UUID.
func (r *UserRepo) Create(ctx context.Context, email, password, displayName, photoURL, role string, cost int) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, display_name, photo_url, role) VALUES (?,?,?,?,?,?)",
		id, email, hash, displayName, photoURL, role)
	if err != nil {
		if isDuplicate(err) {
			return "", ErrEmailExists
		}
		return "", err
	}
	return id, nil
}

// GetByEmail fetches a user by normalized email.  sql.ErrNoRows is returned
// unchanged so the login handler can answer 401.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return getUser(ctx, r.DB, id)
}

// UpdateProfile changes the public identity fields on the user and on the
// leaderboard row, if there is one.
func (r *UserRepo) UpdateProfile(ctx context.Context, id, displayName, photoURL string) error {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE users SET display_name=?, photo_url=? WHERE id=?", displayName, photoURL, id); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE leaderboard SET display_name=?, photo_url=? WHERE user_id=?", displayName, photoURL, id)
	return err
}

func getUser(ctx context.Context, q querier, id string) (model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, store.ErrUserNotFound
	}
	return u, err
}

func scanUser(s rowScanner) (model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.PhotoURL, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
