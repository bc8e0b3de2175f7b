package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

var ErrUserNotFound = errors.New("user not found")
var ErrEmailExists = errors.New("email already exists")
var ErrEmptyPassword = errors.New("password must not be empty")

// DefaultBcryptCost is tuned so one hash takes tens of milliseconds.
const DefaultBcryptCost = 12

// User is the identity record. The password hash is write-only: it is set
// through SetPassword and checked through VerifyPassword, and no accessor
// ever returns it.
type User struct {
	Record
	Name  string
	Email string

	passwordHash string
}

// SetPassword salts and hashes the plaintext with the default cost and
// stores the encoded result. A hashing failure propagates; an empty or weak
// credential is never stored.
func (u *User) SetPassword(plaintext string) error {
	return u.SetPasswordWithCost(plaintext, DefaultBcryptCost)
}

// SetPasswordWithCost is SetPassword with an explicit bcrypt cost factor.
func (u *User) SetPasswordWithCost(plaintext string, cost int) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return err
	}

	u.passwordHash = string(hash)
	return nil
}

// VerifyPassword reports whether the plaintext matches the stored hash. A
// malformed or missing stored hash counts as a mismatch, never an error.
func (u *User) VerifyPassword(plaintext string) bool {
	if u.passwordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(plaintext)) == nil
}

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *User) error {
	if user.passwordHash == "" {
		return ErrEmptyPassword
	}

	query := `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, status
	`

	err := r.db.QueryRowContext(ctx, query, user.Name, user.Email, user.passwordHash).Scan(
		&user.ID, &user.CreatedAt, &user.Status,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return err
	}

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, status
		FROM users
		WHERE id = $1 AND status = 1
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// FindActiveByEmail is the lookup used during login. Soft-deleted users do
// not resolve.
func (r *UserRepository) FindActiveByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, status
		FROM users
		WHERE email = $1 AND status = 1
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetByIDAnyStatus fetches a user regardless of the soft-delete flag. Used
// when token validation is configured not to re-check status per request.
func (r *UserRepository) GetByIDAnyStatus(ctx context.Context, id int64) (*User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, status
		FROM users
		WHERE id = $1
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// SoftDelete flips the status flag to 0 and keeps the row.
func (r *UserRepository) SoftDelete(ctx context.Context, id int64) (*User, error) {
	query := `
		UPDATE users
		SET status = 0
		WHERE id = $1 AND status = 1
		RETURNING id, name, email, password_hash, created_at, status
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// UpdatePassword re-hashes inside a transaction so a failed write rolls back
// before the error surfaces.
func (r *UserRepository) UpdatePassword(ctx context.Context, user *User) error {
	if user.passwordHash == "" {
		return ErrEmptyPassword
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET password_hash = $2 WHERE id = $1 AND status = 1`,
		user.ID, user.passwordHash,
	)
	if err != nil {
		tx.Rollback()
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if rows == 0 {
		tx.Rollback()
		return ErrUserNotFound
	}

	return tx.Commit()
}

func (r *UserRepository) scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.passwordHash, &user.CreatedAt, &user.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
