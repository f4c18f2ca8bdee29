package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrBadCredentials = errors.New("invalid credentials")

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// EnsureUser inserts the user with an already-bcrypted password unless the
// username exists. Used to bootstrap the admin account.
func EnsureUser(ctx context.Context, db *sql.DB, username, role, passHash string) error {
	var exist int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username=$1`, username).Scan(&exist)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
		uuid.NewString(), username, passHash, role, time.Now().Unix())
	return err
}

// CreateUser hashes the password and inserts a new user.
func CreateUser(ctx context.Context, db *sql.DB, username, password, role string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u := User{ID: uuid.NewString(), Username: username, Role: role}
	_, err = db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Username, string(hash), u.Role, time.Now().Unix())
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// Authenticate checks a username/password pair against the users table.
func Authenticate(ctx context.Context, db *sql.DB, username, password string) (User, error) {
	var (
		u    User
		hash string
	)
	err := db.QueryRowContext(ctx,
		`SELECT id, username, role, password_hash FROM users WHERE username=$1`, username,
	).Scan(&u.ID, &u.Username, &u.Role, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrBadCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}

// UserInput is one row of a roster import. Password is plaintext and
// only required for users that do not exist yet.
type UserInput struct {
	ID       string `json:"id"`
	Username string `json:"username" validate:"required,max=100"`
	Role     string `json:"role" validate:"omitempty,role"`
	Password string `json:"password,omitempty"`
}

// UpsertUsers inserts or updates users in one transaction, matching on id or
// username. An empty role means student.
func UpsertUsers(ctx context.Context, db *sql.DB, rows []UserInput) (inserted, updated int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	now := time.Now().Unix()
	for _, r := range rows {
		if r.Role == "" {
			r.Role = "student"
		}
		var hash string
		if r.Password != "" {
			b, herr := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
			if herr != nil {
				return inserted, updated, herr
			}
			hash = string(b)
		}

		var existingID string
		qerr := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id=$1 OR username=$2`, r.ID, r.Username).Scan(&existingID)
		switch {
		case qerr == nil:
			if hash != "" {
				_, err = tx.ExecContext(ctx, `UPDATE users SET username=$1, role=$2, password_hash=$3 WHERE id=$4`,
					r.Username, r.Role, hash, existingID)
			} else {
				_, err = tx.ExecContext(ctx, `UPDATE users SET username=$1, role=$2 WHERE id=$3`,
					r.Username, r.Role, existingID)
			}
			if err != nil {
				return inserted, updated, err
			}
			updated++
		case errors.Is(qerr, sql.ErrNoRows):
			if hash == "" {
				return inserted, updated, fmt.Errorf("password required for new user %q", r.Username)
			}
			if r.ID == "" {
				r.ID = uuid.NewString()
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
				r.ID, r.Username, hash, r.Role, now)
			if err != nil {
				return inserted, updated, err
			}
			inserted++
		default:
			return inserted, updated, qerr
		}
	}
	return inserted, updated, nil
}

// ListUsers returns users ordered by username, optionally filtered by role.
func ListUsers(ctx context.Context, db *sql.DB, role string) ([]User, error) {
	q := `SELECT id, username, role FROM users`
	var args []any
	if role != "" {
		q += ` WHERE role=$1`
		args = append(args, role)
	}
	rows, err := db.QueryContext(ctx, q+` ORDER BY username`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Role); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ChangePassword replaces the password of userID after checking the old one.
func ChangePassword(ctx context.Context, db *sql.DB, userID, oldPassword, newPassword string) error {
	var stored string
	err := db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id=$1`, userID).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBadCredentials
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte(oldPassword)) != nil {
		return ErrBadCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, string(hash), userID)
	return err
}
