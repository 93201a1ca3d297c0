package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/portfolio/pkg/models"
)

const userColumns = `id, username, email, password_hash, is_active, is_staff, is_superuser, date_joined, last_login`

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO users (username, email, password_hash, is_active, is_staff, is_superuser, date_joined) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.IsActive, u.IsStaff, u.IsSuperuser, ts)
	if err != nil {
		return 0, r.mapErr("create user", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = id
	u.DateJoined = fromMillis(ts)
	return id, nil
}

func (r *SQLiteRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return r.scanUserRow(row)
}

func (r *SQLiteRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return r.scanUserRow(row)
}

func (r *SQLiteRepo) TouchLastLogin(ctx context.Context, id int64) error {
	res, err := r.conn.Exec(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, now(), id)
	if err != nil {
		return r.mapErr("touch last login", err)
	}
	return checkAffected("touch last login", res)
}

func (r *SQLiteRepo) scanUserRow(row *sql.Row) (*models.User, error) {
	var (
		u         models.User
		joined    int64
		lastLogin sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsStaff, &u.IsSuperuser, &joined, &lastLogin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	u.DateJoined = fromMillis(joined)
	if lastLogin.Valid {
		t := fromMillis(lastLogin.Int64)
		u.LastLogin = &t
	}

	return &u, nil
}
