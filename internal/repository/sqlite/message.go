package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/portfolio/pkg/models"
)

const messageColumns = `m.id, m.reason_id, r.purpose, m.name, m.email, m.message, m.date`

func (r *SQLiteRepo) CreateMessage(ctx context.Context, m *models.Message) (int64, error) {
	if m == nil {
		return 0, fmt.Errorf("message is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO messages (reason_id, name, email, message, date) VALUES (?, ?, ?, ?, ?)`, m.ReasonID, m.Name, m.Email, m.Message, ts)
	if err != nil {
		return 0, r.mapErr("create message", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	m.ID = id
	m.Date = fromMillis(ts)
	return id, nil
}

func (r *SQLiteRepo) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages m JOIN reasons r ON r.id = m.reason_id WHERE m.id = ?`, id)
	m, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return m, nil
}

// ListMessages returns messages newest first.
func (r *SQLiteRepo) ListMessages(ctx context.Context, limit, offset int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+messageColumns+` FROM messages m JOIN reasons r ON r.id = m.reason_id ORDER BY m.date DESC, m.id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, *m)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) CountMessages(ctx context.Context) (int64, error) {
	row := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM messages`)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(s scanner) (*models.Message, error) {
	var (
		m    models.Message
		date int64
	)
	if err := s.Scan(&m.ID, &m.ReasonID, &m.Purpose, &m.Name, &m.Email, &m.Message, &date); err != nil {
		return nil, err
	}
	m.Date = fromMillis(date)
	return &m, nil
}
