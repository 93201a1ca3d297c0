package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/portfolio/pkg/models"
)

const pastWorkColumns = `id, name, description, github_link, page_link, date_added, date_modified`

func (r *SQLiteRepo) CreatePastWork(ctx context.Context, p *models.PastWork) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("past work is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO pastworks (name, description, github_link, page_link, date_added, date_modified) VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.GithubLink, nullString(p.PageLink), ts, ts)
	if err != nil {
		return 0, r.mapErr("create past work", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	p.ID = id
	p.DateAdded = fromMillis(ts)
	p.DateModified = p.DateAdded
	return id, nil
}

func (r *SQLiteRepo) GetPastWork(ctx context.Context, id int64) (*models.PastWork, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+pastWorkColumns+` FROM pastworks WHERE id = ?`, id)
	p, err := scanPastWork(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return p, nil
}

func (r *SQLiteRepo) ListPastWorks(ctx context.Context, limit int) ([]models.PastWork, error) {
	// LIMIT -1 means no limit in SQLite
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+pastWorkColumns+` FROM pastworks ORDER BY date_added DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PastWork
	for rows.Next() {
		p, err := scanPastWork(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, *p)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) CountPastWorks(ctx context.Context) (int64, error) {
	row := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM pastworks`)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *SQLiteRepo) UpdatePastWork(ctx context.Context, p *models.PastWork) error {
	if p == nil {
		return fmt.Errorf("past work is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `UPDATE pastworks SET name = ?, description = ?, github_link = ?, page_link = ?, date_modified = ? WHERE id = ?`,
		p.Name, p.Description, p.GithubLink, nullString(p.PageLink), ts, p.ID)
	if err != nil {
		return r.mapErr("update past work", err)
	}
	if err := checkAffected("update past work", res); err != nil {
		return err
	}

	p.DateModified = fromMillis(ts)
	return nil
}

func (r *SQLiteRepo) DeletePastWork(ctx context.Context, id int64) error {
	res, err := r.conn.Exec(ctx, `DELETE FROM pastworks WHERE id = ?`, id)
	if err != nil {
		return r.mapErr("delete past work", err)
	}
	return checkAffected("delete past work", res)
}

func scanPastWork(s scanner) (*models.PastWork, error) {
	var (
		p             models.PastWork
		page          sql.NullString
		added, edited int64
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &p.GithubLink, &page, &added, &edited); err != nil {
		return nil, err
	}

	if page.Valid {
		p.PageLink = page.String
	}
	p.DateAdded = fromMillis(added)
	p.DateModified = fromMillis(edited)
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
