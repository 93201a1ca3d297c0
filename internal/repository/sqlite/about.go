package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/portfolio/pkg/models"
)

func (r *SQLiteRepo) CreateAbout(ctx context.Context, a *models.About) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("about is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO abouts (paragraph) VALUES (?)`, a.Paragraph)
	if err != nil {
		return 0, r.mapErr("create about", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

func (r *SQLiteRepo) GetAbout(ctx context.Context, id int64) (*models.About, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, paragraph FROM abouts WHERE id = ?`, id)
	var a models.About
	if err := row.Scan(&a.ID, &a.Paragraph); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &a, nil
}

func (r *SQLiteRepo) ListAbouts(ctx context.Context) ([]models.About, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, paragraph FROM abouts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.About
	for rows.Next() {
		var a models.About
		if err := rows.Scan(&a.ID, &a.Paragraph); err != nil {
			return nil, err
		}

		out = append(out, a)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateAbout(ctx context.Context, a *models.About) error {
	if a == nil {
		return fmt.Errorf("about is nil")
	}

	res, err := r.conn.Exec(ctx, `UPDATE abouts SET paragraph = ? WHERE id = ?`, a.Paragraph, a.ID)
	if err != nil {
		return r.mapErr("update about", err)
	}
	return checkAffected("update about", res)
}

func (r *SQLiteRepo) DeleteAbout(ctx context.Context, id int64) error {
	res, err := r.conn.Exec(ctx, `DELETE FROM abouts WHERE id = ?`, id)
	if err != nil {
		return r.mapErr("delete about", err)
	}
	return checkAffected("delete about", res)
}
