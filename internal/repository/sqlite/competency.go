package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/portfolio/pkg/models"
)

func (r *SQLiteRepo) CreateCompetency(ctx context.Context, c *models.Competency) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("competency is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO competencies (skill) VALUES (?)`, c.Skill)
	if err != nil {
		return 0, r.mapErr("create competency", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	c.ID = id
	return id, nil
}

func (r *SQLiteRepo) GetCompetency(ctx context.Context, id int64) (*models.Competency, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, skill FROM competencies WHERE id = ?`, id)
	var c models.Competency
	if err := row.Scan(&c.ID, &c.Skill); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &c, nil
}

func (r *SQLiteRepo) ListCompetencies(ctx context.Context) ([]models.Competency, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, skill FROM competencies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Competency
	for rows.Next() {
		var c models.Competency
		if err := rows.Scan(&c.ID, &c.Skill); err != nil {
			return nil, err
		}

		out = append(out, c)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateCompetency(ctx context.Context, c *models.Competency) error {
	if c == nil {
		return fmt.Errorf("competency is nil")
	}

	res, err := r.conn.Exec(ctx, `UPDATE competencies SET skill = ? WHERE id = ?`, c.Skill, c.ID)
	if err != nil {
		return r.mapErr("update competency", err)
	}
	return checkAffected("update competency", res)
}

func (r *SQLiteRepo) DeleteCompetency(ctx context.Context, id int64) error {
	res, err := r.conn.Exec(ctx, `DELETE FROM competencies WHERE id = ?`, id)
	if err != nil {
		return r.mapErr("delete competency", err)
	}
	return checkAffected("delete competency", res)
}
