package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/portfolio/pkg/models"
	"github.com/garnizeh/portfolio/pkg/repository"
)

func (r *SQLiteRepo) CreateReason(ctx context.Context, rs *models.Reason) (int64, error) {
	if rs == nil {
		return 0, fmt.Errorf("reason is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO reasons (purpose) VALUES (?)`, rs.Purpose)
	if err != nil {
		return 0, r.mapErr("create reason", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	rs.ID = id
	return id, nil
}

func (r *SQLiteRepo) GetReason(ctx context.Context, id int64) (*models.Reason, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, purpose FROM reasons WHERE id = ?`, id)
	var rs models.Reason
	if err := row.Scan(&rs.ID, &rs.Purpose); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &rs, nil
}

func (r *SQLiteRepo) ListReasons(ctx context.Context) ([]models.Reason, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, purpose FROM reasons ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Reason
	for rows.Next() {
		var rs models.Reason
		if err := rows.Scan(&rs.ID, &rs.Purpose); err != nil {
			return nil, err
		}

		out = append(out, rs)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateReason(ctx context.Context, rs *models.Reason) error {
	if rs == nil {
		return fmt.Errorf("reason is nil")
	}

	res, err := r.conn.Exec(ctx, `UPDATE reasons SET purpose = ? WHERE id = ?`, rs.Purpose, rs.ID)
	if err != nil {
		return r.mapErr("update reason", err)
	}
	return checkAffected("update reason", res)
}

// DeleteReason removes the reason and its messages in one transaction. The
// schema cascades too; the explicit delete keeps the invariant when foreign
// keys are disabled on the connection.
func (r *SQLiteRepo) DeleteReason(ctx context.Context, id int64) error {
	return r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE reason_id = ?`, id); err != nil {
			return r.mapErr("delete reason messages", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM reasons WHERE id = ?`, id)
		if err != nil {
			return r.mapErr("delete reason", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("delete reason: %w", repository.ErrNotFound)
		}
		return nil
	})
}
