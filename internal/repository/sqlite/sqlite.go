package sqlite

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/garnizeh/portfolio/internal/db"
	"github.com/garnizeh/portfolio/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.AboutRepo = (*SQLiteRepo)(nil)
var _ repository.CompetencyRepo = (*SQLiteRepo)(nil)
var _ repository.ReasonRepo = (*SQLiteRepo)(nil)
var _ repository.MessageRepo = (*SQLiteRepo)(nil)
var _ repository.PastWorkRepo = (*SQLiteRepo)(nil)
var _ repository.UserRepo = (*SQLiteRepo)(nil)
var _ repository.JobRepo = (*SQLiteRepo)(nil)
var _ repository.Portfolio = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

func now() int64 {
	return time.Now().UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// mapErr translates driver constraint errors into repository sentinels.
func (r *SQLiteRepo) mapErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var se *sqlitedrv.Error
	isSQLite := errors.As(err, &se)
	switch {
	case isSQLite && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE,
		strings.Contains(err.Error(), "UNIQUE constraint failed"):
		r.logger.Debug("unique constraint violated", slog.String("op", op), slog.Any("err", err))
		return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
	case isSQLite && se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		r.logger.Debug("foreign key violated", slog.String("op", op), slog.Any("err", err))
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return fmt.Errorf("%s: %w", op, err)
}

// checkAffected reports ErrNotFound when an UPDATE or DELETE touched no rows.
func checkAffected(op string, res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return nil
}
