package repository

import (
	"context"
	"errors"

	"github.com/garnizeh/portfolio/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
//
// Lookups by id return (nil, nil) when the row does not exist.

// ErrDuplicate is returned when a write violates a unique constraint.
var ErrDuplicate = errors.New("duplicate value")

// ErrNotFound is returned by writes that target a row that does not exist.
var ErrNotFound = errors.New("not found")

type AboutRepo interface {
	CreateAbout(ctx context.Context, a *models.About) (int64, error)
	GetAbout(ctx context.Context, id int64) (*models.About, error)
	ListAbouts(ctx context.Context) ([]models.About, error)
	UpdateAbout(ctx context.Context, a *models.About) error
	DeleteAbout(ctx context.Context, id int64) error
}

type CompetencyRepo interface {
	CreateCompetency(ctx context.Context, c *models.Competency) (int64, error)
	GetCompetency(ctx context.Context, id int64) (*models.Competency, error)
	ListCompetencies(ctx context.Context) ([]models.Competency, error)
	UpdateCompetency(ctx context.Context, c *models.Competency) error
	DeleteCompetency(ctx context.Context, id int64) error
}

type ReasonRepo interface {
	CreateReason(ctx context.Context, r *models.Reason) (int64, error)
	GetReason(ctx context.Context, id int64) (*models.Reason, error)
	ListReasons(ctx context.Context) ([]models.Reason, error)
	UpdateReason(ctx context.Context, r *models.Reason) error
	// DeleteReason removes the reason and every message filed under it.
	DeleteReason(ctx context.Context, id int64) error
}

type MessageRepo interface {
	CreateMessage(ctx context.Context, m *models.Message) (int64, error)
	GetMessage(ctx context.Context, id int64) (*models.Message, error)
	ListMessages(ctx context.Context, limit, offset int) ([]models.Message, error)
	CountMessages(ctx context.Context) (int64, error)
}

type PastWorkRepo interface {
	CreatePastWork(ctx context.Context, p *models.PastWork) (int64, error)
	GetPastWork(ctx context.Context, id int64) (*models.PastWork, error)
	// ListPastWorks returns newest first; limit <= 0 means all rows.
	ListPastWorks(ctx context.Context, limit int) ([]models.PastWork, error)
	CountPastWorks(ctx context.Context) (int64, error)
	UpdatePastWork(ctx context.Context, p *models.PastWork) error
	DeletePastWork(ctx context.Context, id int64) error
}

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id int64) error
}

type JobRepo interface {
	Enqueue(ctx context.Context, j *models.BackgroundJob) (int64, error)
	FetchNext(ctx context.Context) (*models.BackgroundJob, error)
	UpdateJob(ctx context.Context, j *models.BackgroundJob) error
	MoveToDeadLetter(ctx context.Context, j *models.BackgroundJob) error
}

// Portfolio groups every content repository the web layer reads and writes.
type Portfolio interface {
	AboutRepo
	CompetencyRepo
	ReasonRepo
	MessageRepo
	PastWorkRepo
}
