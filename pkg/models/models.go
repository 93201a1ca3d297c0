package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Domain models matching the database schema in db/migrations.

type About struct {
	ID        int64  `json:"id" db:"id"`
	Paragraph string `json:"paragraph" db:"paragraph" validate:"required,max=400"`
}

func (a About) String() string {
	r := []rune(a.Paragraph)
	if len(r) > 30 {
		return string(r[:30])
	}
	return a.Paragraph
}

type Competency struct {
	ID    int64  `json:"id" db:"id"`
	Skill string `json:"skill" db:"skill" validate:"required,max=100"`
}

func (c Competency) String() string { return c.Skill }

type Reason struct {
	ID      int64  `json:"id" db:"id"`
	Purpose string `json:"purpose" db:"purpose" validate:"required,max=25"`
}

func (r Reason) String() string { return r.Purpose }

// Message is a visitor's contact submission. Purpose is filled from the
// joined reason row on reads.
type Message struct {
	ID       int64     `json:"id" db:"id"`
	ReasonID int64     `json:"reason_id" db:"reason_id" validate:"required,gt=0"`
	Purpose  string    `json:"purpose,omitempty" db:"-"`
	Name     string    `json:"name" db:"name" validate:"required,max=50"`
	Email    string    `json:"email" db:"email" validate:"required,email,max=254"`
	Message  string    `json:"message" db:"message" validate:"required"`
	Date     time.Time `json:"date" db:"date"`
}

func (m Message) String() string { return fmt.Sprintf("message from %s", m.Email) }

type PastWork struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name" validate:"required,max=50"`
	Description  string    `json:"description" db:"description" validate:"required,max=75"`
	GithubLink   string    `json:"github_link" db:"github_link" validate:"required,max=100"`
	PageLink     string    `json:"page_link,omitempty" db:"page_link" validate:"omitempty,max=100"`
	DateAdded    time.Time `json:"date_added" db:"date_added"`
	DateModified time.Time `json:"date_modified" db:"date_modified"`
}

func (p PastWork) String() string { return p.Name }

type User struct {
	ID           int64      `json:"id" db:"id"`
	Username     string     `json:"username" db:"username" validate:"required,max=150"`
	Email        string     `json:"email" db:"email" validate:"omitempty,email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	IsStaff      bool       `json:"is_staff" db:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser" db:"is_superuser"`
	DateJoined   time.Time  `json:"date_joined" db:"date_joined"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// BackgroundJob is a row of the jobs queue table.
type BackgroundJob struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Priority    int             `json:"priority"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	NextTryAt   *time.Time      `json:"next_try_at,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	Created     time.Time       `json:"created"`
	Updated     time.Time       `json:"updated"`
}
