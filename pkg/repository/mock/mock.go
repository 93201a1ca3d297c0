// Package mock provides in-memory implementations of the repository
// contracts for handler and worker tests.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/garnizeh/portfolio/pkg/models"
	"github.com/garnizeh/portfolio/pkg/repository"
)

// Store is an in-memory repository. Setting Err makes every call fail with it.
type Store struct {
	mu  sync.Mutex
	Err error

	seq        int64
	Abouts     map[int64]models.About
	Skills     map[int64]models.Competency
	Reasons    map[int64]models.Reason
	Messages   map[int64]models.Message
	PastWorks  map[int64]models.PastWork
	Users      map[int64]models.User
	Jobs       map[int64]models.BackgroundJob
	DeadLetter []models.BackgroundJob
}

var _ repository.Portfolio = (*Store)(nil)
var _ repository.UserRepo = (*Store)(nil)
var _ repository.JobRepo = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		Abouts:    map[int64]models.About{},
		Skills:    map[int64]models.Competency{},
		Reasons:   map[int64]models.Reason{},
		Messages:  map[int64]models.Message{},
		PastWorks: map[int64]models.PastWork{},
		Users:     map[int64]models.User{},
		Jobs:      map[int64]models.BackgroundJob{},
	}
}

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// About

func (s *Store) CreateAbout(ctx context.Context, a *models.About) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	a.ID = s.next()
	s.Abouts[a.ID] = *a
	return a.ID, nil
}

func (s *Store) GetAbout(ctx context.Context, id int64) (*models.About, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	a, ok := s.Abouts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *Store) ListAbouts(ctx context.Context) ([]models.About, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.About
	for _, k := range sortedKeys(s.Abouts) {
		out = append(out, s.Abouts[k])
	}
	return out, nil
}

func (s *Store) UpdateAbout(ctx context.Context, a *models.About) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.Abouts[a.ID]; !ok {
		return notFound("update about")
	}
	s.Abouts[a.ID] = *a
	return nil
}

func (s *Store) DeleteAbout(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.Abouts[id]; !ok {
		return notFound("delete about")
	}
	delete(s.Abouts, id)
	return nil
}

// Competency

func (s *Store) CreateCompetency(ctx context.Context, c *models.Competency) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	c.ID = s.next()
	s.Skills[c.ID] = *c
	return c.ID, nil
}

func (s *Store) GetCompetency(ctx context.Context, id int64) (*models.Competency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	c, ok := s.Skills[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) ListCompetencies(ctx context.Context) ([]models.Competency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.Competency
	for _, k := range sortedKeys(s.Skills) {
		out = append(out, s.Skills[k])
	}
	return out, nil
}

func (s *Store) UpdateCompetency(ctx context.Context, c *models.Competency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.Skills[c.ID]; !ok {
		return notFound("update competency")
	}
	s.Skills[c.ID] = *c
	return nil
}

func (s *Store) DeleteCompetency(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.Skills[id]; !ok {
		return notFound("delete competency")
	}
	delete(s.Skills, id)
	return nil
}

// Reason

func (s *Store) CreateReason(ctx context.Context, r *models.Reason) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	r.ID = s.next()
	s.Reasons[r.ID] = *r
	return r.ID, nil
}

func (s *Store) GetReason(ctx context.Context, id int64) (*models.Reason, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	r, ok := s.Reasons[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *Store) ListReasons(ctx context.Context) ([]models.Reason, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.Reason
	for _, k := range sortedKeys(s.Reasons) {
		out = append(out, s.Reasons[k])
	}
	return out, nil
}

func (s *Store) UpdateReason(ctx context.Context, r *models.Reason) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.Reasons[r.ID]; !ok {
		return notFound("update reason")
	}
	s.Reasons[r.ID] = *r
	return nil
}

func (s *Store) DeleteReason(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.Reasons[id]; !ok {
		return notFound("delete reason")
	}
	delete(s.Reasons, id)
	for mid, m := range s.Messages {
		if m.ReasonID == id {
			delete(s.Messages, mid)
		}
	}
	return nil
}

// Message

func (s *Store) CreateMessage(ctx context.Context, m *models.Message) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	if _, ok := s.Reasons[m.ReasonID]; !ok {
		return 0, notFound("create message")
	}
	m.ID = s.next()
	m.Date = time.Now().UTC()
	s.Messages[m.ID] = *m
	return m.ID, nil
}

func (s *Store) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	m, ok := s.Messages[id]
	if !ok {
		return nil, nil
	}
	m.Purpose = s.Reasons[m.ReasonID].Purpose
	return &m, nil
}

func (s *Store) ListMessages(ctx context.Context, limit, offset int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	keys := sortedKeys(s.Messages)
	var out []models.Message
	for i := len(keys) - 1; i >= 0; i-- {
		m := s.Messages[keys[i]]
		m.Purpose = s.Reasons[m.ReasonID].Purpose
		out = append(out, m)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CountMessages(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return int64(len(s.Messages)), nil
}

// PastWork

func (s *Store) pastWorkTaken(p *models.PastWork) bool {
	for id, o := range s.PastWorks {
		if id != p.ID && (o.Name == p.Name || o.GithubLink == p.GithubLink) {
			return true
		}
	}
	return false
}

func (s *Store) CreatePastWork(ctx context.Context, p *models.PastWork) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	if s.pastWorkTaken(p) {
		return 0, fmt.Errorf("create past work: %w", repository.ErrDuplicate)
	}
	p.ID = s.next()
	p.DateAdded = time.Now().UTC()
	p.DateModified = p.DateAdded
	s.PastWorks[p.ID] = *p
	return p.ID, nil
}

func (s *Store) GetPastWork(ctx context.Context, id int64) (*models.PastWork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.PastWorks[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) ListPastWorks(ctx context.Context, limit int) ([]models.PastWork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	keys := sortedKeys(s.PastWorks)
	var out []models.PastWork
	for i := len(keys) - 1; i >= 0; i-- {
		out = append(out, s.PastWorks[keys[i]])
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CountPastWorks(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return int64(len(s.PastWorks)), nil
}

func (s *Store) UpdatePastWork(ctx context.Context, p *models.PastWork) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	old, ok := s.PastWorks[p.ID]
	if !ok {
		return notFound("update past work")
	}
	if s.pastWorkTaken(p) {
		return fmt.Errorf("update past work: %w", repository.ErrDuplicate)
	}
	p.DateAdded = old.DateAdded
	p.DateModified = time.Now().UTC()
	s.PastWorks[p.ID] = *p
	return nil
}

func (s *Store) DeletePastWork(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.PastWorks[id]; !ok {
		return notFound("delete past work")
	}
	delete(s.PastWorks, id)
	return nil
}

// User

func (s *Store) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	for _, o := range s.Users {
		if o.Username == u.Username {
			return 0, fmt.Errorf("create user: %w", repository.ErrDuplicate)
		}
	}
	u.ID = s.next()
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
	s.Users[u.ID] = *u
	return u.ID, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.Users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.Users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.Users[id]
	if !ok {
		return notFound("touch last login")
	}
	now := time.Now().UTC()
	u.LastLogin = &now
	s.Users[id] = u
	return nil
}

// Jobs

func (s *Store) Enqueue(ctx context.Context, j *models.BackgroundJob) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	if j.MaxAttempts == 0 {
		j.MaxAttempts = 5
	}
	if j.ScheduledAt.IsZero() {
		j.ScheduledAt = time.Now()
	}
	j.ID = s.next()
	j.Status = "queued"
	s.Jobs[j.ID] = *j
	return j.ID, nil
}

func (s *Store) FetchNext(ctx context.Context) (*models.BackgroundJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	now := time.Now()
	var best *models.BackgroundJob
	for _, k := range sortedKeys(s.Jobs) {
		j := s.Jobs[k]
		if j.Status != "queued" && j.Status != "retry" {
			continue
		}
		if j.NextTryAt != nil && j.NextTryAt.After(now) {
			continue
		}
		if j.ScheduledAt.After(now) {
			continue
		}
		if best == nil || j.Priority < best.Priority {
			cp := j
			best = &cp
		}
	}
	if best == nil {
		return nil, nil
	}
	best.Status = "running"
	s.Jobs[best.ID] = *best
	return best, nil
}

func (s *Store) UpdateJob(ctx context.Context, j *models.BackgroundJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Jobs[j.ID] = *j
	return nil
}

func (s *Store) MoveToDeadLetter(ctx context.Context, j *models.BackgroundJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.Jobs, j.ID)
	s.DeadLetter = append(s.DeadLetter, *j)
	return nil
}

func (s *Store) RequeueRunning(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for id, j := range s.Jobs {
		if j.Status == "running" {
			j.Status = "queued"
			s.Jobs[id] = j
			n++
		}
	}
	return n, nil
}

// JobsByStatus returns a snapshot of jobs in the given status.
func (s *Store) JobsByStatus(status string) []models.BackgroundJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.BackgroundJob
	for _, k := range sortedKeys(s.Jobs) {
		if s.Jobs[k].Status == status {
			out = append(out, s.Jobs[k])
		}
	}
	return out
}

// DeadLetters returns a snapshot of dead-lettered jobs.
func (s *Store) DeadLetters() []models.BackgroundJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.BackgroundJob(nil), s.DeadLetter...)
}

// SetErr switches failure injection on or off.
func (s *Store) SetErr(err error) {
	s.mu.Lock()
	s.Err = err
	s.mu.Unlock()
}
