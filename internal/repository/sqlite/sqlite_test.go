package sqlite_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/portfolio/internal/dbtest"
	sqlite "github.com/garnizeh/portfolio/internal/repository/sqlite"
	"github.com/garnizeh/portfolio/pkg/models"
	"github.com/garnizeh/portfolio/pkg/repository"
)

func setupRepo(t *testing.T) *sqlite.SQLiteRepo {
	t.Helper()
	return sqlite.New(dbtest.New(t), nil)
}

func TestAboutCRUD(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	// nil about should error
	if _, err := repo.CreateAbout(ctx, nil); err == nil {
		t.Fatalf("expected error when creating nil about")
	}

	// Non-existing ID should return nil, nil
	got, err := repo.GetAbout(ctx, 9999)
	if err != nil {
		t.Fatalf("expected no error when getting non-existing ID: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil when getting non-existing ID got: %#v", got)
	}

	a := &models.About{Paragraph: "I am a backend developer"}
	id, err := repo.CreateAbout(ctx, a)
	if err != nil {
		t.Fatalf("CreateAbout error: %v", err)
	}
	if id == 0 || a.ID != id {
		t.Fatalf("expected id to be set, got id=%d a.ID=%d", id, a.ID)
	}

	got, err = repo.GetAbout(ctx, id)
	if err != nil {
		t.Fatalf("GetAbout error: %v", err)
	}
	if got == nil || got.Paragraph != a.Paragraph {
		t.Fatalf("GetAbout wrong result: %#v", got)
	}

	got.Paragraph = "Edited I am a backend developer"
	if err := repo.UpdateAbout(ctx, got); err != nil {
		t.Fatalf("UpdateAbout error: %v", err)
	}

	list, err := repo.ListAbouts(ctx)
	if err != nil {
		t.Fatalf("ListAbouts error: %v", err)
	}
	if len(list) != 1 || list[0].Paragraph != "Edited I am a backend developer" {
		t.Fatalf("ListAbouts wrong result: %#v", list)
	}

	if err := repo.DeleteAbout(ctx, id); err != nil {
		t.Fatalf("DeleteAbout error: %v", err)
	}
	if err := repo.DeleteAbout(ctx, id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
	if err := repo.UpdateAbout(ctx, &models.About{ID: id, Paragraph: "x"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating deleted row, got %v", err)
	}
}

func TestCompetencyCRUD(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	skills := []string{"Development and Source Control (Docker, Git, Github)", "Devops"}
	var ids []int64
	for _, s := range skills {
		id, err := repo.CreateCompetency(ctx, &models.Competency{Skill: s})
		if err != nil {
			t.Fatalf("CreateCompetency(%q) error: %v", s, err)
		}
		ids = append(ids, id)
	}

	list, err := repo.ListCompetencies(ctx)
	if err != nil {
		t.Fatalf("ListCompetencies error: %v", err)
	}
	if len(list) != 2 || list[0].Skill != skills[0] || list[1].Skill != skills[1] {
		t.Fatalf("ListCompetencies wrong order or content: %#v", list)
	}

	if err := repo.UpdateCompetency(ctx, &models.Competency{ID: ids[0], Skill: "Kubernetes"}); err != nil {
		t.Fatalf("UpdateCompetency error: %v", err)
	}
	got, err := repo.GetCompetency(ctx, ids[0])
	if err != nil || got == nil || got.Skill != "Kubernetes" {
		t.Fatalf("GetCompetency after update: %#v err=%v", got, err)
	}

	if err := repo.DeleteCompetency(ctx, ids[1]); err != nil {
		t.Fatalf("DeleteCompetency error: %v", err)
	}
	if got, _ := repo.GetCompetency(ctx, ids[1]); got != nil {
		t.Fatalf("expected nil after delete got: %#v", got)
	}
}

func TestDeleteReasonCascadesMessages(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	hire := &models.Reason{Purpose: "I want to hire you"}
	if _, err := repo.CreateReason(ctx, hire); err != nil {
		t.Fatalf("CreateReason error: %v", err)
	}
	hello := &models.Reason{Purpose: "Just saying hello"}
	if _, err := repo.CreateReason(ctx, hello); err != nil {
		t.Fatalf("CreateReason error: %v", err)
	}

	for _, rid := range []int64{hire.ID, hire.ID, hello.ID} {
		m := &models.Message{ReasonID: rid, Name: "Jane Doe", Email: "jane@doe.com", Message: "Hey Dele"}
		if _, err := repo.CreateMessage(ctx, m); err != nil {
			t.Fatalf("CreateMessage error: %v", err)
		}
	}

	if err := repo.DeleteReason(ctx, hire.ID); err != nil {
		t.Fatalf("DeleteReason error: %v", err)
	}

	cnt, err := repo.CountMessages(ctx)
	if err != nil {
		t.Fatalf("CountMessages error: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected 1 message to survive, got %d", cnt)
	}

	if err := repo.DeleteReason(ctx, hire.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting missing reason, got %v", err)
	}
}

func TestMessageCreateAndList(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	reason := &models.Reason{Purpose: "I want to hire you"}
	if _, err := repo.CreateReason(ctx, reason); err != nil {
		t.Fatalf("CreateReason error: %v", err)
	}

	// unknown reason violates the foreign key
	if _, err := repo.CreateMessage(ctx, &models.Message{ReasonID: 999, Name: "x", Email: "x@y.z", Message: "m"}); err == nil {
		t.Fatalf("expected error for message with unknown reason")
	}

	first := &models.Message{ReasonID: reason.ID, Name: "Jane Doe", Email: "jane@doe.com", Message: "Hey Dele"}
	if _, err := repo.CreateMessage(ctx, first); err != nil {
		t.Fatalf("CreateMessage error: %v", err)
	}
	if first.Date.IsZero() {
		t.Fatalf("expected date to be set on create")
	}
	second := &models.Message{ReasonID: reason.ID, Name: "John Roe", Email: "john@roe.com", Message: "Hello"}
	if _, err := repo.CreateMessage(ctx, second); err != nil {
		t.Fatalf("CreateMessage error: %v", err)
	}

	got, err := repo.GetMessage(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetMessage error: %v", err)
	}
	if got == nil || got.Purpose != "I want to hire you" || got.Email != "jane@doe.com" {
		t.Fatalf("GetMessage wrong result: %#v", got)
	}
	if got.String() != "message from jane@doe.com" {
		t.Fatalf("unexpected String(): %q", got.String())
	}

	list, err := repo.ListMessages(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListMessages error: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("expected newest first, got %#v", list)
	}

	page, err := repo.ListMessages(ctx, 1, 1)
	if err != nil {
		t.Fatalf("ListMessages page error: %v", err)
	}
	if len(page) != 1 || page[0].ID != first.ID {
		t.Fatalf("unexpected second page: %#v", page)
	}
}

func TestPastWorkCRUD(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	p := &models.PastWork{Name: "Portfolio", Description: "My portfolio app", GithubLink: "https://github.com", PageLink: "https://app.com"}
	if _, err := repo.CreatePastWork(ctx, p); err != nil {
		t.Fatalf("CreatePastWork error: %v", err)
	}

	dupName := &models.PastWork{Name: "Portfolio", Description: "other", GithubLink: "https://github.com/other"}
	if _, err := repo.CreatePastWork(ctx, dupName); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for duplicate name, got %v", err)
	}
	dupLink := &models.PastWork{Name: "Other", Description: "other", GithubLink: "https://github.com"}
	if _, err := repo.CreatePastWork(ctx, dupLink); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for duplicate github link, got %v", err)
	}

	// page link is optional
	noPage := &models.PastWork{Name: "CLI", Description: "A command line tool", GithubLink: "https://github.com/cli"}
	if _, err := repo.CreatePastWork(ctx, noPage); err != nil {
		t.Fatalf("CreatePastWork without page link error: %v", err)
	}
	got, err := repo.GetPastWork(ctx, noPage.ID)
	if err != nil || got == nil {
		t.Fatalf("GetPastWork error: %v", err)
	}
	if got.PageLink != "" {
		t.Fatalf("expected empty page link, got %q", got.PageLink)
	}

	cnt, err := repo.CountPastWorks(ctx)
	if err != nil || cnt != 2 {
		t.Fatalf("CountPastWorks = %d err=%v, want 2", cnt, err)
	}

	limited, err := repo.ListPastWorks(ctx, 1)
	if err != nil {
		t.Fatalf("ListPastWorks error: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != noPage.ID {
		t.Fatalf("expected newest past work first, got %#v", limited)
	}
	all, err := repo.ListPastWorks(ctx, 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListPastWorks(0) = %d items err=%v", len(all), err)
	}

	before := p.DateModified
	time.Sleep(2 * time.Millisecond)
	p.Name = "Portfolio app edited"
	if err := repo.UpdatePastWork(ctx, p); err != nil {
		t.Fatalf("UpdatePastWork error: %v", err)
	}
	if !p.DateModified.After(before) {
		t.Fatalf("expected date_modified to advance: before=%v after=%v", before, p.DateModified)
	}

	if err := repo.DeletePastWork(ctx, p.ID); err != nil {
		t.Fatalf("DeletePastWork error: %v", err)
	}
	if got, _ := repo.GetPastWork(ctx, p.ID); got != nil {
		t.Fatalf("expected nil after delete got %#v", got)
	}
}

func TestUserCRUD(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	if got, err := repo.GetUserByUsername(ctx, "nobody"); err != nil || got != nil {
		t.Fatalf("expected nil, nil for missing user got %#v, %v", got, err)
	}

	u := &models.User{Username: "delesuper", Email: "dele@super.com", PasswordHash: "hash", IsActive: true, IsStaff: true, IsSuperuser: true}
	if _, err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if _, err := repo.CreateUser(ctx, &models.User{Username: "delesuper", PasswordHash: "x"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for duplicate username, got %v", err)
	}

	got, err := repo.GetUserByUsername(ctx, "delesuper")
	if err != nil || got == nil {
		t.Fatalf("GetUserByUsername error: %v", err)
	}
	if !got.IsActive || !got.IsStaff || !got.IsSuperuser || got.LastLogin != nil {
		t.Fatalf("unexpected flags: %#v", got)
	}

	if err := repo.TouchLastLogin(ctx, got.ID); err != nil {
		t.Fatalf("TouchLastLogin error: %v", err)
	}
	got, err = repo.GetUserByID(ctx, got.ID)
	if err != nil || got == nil || got.LastLogin == nil {
		t.Fatalf("expected last login to be set: %#v err=%v", got, err)
	}
}

func TestJobQueue(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	if j, err := repo.FetchNext(ctx); err != nil || j != nil {
		t.Fatalf("expected empty queue, got %#v err=%v", j, err)
	}

	low := &models.BackgroundJob{Type: "a", Payload: json.RawMessage(`{"n":1}`), Priority: 200}
	high := &models.BackgroundJob{Type: "b", Payload: json.RawMessage(`{"n":2}`), Priority: 10}
	for _, j := range []*models.BackgroundJob{low, high} {
		if _, err := repo.Enqueue(ctx, j); err != nil {
			t.Fatalf("Enqueue error: %v", err)
		}
	}

	j, err := repo.FetchNext(ctx)
	if err != nil || j == nil {
		t.Fatalf("FetchNext error: %v", err)
	}
	if j.ID != high.ID || j.Status != "running" || j.MaxAttempts != 5 {
		t.Fatalf("expected high priority job claimed as running, got %#v", j)
	}

	// the claimed job is not handed out again
	next, err := repo.FetchNext(ctx)
	if err != nil || next == nil || next.ID != low.ID {
		t.Fatalf("expected low priority job next, got %#v err=%v", next, err)
	}
	if again, _ := repo.FetchNext(ctx); again != nil {
		t.Fatalf("expected no more jobs, got %#v", again)
	}

	// retry in the future is not fetched
	future := time.Now().Add(time.Hour)
	next.Status = "retry"
	next.Attempts = 1
	next.NextTryAt = &future
	next.LastError = "smtp down"
	if err := repo.UpdateJob(ctx, next); err != nil {
		t.Fatalf("UpdateJob error: %v", err)
	}
	if again, _ := repo.FetchNext(ctx); again != nil {
		t.Fatalf("expected delayed retry to be skipped, got %#v", again)
	}

	n, err := repo.RequeueRunning(ctx)
	if err != nil || n != 1 {
		t.Fatalf("RequeueRunning = %d err=%v, want 1", n, err)
	}

	if err := repo.MoveToDeadLetter(ctx, next); err != nil {
		t.Fatalf("MoveToDeadLetter error: %v", err)
	}
	dl, err := repo.CountDeadLetters(ctx)
	if err != nil || dl != 1 {
		t.Fatalf("CountDeadLetters = %d err=%v, want 1", dl, err)
	}
	queued, err := repo.CountJobs(ctx, "queued")
	if err != nil || queued != 1 {
		t.Fatalf("CountJobs(queued) = %d err=%v, want 1", queued, err)
	}
}

func TestDuplicateIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	repo := sqlite.New(dbtest.New(t), logger)
	ctx := context.Background()

	u := &models.User{Username: "admin", PasswordHash: "x", IsActive: true}
	if _, err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	dup := &models.User{Username: "admin", PasswordHash: "y", IsActive: true}
	if _, err := repo.CreateUser(ctx, dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "unique constraint violated") || !strings.Contains(out, "op=\"create user\"") {
		t.Fatalf("expected duplicate debug log, got %q", out)
	}
}
