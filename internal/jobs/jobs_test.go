package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/garnizeh/portfolio/internal/dbtest"
	"github.com/garnizeh/portfolio/internal/jobs"
	"github.com/garnizeh/portfolio/internal/repository/sqlite"
	"github.com/garnizeh/portfolio/pkg/models"
	"github.com/garnizeh/portfolio/pkg/repository/mock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// database/sql keeps a connection opener goroutine per *sql.DB until Close
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnqueueAndProcess(t *testing.T) {
	ctx := context.Background()
	logger := quietLogger()

	repo := sqlite.New(dbtest.New(t), logger)
	handled := make(chan string, 1)
	handlers := map[string]jobs.Handler{
		"test": func(ctx context.Context, j *models.BackgroundJob) error {
			handled <- string(j.Payload)
			return nil
		},
	}
	pool := jobs.NewWorkerPool(repo, handlers, logger, 1)
	pool.SetPollInterval(10 * time.Millisecond)
	pool.Start(ctx)
	defer pool.Stop()

	if _, err := pool.Enqueue(ctx, "test", map[string]string{"foo": "bar"}, 10, 3); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case got := <-handled:
		if got != `{"foo":"bar"}` {
			t.Fatalf("unexpected payload %s", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("handler was not called")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

type outcomes struct {
	mu   sync.Mutex
	seen []string
}

func (o *outcomes) record(typ, status string) {
	o.mu.Lock()
	o.seen = append(o.seen, typ+":"+status)
	o.mu.Unlock()
}

func (o *outcomes) list() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.seen...)
}

func TestWorkerPool_Outcomes(t *testing.T) {
	tests := []struct {
		name        string
		typ         string
		handler     jobs.Handler
		maxAttempts int
		wantStatus  string
		wantDead    bool
	}{
		{
			name:       "success marks done",
			typ:        "ok",
			handler:    func(context.Context, *models.BackgroundJob) error { return nil },
			wantStatus: jobs.StatusDone,
		},
		{
			name:        "transient error schedules retry",
			typ:         "flaky",
			handler:     func(context.Context, *models.BackgroundJob) error { return errors.New("smtp down") },
			maxAttempts: 3,
			wantStatus:  jobs.StatusRetry,
		},
		{
			name:        "last attempt goes to dead letter",
			typ:         "broken",
			handler:     func(context.Context, *models.BackgroundJob) error { return errors.New("smtp down") },
			maxAttempts: 1,
			wantStatus:  jobs.StatusFailed,
			wantDead:    true,
		},
		{
			name: "permanent error skips retries",
			typ:  "gone",
			handler: func(context.Context, *models.BackgroundJob) error {
				return fmt.Errorf("message vanished: %w", jobs.ErrPermanent)
			},
			maxAttempts: 5,
			wantStatus:  jobs.StatusFailed,
			wantDead:    true,
		},
		{
			name:        "panic is treated as failure",
			typ:         "panicky",
			handler:     func(context.Context, *models.BackgroundJob) error { panic("boom") },
			maxAttempts: 1,
			wantStatus:  jobs.StatusFailed,
			wantDead:    true,
		},
		{
			name:       "unknown type is dead lettered",
			typ:        "unknown",
			wantStatus: jobs.StatusFailed,
			wantDead:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := mock.NewStore()
			handlers := map[string]jobs.Handler{}
			if tt.handler != nil {
				handlers[tt.typ] = tt.handler
			}

			var o outcomes
			pool := jobs.NewWorkerPool(store, handlers, quietLogger(), 1)
			pool.SetPollInterval(5 * time.Millisecond)
			pool.OnOutcome(o.record)

			if _, err := jobs.Enqueue(ctx, store, tt.typ, map[string]int{"n": 1}, 100, tt.maxAttempts); err != nil {
				t.Fatalf("enqueue: %v", err)
			}

			pool.Start(ctx)
			waitFor(t, func() bool { return len(o.list()) > 0 })
			pool.Stop()

			if got := o.list()[0]; got != tt.typ+":"+tt.wantStatus {
				t.Fatalf("outcome = %q, want %q", got, tt.typ+":"+tt.wantStatus)
			}
			if got := len(store.DeadLetters()) == 1; got != tt.wantDead {
				t.Fatalf("dead letter = %v, want %v", got, tt.wantDead)
			}
			if tt.wantStatus == jobs.StatusRetry {
				retry := store.JobsByStatus(jobs.StatusRetry)
				if len(retry) != 1 || retry[0].NextTryAt == nil || retry[0].Attempts != 1 || retry[0].LastError != "smtp down" {
					t.Fatalf("unexpected retry state: %#v", retry)
				}
			}
		})
	}
}

func TestStart_RequeuesOrphanedJobs(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	if _, err := jobs.Enqueue(ctx, store, "ok", nil, 100, 0); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	// simulate a crash after claiming
	if j, _ := store.FetchNext(ctx); j == nil {
		t.Fatalf("expected a job to claim")
	}

	done := make(chan struct{}, 1)
	pool := jobs.NewWorkerPool(store, map[string]jobs.Handler{
		"ok": func(context.Context, *models.BackgroundJob) error {
			done <- struct{}{}
			return nil
		},
	}, quietLogger(), 2)
	pool.SetPollInterval(5 * time.Millisecond)
	pool.Start(ctx)
	defer pool.Stop()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("orphaned job was not processed")
	}
}

func TestWorkerPool_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := jobs.NewWorkerPool(mock.NewStore(), nil, quietLogger(), 3)
	pool.Start(ctx)
	cancel()

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		pool.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatalf("workers did not exit after cancel")
	}
}

func TestBackoffDuration(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{9, 5 * time.Minute},
		{64, 5 * time.Minute},
	}
	for _, tt := range tests {
		if got := jobs.BackoffDuration(tt.attempt); got != tt.want {
			t.Fatalf("BackoffDuration(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
