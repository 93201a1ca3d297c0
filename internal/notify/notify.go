// Package notify delivers contact-message notifications to the site owner.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/garnizeh/portfolio/internal/jobs"
	"github.com/garnizeh/portfolio/pkg/models"
	"github.com/garnizeh/portfolio/pkg/repository"
)

// JobType is the background job type for message notifications.
const JobType = "message.notify"

// Subject is used for every notification email.
const Subject = "Message from Portfolio App"

// Email is a plain-text message.
type Email struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Body    string
}

// Mailer sends an email.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// Payload is the job payload of a JobType job.
type Payload struct {
	MessageID int64 `json:"message_id"`
}

// Body formats the notification text for m. m.Purpose must be filled.
func Body(m *models.Message) string {
	return fmt.Sprintf("%s says %s\n\nTheir exact statement was \"%s\"\nHere is their email if you need to reach them: %s",
		m.Name, m.Purpose, m.Message, m.Email)
}

// Notifier turns stored messages into emails.
type Notifier struct {
	messages repository.MessageRepo
	mailer   Mailer
	from     string
	to       []string
	logger   *slog.Logger
}

func NewNotifier(messages repository.MessageRepo, mailer Mailer, from string, to []string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{messages: messages, mailer: mailer, from: from, to: to, logger: logger}
}

// Enqueue schedules a notification for the stored message id.
func Enqueue(ctx context.Context, q repository.JobRepo, messageID int64) (int64, error) {
	return jobs.Enqueue(ctx, q, JobType, Payload{MessageID: messageID}, 50, 5)
}

// Handle is a jobs.Handler for JobType jobs.
func (n *Notifier) Handle(ctx context.Context, j *models.BackgroundJob) error {
	var p Payload
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, jobs.ErrPermanent)
	}

	m, err := n.messages.GetMessage(ctx, p.MessageID)
	if err != nil {
		return fmt.Errorf("load message %d: %w", p.MessageID, err)
	}
	if m == nil {
		// deleted along with its reason before we got to it
		n.logger.InfoContext(ctx, "message gone, skipping notification", slog.Int64("message_id", p.MessageID))
		return nil
	}

	e := Email{
		From:    n.from,
		To:      n.to,
		ReplyTo: m.Email,
		Subject: Subject,
		Body:    Body(m),
	}
	if err := n.mailer.Send(ctx, e); err != nil {
		return fmt.Errorf("send notification for message %d: %w", m.ID, err)
	}

	n.logger.InfoContext(ctx, "notification sent", slog.Int64("message_id", m.ID))
	return nil
}

// LogMailer writes emails to the log instead of sending them. It is used when
// no SMTP host is configured.
type LogMailer struct {
	Logger *slog.Logger
}

func (l LogMailer) Send(ctx context.Context, e Email) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "email",
		slog.String("from", e.From),
		slog.Any("to", e.To),
		slog.String("subject", e.Subject),
		slog.String("body", e.Body),
	)
	return nil
}
