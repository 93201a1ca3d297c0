package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/garnizeh/portfolio/internal/notify"
	"github.com/garnizeh/portfolio/pkg/models"
)

const (
	messageSentFlash = "Your message was sent successfully, expect a feedback ASAP!!!"
	messagesPerPage  = 50
)

type contactPage struct {
	Reasons []models.Reason
	Form    messageForm
	Errors  formErrors
}

type messagesPage struct {
	Messages []models.Message
	Page     int
	PrevPage int
	NextPage int
}

func (s *Site) renderContact(w http.ResponseWriter, r *http.Request, form messageForm, errs formErrors) {
	reasons, err := s.store.ListReasons(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "message_form", "Send a Message", contactPage{Reasons: reasons, Form: form, Errors: errs})
}

func (s *Site) SendMessageForm(w http.ResponseWriter, r *http.Request) {
	s.renderContact(w, r, messageForm{}, formErrors{})
}

// SendMessage stores the visitor's message and queues the owner notification.
func (s *Site) SendMessage(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(clientIP(r)) {
		logger.WarnContext(r.Context(), "contact form rate limited", slog.String("remote", clientIP(r)))
		w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.Contact.Interval.Seconds())))
		s.render(w, r, http.StatusTooManyRequests, "error", "Slow Down", errorPage{Status: http.StatusTooManyRequests, Message: "You have sent too many messages. Please try again later."})
		return
	}

	var form messageForm
	errs, err := s.forms.decode(r, &form)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if !errs.Has("reason") {
		reason, err := s.store.GetReason(r.Context(), form.Reason)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		if reason == nil {
			errs["reason"] = "Select a valid choice. That choice is not one of the available choices."
		}
	}
	if len(errs) > 0 {
		s.renderContact(w, r, form, errs)
		return
	}

	m := &models.Message{ReasonID: form.Reason, Name: form.Name, Email: form.Email, Message: form.Message}
	if _, err := s.store.CreateMessage(r.Context(), m); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.metrics.MessageReceived()
	logger.InfoContext(r.Context(), "message received", slog.Int64("message_id", m.ID), slog.Int64("reason_id", m.ReasonID))

	// the message is stored; a lost notification must not fail the visitor's request
	if _, err := notify.Enqueue(r.Context(), s.jobs, m.ID); err != nil {
		logger.ErrorContext(r.Context(), "enqueue notification", slog.Int64("message_id", m.ID), slog.Any("err", err))
	}

	s.addFlash(w, r, messageSentFlash)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Site) ReceivedMessages(w http.ResponseWriter, r *http.Request) {
	pageNum := 1
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.notFound(w, r)
			return
		}
		pageNum = n
	}

	ctx := r.Context()
	msgs, err := s.store.ListMessages(ctx, messagesPerPage, (pageNum-1)*messagesPerPage)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	total, err := s.store.CountMessages(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	data := messagesPage{Messages: msgs, Page: pageNum}
	if pageNum > 1 {
		data.PrevPage = pageNum - 1
	}
	if int64(pageNum*messagesPerPage) < total {
		data.NextPage = pageNum + 1
	}
	s.render(w, r, http.StatusOK, "messages", "Messages Received", data)
}
