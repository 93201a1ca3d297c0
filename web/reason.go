package web

import (
	"errors"
	"net/http"

	"github.com/garnizeh/portfolio/pkg/models"
	"github.com/garnizeh/portfolio/pkg/repository"
)

type reasonsPage struct {
	Reasons []models.Reason
	Form    reasonForm
	Errors  formErrors
}

type reasonFormPage struct {
	Editing  bool
	Original string
	Form     reasonForm
	Errors   formErrors
}

func (s *Site) renderReasons(w http.ResponseWriter, r *http.Request, form reasonForm, errs formErrors) {
	reasons, err := s.store.ListReasons(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "reasons", "Reasons", reasonsPage{Reasons: reasons, Form: form, Errors: errs})
}

func (s *Site) Reasons(w http.ResponseWriter, r *http.Request) {
	s.renderReasons(w, r, reasonForm{}, formErrors{})
}

func (s *Site) NewReasonForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "reason_form", "New Reason", reasonFormPage{Errors: formErrors{}})
}

func (s *Site) CreateReason(w http.ResponseWriter, r *http.Request) {
	var form reasonForm
	errs, err := s.forms.decode(r, &form)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if len(errs) > 0 {
		s.render(w, r, http.StatusOK, "reason_form", "New Reason", reasonFormPage{Form: form, Errors: errs})
		return
	}

	if _, err := s.store.CreateReason(r.Context(), &models.Reason{Purpose: form.Purpose}); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.metrics.ContentChanged("reason", "create")
	http.Redirect(w, r, "/reasons", http.StatusFound)
}

func (s *Site) loadReason(w http.ResponseWriter, r *http.Request) *models.Reason {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return nil
	}
	rs, err := s.store.GetReason(r.Context(), id)
	if err != nil {
		s.serverError(w, r, err)
		return nil
	}
	if rs == nil {
		s.notFound(w, r)
		return nil
	}
	return rs
}

func (s *Site) EditReasonForm(w http.ResponseWriter, r *http.Request) {
	rs := s.loadReason(w, r)
	if rs == nil {
		return
	}
	s.render(w, r, http.StatusOK, "reason_form", "Edit Reason", reasonFormPage{Editing: true, Original: rs.Purpose, Form: reasonForm{Purpose: rs.Purpose}, Errors: formErrors{}})
}

func (s *Site) UpdateReason(w http.ResponseWriter, r *http.Request) {
	rs := s.loadReason(w, r)
	if rs == nil {
		return
	}

	var form reasonForm
	errs, err := s.forms.decode(r, &form)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if len(errs) > 0 {
		s.render(w, r, http.StatusOK, "reason_form", "Edit Reason", reasonFormPage{Editing: true, Original: rs.Purpose, Form: form, Errors: errs})
		return
	}

	rs.Purpose = form.Purpose
	if err := s.store.UpdateReason(r.Context(), rs); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.notFound(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.metrics.ContentChanged("reason", "update")
	http.Redirect(w, r, "/reasons", http.StatusFound)
}

func (s *Site) ConfirmDeleteReason(w http.ResponseWriter, r *http.Request) {
	rs := s.loadReason(w, r)
	if rs == nil {
		return
	}
	s.render(w, r, http.StatusOK, "confirm_delete", "Delete Reason", confirmPage{Kind: "reason", Subject: rs.Purpose, Cancel: "/reasons"})
}

// DeleteReason also removes every message filed under the reason.
func (s *Site) DeleteReason(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	if err := s.store.DeleteReason(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.notFound(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.metrics.ContentChanged("reason", "delete")
	http.Redirect(w, r, "/reasons", http.StatusFound)
}
