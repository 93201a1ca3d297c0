package web

import (
	"errors"
	"net/http"

	"github.com/garnizeh/portfolio/pkg/models"
	"github.com/garnizeh/portfolio/pkg/repository"
)

type aboutFormPage struct {
	Editing bool
	Form    aboutForm
	Errors  formErrors
}

// confirmPage backs the delete confirmation of every entity. Kind selects the
// wording; Subject names the record.
type confirmPage struct {
	Kind    string
	Subject string
	Cancel  string
}

func (s *Site) NewAboutForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "about_form", "New About Me", aboutFormPage{Errors: formErrors{}})
}

func (s *Site) CreateAbout(w http.ResponseWriter, r *http.Request) {
	var form aboutForm
	errs, err := s.forms.decode(r, &form)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if len(errs) > 0 {
		s.render(w, r, http.StatusOK, "about_form", "New About Me", aboutFormPage{Form: form, Errors: errs})
		return
	}

	if _, err := s.store.CreateAbout(r.Context(), &models.About{Paragraph: form.Paragraph}); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.metrics.ContentChanged("about", "create")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Site) loadAbout(w http.ResponseWriter, r *http.Request) *models.About {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return nil
	}
	a, err := s.store.GetAbout(r.Context(), id)
	if err != nil {
		s.serverError(w, r, err)
		return nil
	}
	if a == nil {
		s.notFound(w, r)
		return nil
	}
	return a
}

func (s *Site) EditAboutForm(w http.ResponseWriter, r *http.Request) {
	a := s.loadAbout(w, r)
	if a == nil {
		return
	}
	s.render(w, r, http.StatusOK, "about_form", "Edit About Me", aboutFormPage{Editing: true, Form: aboutForm{Paragraph: a.Paragraph}, Errors: formErrors{}})
}

func (s *Site) UpdateAbout(w http.ResponseWriter, r *http.Request) {
	a := s.loadAbout(w, r)
	if a == nil {
		return
	}

	var form aboutForm
	errs, err := s.forms.decode(r, &form)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if len(errs) > 0 {
		s.render(w, r, http.StatusOK, "about_form", "Edit About Me", aboutFormPage{Editing: true, Form: form, Errors: errs})
		return
	}

	a.Paragraph = form.Paragraph
	if err := s.store.UpdateAbout(r.Context(), a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.notFound(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.metrics.ContentChanged("about", "update")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Site) ConfirmDeleteAbout(w http.ResponseWriter, r *http.Request) {
	a := s.loadAbout(w, r)
	if a == nil {
		return
	}
	s.render(w, r, http.StatusOK, "confirm_delete", "Delete About Me", confirmPage{Kind: "about", Subject: a.String(), Cancel: "/"})
}

func (s *Site) DeleteAbout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	if err := s.store.DeleteAbout(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.notFound(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.metrics.ContentChanged("about", "delete")
	http.Redirect(w, r, "/", http.StatusFound)
}
