package web

import (
	"errors"
	"net/http"

	"github.com/garnizeh/portfolio/pkg/models"
	"github.com/garnizeh/portfolio/pkg/repository"
)

type pastWorksPage struct {
	PastWorks []models.PastWork
}

type pastWorkPage struct {
	PastWork *models.PastWork
}

type pastWorkFormPage struct {
	Editing  bool
	Original string
	Form     pastWorkForm
	Errors   formErrors
}

func (s *Site) PastWorks(w http.ResponseWriter, r *http.Request) {
	works, err := s.store.ListPastWorks(r.Context(), 0)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "pastworks", "Side Projects", pastWorksPage{PastWorks: works})
}

func (s *Site) loadPastWork(w http.ResponseWriter, r *http.Request) *models.PastWork {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return nil
	}
	p, err := s.store.GetPastWork(r.Context(), id)
	if err != nil {
		s.serverError(w, r, err)
		return nil
	}
	if p == nil {
		s.notFound(w, r)
		return nil
	}
	return p
}

func (s *Site) PastWork(w http.ResponseWriter, r *http.Request) {
	p := s.loadPastWork(w, r)
	if p == nil {
		return
	}
	s.render(w, r, http.StatusOK, "pastwork", p.Name, pastWorkPage{PastWork: p})
}

func (s *Site) NewPastWorkForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "pastwork_form", "Add Past Work", pastWorkFormPage{Errors: formErrors{}})
}

// uniqueErrors reports which unique fields of form collide with another row.
func (s *Site) uniqueErrors(r *http.Request, form pastWorkForm, selfID int64) (formErrors, error) {
	works, err := s.store.ListPastWorks(r.Context(), 0)
	if err != nil {
		return nil, err
	}
	errs := formErrors{}
	for _, o := range works {
		if o.ID == selfID {
			continue
		}
		if o.Name == form.Name {
			errs["name"] = "Past work with this Name already exists."
		}
		if o.GithubLink == form.GithubLink {
			errs["github_link"] = "Past work with this Github link already exists."
		}
	}
	return errs, nil
}

// decodePastWork validates a create or update submission. It returns false
// once it has written a response.
func (s *Site) decodePastWork(w http.ResponseWriter, r *http.Request, page pastWorkFormPage, selfID int64) (pastWorkForm, bool) {
	var form pastWorkForm
	errs, err := s.forms.decode(r, &form)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return form, false
	}
	if len(errs) == 0 {
		if errs, err = s.uniqueErrors(r, form, selfID); err != nil {
			s.serverError(w, r, err)
			return form, false
		}
	}
	if len(errs) > 0 {
		page.Form, page.Errors = form, errs
		s.render(w, r, http.StatusOK, "pastwork_form", "Past Work", page)
		return form, false
	}
	return form, true
}

// duplicateSaved re-renders the form when the insert or update lost a race on
// a unique column.
func (s *Site) duplicateSaved(w http.ResponseWriter, r *http.Request, page pastWorkFormPage, form pastWorkForm) {
	page.Form = form
	page.Errors = formErrors{"name": "Past work with this Name or Github link already exists."}
	s.render(w, r, http.StatusOK, "pastwork_form", "Past Work", page)
}

func (s *Site) CreatePastWork(w http.ResponseWriter, r *http.Request) {
	page := pastWorkFormPage{}
	form, ok := s.decodePastWork(w, r, page, 0)
	if !ok {
		return
	}

	p := &models.PastWork{Name: form.Name, Description: form.Description, GithubLink: form.GithubLink, PageLink: form.PageLink}
	if _, err := s.store.CreatePastWork(r.Context(), p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.duplicateSaved(w, r, page, form)
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.metrics.ContentChanged("pastwork", "create")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Site) EditPastWorkForm(w http.ResponseWriter, r *http.Request) {
	p := s.loadPastWork(w, r)
	if p == nil {
		return
	}
	s.render(w, r, http.StatusOK, "pastwork_form", "Edit "+p.Name, pastWorkFormPage{
		Editing:  true,
		Original: p.Name,
		Form:     pastWorkForm{Name: p.Name, Description: p.Description, GithubLink: p.GithubLink, PageLink: p.PageLink},
		Errors:   formErrors{},
	})
}

func (s *Site) UpdatePastWork(w http.ResponseWriter, r *http.Request) {
	p := s.loadPastWork(w, r)
	if p == nil {
		return
	}

	page := pastWorkFormPage{Editing: true, Original: p.Name}
	form, ok := s.decodePastWork(w, r, page, p.ID)
	if !ok {
		return
	}

	p.Name, p.Description, p.GithubLink, p.PageLink = form.Name, form.Description, form.GithubLink, form.PageLink
	if err := s.store.UpdatePastWork(r.Context(), p); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			s.duplicateSaved(w, r, page, form)
		case errors.Is(err, repository.ErrNotFound):
			s.notFound(w, r)
		default:
			s.serverError(w, r, err)
		}
		return
	}
	s.metrics.ContentChanged("pastwork", "update")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Site) ConfirmDeletePastWork(w http.ResponseWriter, r *http.Request) {
	p := s.loadPastWork(w, r)
	if p == nil {
		return
	}
	s.render(w, r, http.StatusOK, "confirm_delete", "Delete "+p.Name, confirmPage{Kind: "pastwork", Subject: p.Name, Cancel: "/pastworks"})
}

func (s *Site) DeletePastWork(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	if err := s.store.DeletePastWork(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.notFound(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.metrics.ContentChanged("pastwork", "delete")
	http.Redirect(w, r, "/", http.StatusFound)
}
