package web

import (
	"errors"
	"net/http"

	"github.com/garnizeh/portfolio/pkg/models"
	"github.com/garnizeh/portfolio/pkg/repository"
)

type skillFormPage struct {
	Editing  bool
	Original string
	Form     skillForm
	Errors   formErrors
}

func (s *Site) NewSkillForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "skill_form", "New Skill", skillFormPage{Errors: formErrors{}})
}

func (s *Site) CreateSkill(w http.ResponseWriter, r *http.Request) {
	var form skillForm
	errs, err := s.forms.decode(r, &form)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if len(errs) > 0 {
		s.render(w, r, http.StatusOK, "skill_form", "New Skill", skillFormPage{Form: form, Errors: errs})
		return
	}

	if _, err := s.store.CreateCompetency(r.Context(), &models.Competency{Skill: form.Skill}); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.metrics.ContentChanged("competency", "create")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Site) loadSkill(w http.ResponseWriter, r *http.Request) *models.Competency {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return nil
	}
	c, err := s.store.GetCompetency(r.Context(), id)
	if err != nil {
		s.serverError(w, r, err)
		return nil
	}
	if c == nil {
		s.notFound(w, r)
		return nil
	}
	return c
}

func (s *Site) EditSkillForm(w http.ResponseWriter, r *http.Request) {
	c := s.loadSkill(w, r)
	if c == nil {
		return
	}
	s.render(w, r, http.StatusOK, "skill_form", "Edit Skill", skillFormPage{Editing: true, Original: c.Skill, Form: skillForm{Skill: c.Skill}, Errors: formErrors{}})
}

func (s *Site) UpdateSkill(w http.ResponseWriter, r *http.Request) {
	c := s.loadSkill(w, r)
	if c == nil {
		return
	}

	var form skillForm
	errs, err := s.forms.decode(r, &form)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if len(errs) > 0 {
		s.render(w, r, http.StatusOK, "skill_form", "Edit Skill", skillFormPage{Editing: true, Original: c.Skill, Form: form, Errors: errs})
		return
	}

	c.Skill = form.Skill
	if err := s.store.UpdateCompetency(r.Context(), c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.notFound(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.metrics.ContentChanged("competency", "update")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Site) ConfirmDeleteSkill(w http.ResponseWriter, r *http.Request) {
	c := s.loadSkill(w, r)
	if c == nil {
		return
	}
	s.render(w, r, http.StatusOK, "confirm_delete", "Delete Skill", confirmPage{Kind: "skill", Subject: c.Skill, Cancel: "/"})
}

func (s *Site) DeleteSkill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	if err := s.store.DeleteCompetency(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.notFound(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.metrics.ContentChanged("competency", "delete")
	http.Redirect(w, r, "/", http.StatusFound)
}
