package web

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/garnizeh/portfolio/pkg/models"
)

// homePastWorks is how many past works the homepage shows.
const homePastWorks = 3

type homePage struct {
	Abouts       []models.About
	Competencies []models.Competency
	PastWorks    []models.PastWork
	MorePastWork bool
	Contact      contactPage
}

func (s *Site) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	abouts, err := s.store.ListAbouts(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	skills, err := s.store.ListCompetencies(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	reasons, err := s.store.ListReasons(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	works, err := s.store.ListPastWorks(ctx, homePastWorks)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	total, err := s.store.CountPastWorks(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "home", s.cfg.SiteOwner, homePage{
		Abouts:       abouts,
		Competencies: skills,
		PastWorks:    works,
		MorePastWork: total > homePastWorks,
		Contact:      contactPage{Reasons: reasons, Errors: formErrors{}},
	})
}

// pathID returns the {id} route variable. The route pattern guarantees
// digits; overflow is reported as missing.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
