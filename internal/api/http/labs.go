package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-vlab/internal/auth/middleware"
	"github.com/mind-engage/mindengage-vlab/internal/grading"
	"github.com/mind-engage/mindengage-vlab/internal/lab"
	"github.com/mind-engage/mindengage-vlab/internal/rbac"
)

type putLabReq struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	LabType     string            `json:"lab_type"`
	Criteria    *grading.Criteria `json:"criteria"`
	Template    string            `json:"template"` // criteria source when criteria is omitted
}

// POST /labs
func PutLabHandler(svc *lab.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req putLabReq
		if !decodeJSON(w, r, &req) {
			return
		}
		c := req.Criteria
		if c == nil {
			name := req.Template
			if name == "" {
				name = req.LabType
			}
			if t, ok := grading.Template(name); ok {
				c = &t
			} else if req.Template != "" {
				http.Error(w, "unknown template: "+req.Template, http.StatusBadRequest)
				return
			}
		}
		l := lab.Lab{
			ID:          strings.TrimSpace(req.ID),
			Title:       strings.TrimSpace(req.Title),
			Description: req.Description,
			LabType:     req.LabType,
			Criteria:    c,
			CreatedBy:   authmw.SubjectFromContext(r.Context()),
		}
		if err := validate.Struct(l); err != nil {
			http.Error(w, describe("lab", err).Error(), http.StatusBadRequest)
			return
		}
		if err := validateCriteria(c); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		saved, err := svc.PutLab(r.Context(), l)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	}
}

// GET /labs?q=&lab_type=&limit=&offset=
func ListLabsHandler(store lab.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		labs, err := store.ListLabs(r.Context(), lab.ListOpts{
			Q:       strings.TrimSpace(q.Get("q")),
			LabType: strings.TrimSpace(q.Get("lab_type")),
			Limit:   parseIntDefault(q.Get("limit"), 50),
			Offset:  parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, labs)
	}
}

// GET /labs/{labID}; criteria only for roles that can author labs.
func GetLabHandler(store lab.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := store.GetLab(r.Context(), chi.URLParam(r, "labID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if !rbac.Can(r.Context(), rbac.PermLabCreate) {
			l = l.StudentView()
		}
		writeJSON(w, http.StatusOK, l)
	}
}
