package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-vlab/internal/grading"
)

// GET /templates
func ListTemplatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{"templates": grading.TemplateNames()})
	}
}

// GET /templates/{name}
func GetTemplateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := grading.Template(chi.URLParam(r, "name"))
		if !ok {
			http.Error(w, "unknown template", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

type previewReq struct {
	Submission *string           `json:"submission"`
	Criteria   *grading.Criteria `json:"criteria"`
	Template   string            `json:"template"`
}

// POST /grade/preview grades a text without storing anything. Missing
// submission or criteria yield the engine's degenerate result, not an error.
func PreviewHandler(preview func(*string, *grading.Criteria) grading.Result) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req previewReq
		if !decodeJSON(w, r, &req) {
			return
		}
		c := req.Criteria
		if c == nil && req.Template != "" {
			t, ok := grading.Template(req.Template)
			if !ok {
				http.Error(w, "unknown template", http.StatusNotFound)
				return
			}
			c = &t
		}
		if err := validateCriteria(c); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, preview(req.Submission, c))
	}
}
