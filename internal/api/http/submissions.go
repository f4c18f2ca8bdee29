package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-vlab/internal/auth/middleware"
	"github.com/mind-engage/mindengage-vlab/internal/lab"
	"github.com/mind-engage/mindengage-vlab/internal/rbac"
	"github.com/mind-engage/mindengage-vlab/internal/storage"
)

// POST /labs/{labID}/submissions
// Body is JSON {"content": "..."} or a multipart form with a "report" file.
func SubmitHandler(svc *lab.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, ok := readReport(w, r)
		if !ok {
			return
		}
		if strings.TrimSpace(content) == "" {
			http.Error(w, "content required", http.StatusBadRequest)
			return
		}
		sub, err := svc.Submit(r.Context(), chi.URLParam(r, "labID"), authmw.SubjectFromContext(r.Context()), content)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	}
}

func readReport(w http.ResponseWriter, r *http.Request) (string, bool) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		f, _, err := r.FormFile("report")
		if err != nil {
			http.Error(w, "report file required", http.StatusBadRequest)
			return "", false
		}
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, "read report: "+err.Error(), http.StatusBadRequest)
			return "", false
		}
		return string(b), true
	}
	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return "", false
	}
	return req.Content, true
}

// GET /submissions?lab_id=&user_id=&status=&limit=&offset=
// Without submission:view-all the list is limited to the caller's own.
func ListSubmissionsHandler(store lab.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := lab.SubmissionListOpts{
			LabID:  strings.TrimSpace(q.Get("lab_id")),
			UserID: strings.TrimSpace(q.Get("user_id")),
			Status: strings.TrimSpace(q.Get("status")),
			Limit:  parseIntDefault(q.Get("limit"), 50),
			Offset: parseIntDefault(q.Get("offset"), 0),
		}
		if !rbac.Can(r.Context(), rbac.PermSubmissionViewAll) {
			opts.UserID = authmw.SubjectFromContext(r.Context())
		}
		subs, err := store.ListSubmissions(r.Context(), opts)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

func loadVisibleSubmission(r *http.Request, store lab.Store) (lab.Submission, error) {
	sub, err := store.GetSubmission(r.Context(), chi.URLParam(r, "submissionID"))
	if err != nil {
		return lab.Submission{}, err
	}
	ctx := r.Context()
	if !lab.CanView(sub, authmw.SubjectFromContext(ctx), rbac.Can(ctx, rbac.PermSubmissionViewAll)) {
		return lab.Submission{}, lab.ErrForbidden
	}
	return sub, nil
}

// GET /submissions/{submissionID}
func GetSubmissionHandler(store lab.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := loadVisibleSubmission(r, store)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

// GET /submissions/{submissionID}/report returns the archived report text.
func GetReportHandler(store lab.Store, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := loadVisibleSubmission(r, store)
		if err != nil {
			writeErr(w, err)
			return
		}
		if sub.ReportKey == "" {
			http.Error(w, "report not archived", http.StatusNotFound)
			return
		}
		rc, err := bs.Get(sub.ReportKey)
		if err != nil {
			http.Error(w, "not found: "+err.Error(), http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.Copy(w, rc)
	}
}

// POST /submissions/{submissionID}/regrade
func RegradeHandler(svc *lab.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := svc.Regrade(r.Context(), chi.URLParam(r, "submissionID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}
