package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-vlab/internal/auth/middleware"
	"github.com/mind-engage/mindengage-vlab/internal/lab"
	"github.com/mind-engage/mindengage-vlab/internal/rbac"
	"github.com/mind-engage/mindengage-vlab/internal/storage"
)

type Deps struct {
	Service *lab.Service
	DB      *sql.DB
	Auth    *authmw.AuthService
	Blobs   storage.BlobStore

	// RolesFromDB re-reads the caller's role on every request instead of
	// trusting the token claim.
	RolesFromDB bool
}

// Mount registers the public and protected routes on r.
func Mount(r chi.Router, d Deps) {
	store := d.Service.Store()

	r.Post("/auth/login", authmw.LoginHandler(d.Auth, d.DB))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))
		if d.RolesFromDB {
			pr.Use(authmw.AttachRoleFromDB(d.DB))
		}

		pr.With(rbac.Require(rbac.PermLabView)).Get("/templates", ListTemplatesHandler())
		pr.With(rbac.Require(rbac.PermLabView)).Get("/templates/{name}", GetTemplateHandler())
		pr.With(rbac.Require(rbac.PermGradePreview)).Post("/grade/preview", PreviewHandler(d.Service.Preview))

		pr.With(rbac.Require(rbac.PermLabCreate)).Post("/labs", PutLabHandler(d.Service))
		pr.With(rbac.Require(rbac.PermLabView)).Get("/labs", ListLabsHandler(store))
		pr.With(rbac.Require(rbac.PermLabView)).Get("/labs/{labID}", GetLabHandler(store))
		pr.With(rbac.Require(rbac.PermSubmissionCreate)).Post("/labs/{labID}/submissions", SubmitHandler(d.Service))

		viewSubs := rbac.RequireAny(rbac.PermSubmissionViewOwn, rbac.PermSubmissionViewAll)
		pr.With(viewSubs).Get("/submissions", ListSubmissionsHandler(store))
		pr.With(viewSubs).Get("/submissions/{submissionID}", GetSubmissionHandler(store))
		if d.Blobs != nil {
			pr.With(viewSubs).Get("/submissions/{submissionID}/report", GetReportHandler(store, d.Blobs))
		}
		pr.With(rbac.Require(rbac.PermSubmissionRegrade)).Post("/submissions/{submissionID}/regrade", RegradeHandler(d.Service))

		pr.With(rbac.Require(rbac.PermUsersManage)).Post("/users", UpsertUsersHandler(d.DB))
		pr.With(rbac.Require(rbac.PermUsersList)).Get("/users", ListUsersHandler(d.DB))
		pr.With(rbac.Require(rbac.PermChangePassword)).Post("/users/change-password", ChangePasswordHandler(d.DB))
	})
}
