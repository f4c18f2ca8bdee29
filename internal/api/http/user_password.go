package http

import (
	"database/sql"
	"errors"
	"net/http"

	authmw "github.com/mind-engage/mindengage-vlab/internal/auth/middleware"
	"github.com/mind-engage/mindengage-vlab/internal/db"
)

type changePasswordReq struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,nefield=OldPassword"`
}

// POST /users/change-password
func ChangePasswordHandler(dbh *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req changePasswordReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, describe("password", err).Error(), http.StatusBadRequest)
			return
		}
		err := db.ChangePassword(r.Context(), dbh, userID, req.OldPassword, req.NewPassword)
		if errors.Is(err, db.ErrBadCredentials) {
			http.Error(w, "incorrect old password", http.StatusForbidden)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
