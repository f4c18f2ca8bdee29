package http

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/mind-engage/mindengage-vlab/internal/db"
	"github.com/mind-engage/mindengage-vlab/internal/rbac"
)

// POST /users
// Accepts a JSON array, or a multipart "file" holding JSON or CSV
// (header: username,role[,id][,password]).
func UpsertUsersHandler(dbh *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var rows []db.UserInput
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			raw, err := io.ReadAll(f)
			if err != nil {
				http.Error(w, "read file: "+err.Error(), http.StatusBadRequest)
				return
			}
			if t := strings.TrimSpace(string(raw)); strings.HasPrefix(t, "[") {
				err = json.Unmarshal(raw, &rows)
			} else {
				rows, err = parseRosterCSV(strings.NewReader(string(raw)))
			}
			if err != nil {
				http.Error(w, "bad roster: "+err.Error(), http.StatusBadRequest)
				return
			}
		} else if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			http.Error(w, "expected JSON array or multipart file", http.StatusBadRequest)
			return
		}

		for i := range rows {
			rows[i].Username = strings.TrimSpace(rows[i].Username)
			rows[i].Role = strings.ToLower(strings.TrimSpace(rows[i].Role))
			if err := validate.Struct(rows[i]); err != nil {
				msg := describe("users["+rows[i].Username+"]", err).Error()
				if strings.Contains(msg, "fails "+roleTag) {
					msg += " (roles: " + strings.Join(rbac.Default().Roles(), ", ") + ")"
				}
				http.Error(w, msg, http.StatusBadRequest)
				return
			}
		}
		ins, upd, err := db.UpsertUsers(r.Context(), dbh, rows)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"inserted": ins, "updated": upd})
	}
}

// GET /users?role=
func ListUsersHandler(dbh *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := db.ListUsers(r.Context(), dbh, r.URL.Query().Get("role"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func parseRosterCSV(r io.Reader) ([]db.UserInput, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx["username"]; !ok {
		return nil, errors.New("missing column: username")
	}
	col := func(rec []string, name string) string {
		if i, ok := idx[name]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}
	var out []db.UserInput
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, db.UserInput{
			ID:       col(rec, "id"),
			Username: col(rec, "username"),
			Role:     col(rec, "role"),
			Password: col(rec, "password"),
		})
	}
	return out, nil
}
