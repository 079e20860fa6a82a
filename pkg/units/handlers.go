package units

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with the read-only unit directory routes.
func NewRouter(dir *Directory) chi.Router {
	r := chi.NewRouter()
	r.Get("/", listUnitsHandler(dir))
	r.Get("/{id}", getUnitHandler(dir))
	return r
}

// listUnitsHandler returns all units, optionally filtered by parentId.
func listUnitsHandler(dir *Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var parentID *int64
		if v := r.URL.Query().Get("parentId"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				writeUnitError(w, http.StatusBadRequest, "parentId must be an integer")
				return
			}
			parentID = &id
		}
		recs, err := dir.List(parentID)
		if err != nil {
			writeUnitError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeUnitJSON(w, http.StatusOK, recs)
	}
}

// getUnitHandler returns one unit by id.
func getUnitHandler(dir *Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeUnitError(w, http.StatusBadRequest, "id must be an integer")
			return
		}
		unit, err := dir.Get(id)
		if err != nil {
			writeUnitError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if unit == nil {
			writeUnitError(w, http.StatusNotFound, "unit not found")
			return
		}
		writeUnitJSON(w, http.StatusOK, unit)
	}
}

func writeUnitJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeUnitError(w http.ResponseWriter, status int, message string) {
	writeUnitJSON(w, status, map[string]string{"error": message})
}
