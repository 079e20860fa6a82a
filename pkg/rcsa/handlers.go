package rcsa

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/smartbank/rcsa/pkg/identity"
)

// createMasterHandler returns a handler that creates a draft master with its
// initial target-unit set.
func createMasterHandler(masters *MasterStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateMasterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errValidation("invalid request body"))
			return
		}
		p := identity.FromContext(r.Context())

		master, err := masters.Create(req, p.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, masterToAPI(master))
	}
}

// listMastersHandler returns a handler that lists masters with summary counts.
func listMastersHandler(masters *MasterStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := masters.List()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

// masterDetailHandler returns a handler that assembles the admin detail view:
// the master, its target units, and the units that have used it.
func masterDetailHandler(masters *MasterStore, assignments *AssignmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		master, err := masters.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		targets, err := assignments.ListTargets(id)
		if err != nil {
			writeError(w, err)
			return
		}
		consumers, err := assignments.ListConsumers(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MasterDetail{
			Master:      masterToAPI(master),
			TargetUnits: targets,
			UsedByUnits: consumers,
		})
	}
}

// updateMasterHandler returns a handler that updates a draft master.
func updateMasterHandler(masters *MasterStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req UpdateMasterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errValidation("invalid request body"))
			return
		}
		if err := masters.Update(id, req); err != nil {
			writeError(w, err)
			return
		}
		master, err := masters.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, masterToAPI(master))
	}
}

// deleteMasterHandler returns a handler that deletes an unused draft master.
func deleteMasterHandler(masters *MasterStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := masters.Delete(id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// reassignHandler returns a handler that replaces a draft master's target set.
func reassignHandler(masters *MasterStore, assignments *AssignmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req ReassignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errValidation("invalid request body"))
			return
		}
		if err := assignments.Reassign(id, req.UnitIDs); err != nil {
			writeError(w, err)
			return
		}
		targets, err := assignments.ListTargets(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, targets)
	}
}

// submitMasterHandler returns a handler that routes a master into approval.
func submitMasterHandler(masters *MasterStore) http.HandlerFunc {
	return masterActionHandler(masters, func(id, actor int64) error {
		return masters.Submit(id, actor)
	})
}

// publishMasterHandler returns a handler that publishes an approved master.
func publishMasterHandler(masters *MasterStore) http.HandlerFunc {
	return masterActionHandler(masters, func(id, _ int64) error {
		return masters.Publish(id)
	})
}

// archiveMasterHandler returns a handler that archives a master.
func archiveMasterHandler(masters *MasterStore) http.HandlerFunc {
	return masterActionHandler(masters, func(id, _ int64) error {
		return masters.Archive(id)
	})
}

// masterActionHandler wraps a lifecycle action: resolve id, run it as the
// caller, respond with the refreshed master.
func masterActionHandler(masters *MasterStore, action func(id, actor int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		p := identity.FromContext(r.Context())
		if err := action(id, p.ID); err != nil {
			writeError(w, err)
			return
		}
		master, err := masters.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, masterToAPI(master))
	}
}

// activeMastersHandler returns the published masters active for the caller's
// unit, the set a unit user may draft against.
func activeMastersHandler(masters *MasterStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := identity.FromContext(r.Context())
		unitID := p.UnitID
		if v := r.URL.Query().Get("unitId"); v != "" {
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				writeError(w, errValidation("unitId must be an integer", "unitId"))
				return
			}
			unitID = parsed
		}
		rows, err := masters.ActiveForUnit(unitID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// mastersByUnitHandler returns every master targeting a unit. Admin preview.
func mastersByUnitHandler(masters *MasterStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID, ok := pathID(w, r, "unitID")
		if !ok {
			return
		}
		rows, err := masters.ByUnit(unitID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// pathID parses an integer id URL param, writing a validation error on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		writeError(w, errValidation(name+" must be an integer", name))
		return 0, false
	}
	return id, true
}

// queryUnitID parses an optional unitId query filter.
func queryUnitID(w http.ResponseWriter, r *http.Request) (*int64, bool) {
	v := r.URL.Query().Get("unitId")
	if v == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		writeError(w, errValidation("unitId must be an integer", "unitId"))
		return nil, false
	}
	return &id, true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes the structured workflow error with its mapped HTTP status.
func writeError(w http.ResponseWriter, err error) {
	e := AsError(err)
	writeJSON(w, e.HTTPStatus(), e)
}
