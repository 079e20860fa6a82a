package rcsa

import (
	"encoding/json"
	"net/http"

	"github.com/smartbank/rcsa/pkg/identity"
)

// createDraftHandler returns a handler that creates or updates the caller's
// draft for a (master, unit) pair. The publish gate is enforced in the store.
func createDraftHandler(assessments *AssessmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateDraftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errValidation("invalid request body"))
			return
		}
		p := identity.FromContext(r.Context())
		unitID := req.UnitID
		if unitID == 0 {
			unitID = p.UnitID
		}

		rec, err := assessments.CreateOrUpdateDraft(req.MasterID, unitID, p.ID, req.AssessmentFields)
		if err != nil {
			writeError(w, err)
			return
		}
		detail, err := assessments.Get(rec.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, detail.Assessment)
	}
}

// updateDraftHandler returns a handler that updates an existing draft.
func updateDraftHandler(assessments *AssessmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var fields AssessmentFields
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeError(w, errValidation("invalid request body"))
			return
		}
		p := identity.FromContext(r.Context())

		rec, err := assessments.UpdateDraft(id, p.ID, fields)
		if err != nil {
			writeError(w, err)
			return
		}
		detail, err := assessments.Get(rec.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail.Assessment)
	}
}

// submitAssessmentHandler returns a handler that submits a complete draft.
// Incomplete drafts get a validation error naming the missing fields.
func submitAssessmentHandler(assessments *AssessmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		p := identity.FromContext(r.Context())
		if err := assessments.Submit(id, p.ID); err != nil {
			writeError(w, err)
			return
		}
		detail, err := assessments.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail.Assessment)
	}
}

// listAssessmentsHandler returns submitted assessments, optional unit filter.
func listAssessmentsHandler(assessments *AssessmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID, ok := queryUnitID(w, r)
		if !ok {
			return
		}
		rows, err := assessments.ListSubmitted(unitID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// draftsHandler returns the caller's drafts view: one row per active published
// master for their unit, joined with their own instance when one exists.
func draftsHandler(assessments *AssessmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := identity.FromContext(r.Context())
		unitID := p.UnitID
		if v, ok := queryUnitID(w, r); !ok {
			return
		} else if v != nil {
			unitID = *v
		}
		excludeSubmitted := r.URL.Query().Get("excludeSubmitted") == "true"
		incompleteOnly := r.URL.Query().Get("incompleteOnly") == "true"

		rows, err := assessments.ListDrafts(unitID, p.ID, excludeSubmitted, incompleteOnly)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// assessmentDetailHandler returns the full assessment view with review notes.
func assessmentDetailHandler(assessments *AssessmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		detail, err := assessments.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

// mineReviewedHandler returns the caller's reviewed assessments with the
// latest review note each.
func mineReviewedHandler(assessments *AssessmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := identity.FromContext(r.Context())
		rows, err := assessments.MineReviewed(p.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// reviewedReportHandler returns the admin report of reviewed assessments.
func reviewedReportHandler(assessments *AssessmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID, ok := queryUnitID(w, r)
		if !ok {
			return
		}
		rows, err := assessments.ReportReviewed(unitID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}
