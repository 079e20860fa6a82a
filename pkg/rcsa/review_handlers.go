package rcsa

import (
	"encoding/json"
	"net/http"

	"github.com/smartbank/rcsa/pkg/identity"
)

// reviewHandler returns a handler that records the caller's review decision
// on a submitted assessment.
func reviewHandler(reviews *ReviewStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req ReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errValidation("invalid request body"))
			return
		}
		p := identity.FromContext(r.Context())

		note, err := reviews.Review(id, req.Decision, req.Note, p.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, note)
	}
}

// reviewQueueHandler returns the submitted assessments awaiting review.
func reviewQueueHandler(assessments *AssessmentStore) http.HandlerFunc {
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

// reviewNotesHandler returns the review history of an assessment.
func reviewNotesHandler(reviews *ReviewStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		notes, err := reviews.Notes(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, notes)
	}
}
