package rcsa

import (
	"encoding/json"
	"net/http"

	"github.com/smartbank/rcsa/pkg/identity"
)

// inboxHandler returns a handler that lists masters awaiting a decision.
func inboxHandler(approvals *ApprovalStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := approvals.Inbox()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// decisionHandler returns a handler that claims the master's pending step and
// records the caller's decision. Racing approvers: exactly one succeeds.
func decisionHandler(masters *MasterStore, approvals *ApprovalStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req DecisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errValidation("invalid request body"))
			return
		}
		p := identity.FromContext(r.Context())

		if err := approvals.Decide(id, req.Decision, req.Note, p.ID); err != nil {
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
