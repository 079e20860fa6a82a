package rcsa

// MasterAction is a lifecycle-changing action on a master.
type MasterAction string

const (
	ActionSubmit  MasterAction = "submit"
	ActionApprove MasterAction = "approve"
	ActionReject  MasterAction = "reject"
	ActionPublish MasterAction = "publish"
	ActionArchive MasterAction = "archive"
)

type transitionKey struct {
	from   MasterStatus
	action MasterAction
}

// masterTransitions is the closed (state x action -> state) table for the
// master lifecycle. Any pair not listed is rejected.
var masterTransitions = map[transitionKey]MasterStatus{
	{StatusDraft, ActionSubmit}:             StatusPendingApproval,
	{StatusRejected, ActionSubmit}:          StatusPendingApproval,
	{StatusPendingApproval, ActionApprove}:  StatusApproved,
	{StatusPendingApproval, ActionReject}:   StatusRejected,
	{StatusApproved, ActionPublish}:         StatusPublished,
	{StatusPendingApproval, ActionArchive}:  StatusArchived,
	{StatusApproved, ActionArchive}:         StatusArchived,
	{StatusRejected, ActionArchive}:         StatusArchived,
	{StatusPublished, ActionArchive}:        StatusArchived,
}

// NextStatus resolves the target state for an action from the current state,
// or an invalid-transition error naming both.
func NextStatus(from MasterStatus, action MasterAction) (MasterStatus, error) {
	to, ok := masterTransitions[transitionKey{from, action}]
	if !ok {
		return "", errInvalidTransition(string(action), from)
	}
	return to, nil
}

// CanTransition reports whether the action is legal from the given state.
func CanTransition(from MasterStatus, action MasterAction) bool {
	_, ok := masterTransitions[transitionKey{from, action}]
	return ok
}
