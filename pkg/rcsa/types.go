// Package rcsa implements the RCSA workflow core: master templates and their
// approval/publication lifecycle, unit assignments, per-unit assessment
// instances, and review recording.
package rcsa

import "time"

// MasterStatus represents master template lifecycle states.
type MasterStatus string

const (
	StatusDraft           MasterStatus = "draft"
	StatusPendingApproval MasterStatus = "pending_approval"
	StatusApproved        MasterStatus = "approved"
	StatusRejected        MasterStatus = "rejected"
	StatusPublished       MasterStatus = "published"
	StatusArchived        MasterStatus = "archived"
)

// AssessmentStatus represents assessment lifecycle states. The status only
// ever advances draft -> submitted -> reviewed.
type AssessmentStatus string

const (
	AssessmentDraft     AssessmentStatus = "draft"
	AssessmentSubmitted AssessmentStatus = "submitted"
	AssessmentReviewed  AssessmentStatus = "reviewed"
)

// Decision represents an approval or review outcome.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// RiskLevel is the qualitative level derived from a risk value.
type RiskLevel string

const (
	LevelLow      RiskLevel = "Low"
	LevelMedium   RiskLevel = "Medium"
	LevelHigh     RiskLevel = "High"
	LevelVeryHigh RiskLevel = "Very High"
)

// CreateMasterRequest is the request body for creating a master.
type CreateMasterRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	UnitIDs     []int64 `json:"unitIds"`
}

// UpdateMasterRequest is the request body for updating a draft master.
type UpdateMasterRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ReassignRequest is the request body for wholesale unit reassignment.
type ReassignRequest struct {
	UnitIDs []int64 `json:"unitIds"`
}

// DecisionRequest is the request body for approving or rejecting a pending master.
type DecisionRequest struct {
	Decision Decision `json:"decision"`
	Note     string   `json:"note"`
}

// ReviewRequest is the request body for recording a review on a submitted assessment.
type ReviewRequest struct {
	Decision Decision `json:"decision"`
	Note     string   `json:"note"`
}

// AssessmentFields carries the author-editable fields of an assessment draft.
// Score pointers distinguish "not filled" from zero.
type AssessmentFields struct {
	RiskName           string `json:"riskName,omitempty"`
	RiskType           string `json:"riskType,omitempty"`
	Cause              string `json:"cause,omitempty"`
	InherentImpact     *int   `json:"inherentImpact,omitempty"`
	InherentLikelihood *int   `json:"inherentLikelihood,omitempty"`
	Mitigation         string `json:"mitigation,omitempty"`
	ResidualImpact     *int   `json:"residualImpact,omitempty"`
	ResidualLikelihood *int   `json:"residualLikelihood,omitempty"`
	ActionPlan         string `json:"actionPlan,omitempty"`
	Owner              string `json:"owner,omitempty"`
	Remark             string `json:"remark,omitempty"`
}

// CreateDraftRequest is the request body for the create-or-update draft call.
type CreateDraftRequest struct {
	MasterID int64 `json:"masterId"`
	UnitID   int64 `json:"unitId"`
	AssessmentFields
}

// Master is the API-facing master template.
type Master struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Status      MasterStatus `json:"status"`
	CreatedBy   int64        `json:"createdBy"`
	SubmittedBy *int64       `json:"submittedBy,omitempty"`
	SubmittedAt string       `json:"submittedAt,omitempty"`
	ApprovedBy  *int64       `json:"approvedBy,omitempty"`
	ApprovedAt  string       `json:"approvedAt,omitempty"`
	CreatedAt   string       `json:"createdAt"`
}

// MasterSummary is a master list row with usage and last-decision info.
type MasterSummary struct {
	Master
	TargetUnits   int      `json:"targetUnits"`
	UsedCount     int      `json:"usedCount"`
	LastDecision  Decision `json:"lastDecision,omitempty"`
	LastNote      string   `json:"lastNote,omitempty"`
	LastDecidedAt string   `json:"lastDecidedAt,omitempty"`
}

// TargetUnit is a unit the master is assigned to, with activation state.
type TargetUnit struct {
	UnitID     int64  `json:"unitId"`
	UnitName   string `json:"unitName"`
	UnitType   string `json:"unitType,omitempty"`
	IsActive   bool   `json:"isActive"`
	AssignedAt string `json:"assignedAt,omitempty"`
}

// ConsumerUnit is a unit that has produced assessments against a master.
type ConsumerUnit struct {
	UnitID          int64  `json:"unitId"`
	UnitName        string `json:"unitName"`
	UnitType        string `json:"unitType,omitempty"`
	AssessmentCount int    `json:"assessmentCount"`
	LastUsedAt      string `json:"lastUsedAt,omitempty"`
}

// MasterDetail is the admin detail view: master plus target and consumer units.
type MasterDetail struct {
	Master      Master         `json:"master"`
	TargetUnits []TargetUnit   `json:"targetUnits"`
	UsedByUnits []ConsumerUnit `json:"usedByUnits"`
}

// ActiveMaster is a published master active for a unit.
type ActiveMaster struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UnitName    string `json:"unitName"`
}

// UnitMaster is a master targeting a given unit, regardless of state.
type UnitMaster struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Status      MasterStatus `json:"status"`
	IsActive    bool         `json:"isActive"`
}

// InboxItem is a pending approval awaiting a decision.
type InboxItem struct {
	ApprovalID      int64        `json:"approvalId"`
	MasterID        int64        `json:"masterId"`
	Name            string       `json:"name"`
	Description     string       `json:"description,omitempty"`
	Status          MasterStatus `json:"status"`
	CreatedBy       int64        `json:"createdBy"`
	StepOrder       int          `json:"stepOrder"`
	ApproverUserID  *int64       `json:"approverUserId,omitempty"`
	TargetUnitCount int          `json:"targetUnitCount"`
	TargetUnits     string       `json:"targetUnits,omitempty"`
	CreatedAt       string       `json:"createdAt"`
}

// Assessment is the API-facing assessment instance.
type Assessment struct {
	ID        int64            `json:"id"`
	MasterID  int64            `json:"masterId"`
	UnitID    int64            `json:"unitId"`
	CreatedBy int64            `json:"createdBy"`
	Status    AssessmentStatus `json:"status"`
	AssessmentFields
	InherentValue  *int      `json:"inherentValue,omitempty"`
	InherentLevel  RiskLevel `json:"inherentLevel,omitempty"`
	ResidualValue  *int      `json:"residualValue,omitempty"`
	ResidualLevel  RiskLevel `json:"residualLevel,omitempty"`
	CreatedAt      string    `json:"createdAt"`
	UpdatedAt      string    `json:"updatedAt"`
	UnitName       string    `json:"unitName,omitempty"`
	UnitType       string    `json:"unitType,omitempty"`
	MasterName     string    `json:"masterName,omitempty"`
	MasterDescription string `json:"masterDescription,omitempty"`
}

// DraftRow is one row of the drafts view: an active published master for the
// unit, joined with the caller's own draft if one exists.
type DraftRow struct {
	MasterID     int64            `json:"masterId"`
	MasterName   string           `json:"masterName"`
	Description  string           `json:"description,omitempty"`
	UnitID       int64            `json:"unitId"`
	UnitName     string           `json:"unitName"`
	UnitType     string           `json:"unitType,omitempty"`
	AssessmentID *int64           `json:"assessmentId,omitempty"`
	Status       AssessmentStatus `json:"status"`
	Assessment   *Assessment      `json:"assessment,omitempty"`
}

// ReviewNote is one immutable review decision on an assessment.
type ReviewNote struct {
	ID           int64    `json:"id"`
	AssessmentID int64    `json:"assessmentId"`
	ReviewerID   int64    `json:"reviewerId"`
	Decision     Decision `json:"decision"`
	Note         string   `json:"note"`
	CreatedAt    string   `json:"createdAt"`
}

// ReviewedAssessment is a reviewed assessment with its latest note, as seen by
// the author's history and the admin report.
type ReviewedAssessment struct {
	Assessment
	Decision   Decision `json:"decision,omitempty"`
	Note       string   `json:"note,omitempty"`
	ReviewerID *int64   `json:"reviewerId,omitempty"`
	ReviewedAt string   `json:"reviewedAt,omitempty"`
}

// AssessmentDetail is the full assessment view including review notes.
type AssessmentDetail struct {
	Assessment  Assessment   `json:"assessment"`
	ReviewNotes []ReviewNote `json:"reviewNotes"`
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
