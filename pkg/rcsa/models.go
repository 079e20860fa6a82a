package rcsa

import "time"

// MasterRecord is the GORM model for a risk master template.
type MasterRecord struct {
	ID          int64        `gorm:"primaryKey;column:id;autoIncrement"`
	Name        string       `gorm:"column:name;not null"`
	Description string       `gorm:"column:description"`
	Status      MasterStatus `gorm:"column:status;index:idx_master_status;default:draft;not null"`
	CreatedBy   int64        `gorm:"column:created_by;not null"`
	SubmittedBy *int64       `gorm:"column:submitted_by"`
	SubmittedAt *time.Time   `gorm:"column:submitted_at"`
	ApprovedBy  *int64       `gorm:"column:approved_by"`
	ApprovedAt  *time.Time   `gorm:"column:approved_at"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (MasterRecord) TableName() string { return "rcsa_masters" }

// UnitAssignmentRecord is the GORM model for a master-to-unit target mapping.
// Rows are created inactive and activated en masse on publish.
type UnitAssignmentRecord struct {
	ID         int64      `gorm:"primaryKey;column:id;autoIncrement"`
	MasterID   int64      `gorm:"column:master_id;uniqueIndex:idx_assignment_master_unit,priority:1;not null"`
	UnitID     int64      `gorm:"column:unit_id;uniqueIndex:idx_assignment_master_unit,priority:2;not null"`
	IsActive   bool       `gorm:"column:is_active;default:false;not null"`
	AssignedAt *time.Time `gorm:"column:assigned_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the GORM table name.
func (UnitAssignmentRecord) TableName() string { return "rcsa_master_units" }

// ApprovalStepRecord is the GORM model for a master approval step. The design
// is single-step: step_order is always 1 and at most one row is pending per
// master. Prior rows are cleared on every (re)submission.
type ApprovalStepRecord struct {
	ID             int64      `gorm:"primaryKey;column:id;autoIncrement"`
	MasterID       int64      `gorm:"column:master_id;index:idx_approval_master;not null"`
	StepOrder      int        `gorm:"column:step_order;default:1;not null"`
	ApproverUserID *int64     `gorm:"column:approver_user_id"`
	Decision       Decision   `gorm:"column:decision;index:idx_approval_decision;default:pending;not null"`
	Note           string     `gorm:"column:note"`
	DecidedAt      *time.Time `gorm:"column:decided_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the GORM table name.
func (ApprovalStepRecord) TableName() string { return "rcsa_master_approvals" }

// AssessmentRecord is the GORM model for a per-unit assessment instance.
// At most one open (draft or submitted) instance exists per (master, unit,
// author) triple; reviewed instances stay behind as closed history.
type AssessmentRecord struct {
	ID                 int64            `gorm:"primaryKey;column:id;autoIncrement"`
	MasterID           int64            `gorm:"column:master_id;index:idx_assessment_triple,priority:1;not null"`
	UnitID             int64            `gorm:"column:unit_id;index:idx_assessment_triple,priority:2;not null"`
	CreatedBy          int64            `gorm:"column:created_by;index:idx_assessment_triple,priority:3;not null"`
	RiskName           string           `gorm:"column:risk_name"`
	RiskType           string           `gorm:"column:risk_type"`
	Cause              string           `gorm:"column:cause"`
	InherentImpact     *int             `gorm:"column:inherent_impact"`
	InherentLikelihood *int             `gorm:"column:inherent_likelihood"`
	InherentValue      *int             `gorm:"column:inherent_value"`
	InherentLevel      string           `gorm:"column:inherent_level"`
	Mitigation         string           `gorm:"column:mitigation"`
	ResidualImpact     *int             `gorm:"column:residual_impact"`
	ResidualLikelihood *int             `gorm:"column:residual_likelihood"`
	ResidualValue      *int             `gorm:"column:residual_value"`
	ResidualLevel      string           `gorm:"column:residual_level"`
	ActionPlan         string           `gorm:"column:action_plan"`
	Owner              string           `gorm:"column:owner"`
	Remark             string           `gorm:"column:remark"`
	Status             AssessmentStatus `gorm:"column:status;index:idx_assessment_status;default:draft;not null"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (AssessmentRecord) TableName() string { return "rcsa_assessments" }

// ReviewNoteRecord is the GORM model for an immutable review decision.
type ReviewNoteRecord struct {
	ID           int64     `gorm:"primaryKey;column:id;autoIncrement"`
	AssessmentID int64     `gorm:"column:assessment_id;index:idx_note_assessment;not null"`
	ReviewerID   int64     `gorm:"column:reviewer_id;not null"`
	Decision     Decision  `gorm:"column:decision;not null"`
	Note         string    `gorm:"column:note;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the GORM table name.
func (ReviewNoteRecord) TableName() string { return "rcsa_review_notes" }
