package rcsa

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ApprovalStore coordinates the single pending approval step per master.
// Any principal holding the approve capability may act on any pending step;
// the first to act claims it exclusively. The claim is a single conditional
// UPDATE on approver_user_id IS NULL — the storage engine's atomicity for
// that statement is the only correctness mechanism, never read-then-write.
type ApprovalStore struct {
	db *gorm.DB
}

// NewApprovalStore creates a new ApprovalStore.
func NewApprovalStore(db *gorm.DB) *ApprovalStore {
	return &ApprovalStore{db: db}
}

// Claim takes exclusive ownership of a pending step for an approver.
// Re-entry by the same approver is idempotent; a step claimed by someone
// else fails with forbidden; losing the conditional update fails with
// conflict.
func (s *ApprovalStore) Claim(stepID, approverID int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var step ApprovalStepRecord
		if err := tx.First(&step, "id = ?", stepID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errNotFound("approval step not found")
			}
			return fmt.Errorf("load approval step: %w", err)
		}
		return claimStep(tx, &step, approverID)
	})
}

// claimStep performs the claim inside the caller's transaction.
func claimStep(tx *gorm.DB, step *ApprovalStepRecord, approverID int64) error {
	if step.ApproverUserID != nil {
		if *step.ApproverUserID != approverID {
			return errForbidden("approval is being handled by another approver")
		}
		return nil
	}

	result := tx.Model(&ApprovalStepRecord{}).
		Where("id = ? AND approver_user_id IS NULL", step.ID).
		Update("approver_user_id", approverID)
	if result.Error != nil {
		return fmt.Errorf("claim approval step: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Zero rows means someone else won the conditional update.
		return errConflict("approval already claimed by another approver")
	}
	step.ApproverUserID = &approverID
	return nil
}

// Decide claims the master's pending step and records the decision, moving
// the master to approved or rejected in the same transaction. Two approvers
// racing here never both succeed: the loser gets conflict from the claim.
func (s *ApprovalStore) Decide(masterID int64, decision Decision, note string, approverID int64) error {
	if decision != DecisionApproved && decision != DecisionRejected {
		return errValidation("decision must be approved or rejected", "decision")
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return errValidation("a decision note is required", "note")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var step ApprovalStepRecord
		err := tx.Where("master_id = ? AND decision = ?", masterID, DecisionPending).
			Order("step_order ASC").
			First(&step).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errNotFound("no pending approval step for this master")
			}
			return fmt.Errorf("load pending approval step: %w", err)
		}

		if err := claimStep(tx, &step, approverID); err != nil {
			return err
		}

		now := time.Now()
		err = tx.Model(&ApprovalStepRecord{}).Where("id = ?", step.ID).
			Updates(map[string]any{
				"decision":   decision,
				"note":       note,
				"decided_at": now,
			}).Error
		if err != nil {
			return fmt.Errorf("record decision: %w", err)
		}

		var master MasterRecord
		if err := tx.First(&master, "id = ?", masterID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errNotFound("master not found")
			}
			return fmt.Errorf("load master: %w", err)
		}

		action := ActionApprove
		if decision == DecisionRejected {
			action = ActionReject
		}
		next, err := NextStatus(master.Status, action)
		if err != nil {
			return err
		}

		updates := map[string]any{"status": next}
		if decision == DecisionRejected {
			updates["approved_at"] = nil
			updates["approved_by"] = nil
		} else {
			updates["approved_at"] = now
			updates["approved_by"] = approverID
		}
		if err := tx.Model(&MasterRecord{}).Where("id = ?", masterID).Updates(updates).Error; err != nil {
			return fmt.Errorf("update master status: %w", err)
		}
		return nil
	})
}

// Inbox lists pending-approval masters whose step is still undecided, with
// target-unit summaries. Read-only.
func (s *ApprovalStore) Inbox() ([]InboxItem, error) {
	type row struct {
		ApprovalID     int64
		MasterID       int64
		Name           string
		Description    string
		Status         MasterStatus
		CreatedBy      int64
		StepOrder      int
		ApproverUserID *int64
		CreatedAt      time.Time
	}
	var rows []row
	err := s.db.Table("rcsa_masters AS m").
		Select("a.id AS approval_id, m.id AS master_id, m.name, m.description, m.status, m.created_by, a.step_order, a.approver_user_id, m.created_at").
		Joins("JOIN rcsa_master_approvals a ON a.master_id = m.id").
		Where("m.status = ? AND a.decision = ?", StatusPendingApproval, DecisionPending).
		Order("m.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list approval inbox: %w", err)
	}

	items := make([]InboxItem, len(rows))
	for i, r := range rows {
		item := InboxItem{
			ApprovalID:     r.ApprovalID,
			MasterID:       r.MasterID,
			Name:           r.Name,
			Description:    r.Description,
			Status:         r.Status,
			CreatedBy:      r.CreatedBy,
			StepOrder:      r.StepOrder,
			ApproverUserID: r.ApproverUserID,
			CreatedAt:      formatTime(r.CreatedAt),
		}

		type unitRow struct {
			UnitName string
		}
		var units []unitRow
		err := s.db.Table("rcsa_master_units AS mu").
			Select("u.unit_name").
			Joins("JOIN units u ON u.id = mu.unit_id").
			Where("mu.master_id = ?", r.MasterID).
			Order("u.unit_name ASC").
			Scan(&units).Error
		if err != nil {
			return nil, fmt.Errorf("list inbox target units: %w", err)
		}
		names := make([]string, len(units))
		for j, u := range units {
			names[j] = u.UnitName
		}
		item.TargetUnitCount = len(names)
		item.TargetUnits = strings.Join(names, ", ")
		items[i] = item
	}
	return items, nil
}

// PendingStep returns the lowest pending step for a master, or nil.
func (s *ApprovalStore) PendingStep(masterID int64) (*ApprovalStepRecord, error) {
	var step ApprovalStepRecord
	err := s.db.Where("master_id = ? AND decision = ?", masterID, DecisionPending).
		Order("step_order ASC").
		First(&step).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("load pending approval step: %w", err)
	}
	return &step, nil
}
