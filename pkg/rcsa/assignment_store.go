package rcsa

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AssignmentStore owns the master-to-unit target mapping and its activation
// state. Targets are mutable only while the master is draft; activation is
// flipped en masse by publish and archive.
type AssignmentStore struct {
	db *gorm.DB
}

// NewAssignmentStore creates a new AssignmentStore.
func NewAssignmentStore(db *gorm.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

// Reassign replaces the full target set for a draft master. The replacement
// is wholesale (delete-all then insert-all, inactive) inside one transaction,
// not an incremental diff, so the stored set always matches the submitted list.
func (s *AssignmentStore) Reassign(masterID int64, unitIDs []int64) error {
	if len(unitIDs) == 0 {
		return errValidation("at least one target unit is required", "unitIds")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var master MasterRecord
		if err := tx.First(&master, "id = ?", masterID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errNotFound("master not found")
			}
			return fmt.Errorf("load master: %w", err)
		}
		if master.Status != StatusDraft {
			return errInvalidTransition("reassign_units", master.Status)
		}

		if err := tx.Where("master_id = ?", masterID).Delete(&UnitAssignmentRecord{}).Error; err != nil {
			return fmt.Errorf("clear unit assignments: %w", err)
		}
		for _, uid := range unitIDs {
			row := &UnitAssignmentRecord{MasterID: masterID, UnitID: uid, IsActive: false}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("insert unit assignment: %w", err)
			}
		}
		return nil
	})
}

// ListTargets returns the target units of a master with activation state.
func (s *AssignmentStore) ListTargets(masterID int64) ([]TargetUnit, error) {
	type row struct {
		UnitID     int64
		UnitName   string
		UnitType   string
		IsActive   bool
		AssignedAt *time.Time
	}
	var rows []row
	err := s.db.Table("rcsa_master_units AS mu").
		Select("u.id AS unit_id, u.unit_name, u.unit_type, mu.is_active, mu.assigned_at").
		Joins("JOIN units u ON u.id = mu.unit_id").
		Where("mu.master_id = ?", masterID).
		Order("u.unit_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list target units: %w", err)
	}

	targets := make([]TargetUnit, len(rows))
	for i, r := range rows {
		targets[i] = TargetUnit{
			UnitID:     r.UnitID,
			UnitName:   r.UnitName,
			UnitType:   r.UnitType,
			IsActive:   r.IsActive,
			AssignedAt: formatTimePtr(r.AssignedAt),
		}
	}
	return targets, nil
}

// ListConsumers returns the units that have produced assessments against a
// master, with counts and last-used time. Read-only reporting projection.
func (s *AssignmentStore) ListConsumers(masterID int64) ([]ConsumerUnit, error) {
	type row struct {
		UnitID     int64
		UnitName   string
		UnitType   string
		UsedCount  int
		LastUsedAt *time.Time
	}
	var rows []row
	err := s.db.Table("rcsa_assessments AS ra").
		Select("u.id AS unit_id, u.unit_name, u.unit_type, COUNT(ra.id) AS used_count, MAX(ra.updated_at) AS last_used_at").
		Joins("JOIN units u ON u.id = ra.unit_id").
		Where("ra.master_id = ?", masterID).
		Group("u.id, u.unit_name, u.unit_type").
		Order("u.unit_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list consumer units: %w", err)
	}

	consumers := make([]ConsumerUnit, len(rows))
	for i, r := range rows {
		consumers[i] = ConsumerUnit{
			UnitID:          r.UnitID,
			UnitName:        r.UnitName,
			UnitType:        r.UnitType,
			AssessmentCount: r.UsedCount,
			LastUsedAt:      formatTimePtr(r.LastUsedAt),
		}
	}
	return consumers, nil
}

// countTargets counts assignment rows for a master inside a transaction.
func countTargets(tx *gorm.DB, masterID int64) (int64, error) {
	var count int64
	if err := tx.Model(&UnitAssignmentRecord{}).Where("master_id = ?", masterID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count unit assignments: %w", err)
	}
	return count, nil
}

// activateAll activates every assignment of a master and stamps assigned_at.
func activateAll(tx *gorm.DB, masterID int64, now time.Time) error {
	err := tx.Model(&UnitAssignmentRecord{}).
		Where("master_id = ?", masterID).
		Updates(map[string]any{"is_active": true, "assigned_at": now}).Error
	if err != nil {
		return fmt.Errorf("activate unit assignments: %w", err)
	}
	return nil
}

// deactivateAll deactivates every assignment of a master.
func deactivateAll(tx *gorm.DB, masterID int64) error {
	err := tx.Model(&UnitAssignmentRecord{}).
		Where("master_id = ?", masterID).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("deactivate unit assignments: %w", err)
	}
	return nil
}
