package rcsa

import (
	"fmt"

	"gorm.io/gorm"
)

// Gate evaluates the published+active precondition that must hold before any
// assessment mutation. It is stateless and computed fresh on every call:
// publish/archive can happen concurrently with assessment edits, so the
// result is never cached.
type Gate struct {
	db *gorm.DB
}

// NewGate creates a new Gate.
func NewGate(db *gorm.DB) *Gate {
	return &Gate{db: db}
}

// IsPublishedForUnit reports whether the master is published and actively
// mapped to the unit.
func (g *Gate) IsPublishedForUnit(masterID, unitID int64) (bool, error) {
	var count int64
	err := g.db.Model(&UnitAssignmentRecord{}).
		Joins("JOIN rcsa_masters m ON m.id = rcsa_master_units.master_id").
		Where("rcsa_master_units.master_id = ? AND rcsa_master_units.unit_id = ? AND rcsa_master_units.is_active = ? AND m.status = ?",
			masterID, unitID, true, StatusPublished).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("evaluate publish gate: %w", err)
	}
	return count > 0, nil
}

// check returns a forbidden error when the gate does not pass.
func (g *Gate) check(masterID, unitID int64) error {
	ok, err := g.IsPublishedForUnit(masterID, unitID)
	if err != nil {
		return err
	}
	if !ok {
		return errForbidden("master is not published or not active for this unit")
	}
	return nil
}
