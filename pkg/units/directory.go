// Package units exposes the read-only organizational unit directory that
// masters are assigned against. Units are provisioned out of band; this
// package only reads them.
package units

import (
	"fmt"

	"gorm.io/gorm"
)

// UnitRecord is the GORM model for an organizational unit.
type UnitRecord struct {
	ID       int64  `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	UnitName string `gorm:"column:unit_name;not null" json:"unitName"`
	UnitType string `gorm:"column:unit_type" json:"unitType,omitempty"`
	ParentID *int64 `gorm:"column:parent_id" json:"parentId,omitempty"`
}

// TableName returns the GORM table name.
func (UnitRecord) TableName() string { return "units" }

// Directory provides unit lookups.
type Directory struct {
	db *gorm.DB
}

// NewDirectory creates a new Directory.
func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// AutoMigrate creates or updates the units table.
func (d *Directory) AutoMigrate() error {
	if err := d.db.AutoMigrate(&UnitRecord{}); err != nil {
		return fmt.Errorf("auto-migrate units table: %w", err)
	}
	return nil
}

// Get retrieves a unit by id. Returns nil when the unit does not exist.
func (d *Directory) Get(id int64) (*UnitRecord, error) {
	var unit UnitRecord
	if err := d.db.First(&unit, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get unit: %w", err)
	}
	return &unit, nil
}

// List returns units ordered by name, optionally filtered by parent.
func (d *Directory) List(parentID *int64) ([]UnitRecord, error) {
	query := d.db.Order("unit_name ASC")
	if parentID != nil {
		query = query.Where("parent_id = ?", *parentID)
	}
	var recs []UnitRecord
	if err := query.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	return recs, nil
}
