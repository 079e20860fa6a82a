package rcsa

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// MasterStore owns master lifecycle transitions and their preconditions.
// Every multi-row mutation runs in one transaction; a typed workflow error
// returned from inside the transaction rolls it back before it propagates.
type MasterStore struct {
	db *gorm.DB
}

// NewMasterStore creates a new MasterStore.
func NewMasterStore(db *gorm.DB) *MasterStore {
	return &MasterStore{db: db}
}

// AutoMigrate creates or updates all workflow tables.
func (s *MasterStore) AutoMigrate() error {
	for _, model := range []any{
		&MasterRecord{},
		&UnitAssignmentRecord{},
		&ApprovalStepRecord{},
		&AssessmentRecord{},
		&ReviewNoteRecord{},
	} {
		if err := s.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("auto-migrate workflow tables: %w", err)
		}
	}
	return nil
}

// Create inserts a draft master and one inactive assignment per target unit.
func (s *MasterStore) Create(req CreateMasterRequest, creator int64) (*MasterRecord, error) {
	var missing []string
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if len(req.UnitIDs) == 0 {
		missing = append(missing, "unitIds")
	}
	if len(missing) > 0 {
		return nil, errValidation("name and at least one target unit are required", missing...)
	}

	master := &MasterRecord{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Status:      StatusDraft,
		CreatedBy:   creator,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(master).Error; err != nil {
			return fmt.Errorf("create master: %w", err)
		}
		for _, uid := range req.UnitIDs {
			row := &UnitAssignmentRecord{MasterID: master.ID, UnitID: uid, IsActive: false}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("insert unit assignment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return master, nil
}

// Update changes name/description of a draft master.
func (s *MasterStore) Update(id int64, req UpdateMasterRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errValidation("name is required", "name")
	}
	master, err := s.Get(id)
	if err != nil {
		return err
	}
	if master.Status != StatusDraft {
		return errInvalidTransition("update", master.Status)
	}

	err = s.db.Model(&MasterRecord{}).Where("id = ?", id).
		Updates(map[string]any{"name": strings.TrimSpace(req.Name), "description": req.Description}).Error
	if err != nil {
		return fmt.Errorf("update master: %w", err)
	}
	return nil
}

// Submit routes a draft or rejected master into the single-step approval:
// prior approval rows are cleared, one fresh pending step is inserted, and
// the master moves to pending_approval with submitter/time recorded. One
// transaction; approval history does not survive resubmission.
func (s *MasterStore) Submit(id, submitter int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var master MasterRecord
		if err := tx.First(&master, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errNotFound("master not found")
			}
			return fmt.Errorf("load master: %w", err)
		}

		next, err := NextStatus(master.Status, ActionSubmit)
		if err != nil {
			return err
		}

		targets, err := countTargets(tx, id)
		if err != nil {
			return err
		}
		if targets == 0 {
			return errValidation("master has no target units", "unitIds")
		}

		if err := tx.Where("master_id = ?", id).Delete(&ApprovalStepRecord{}).Error; err != nil {
			return fmt.Errorf("clear approval steps: %w", err)
		}
		step := &ApprovalStepRecord{MasterID: id, StepOrder: 1, Decision: DecisionPending}
		if err := tx.Create(step).Error; err != nil {
			return fmt.Errorf("insert approval step: %w", err)
		}

		now := time.Now()
		updates := map[string]any{
			"status":       next,
			"submitted_by": submitter,
			"submitted_at": now,
		}
		if err := tx.Model(&MasterRecord{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("update master status: %w", err)
		}
		return nil
	})
}

// Publish moves an approved master to published and activates every unit
// assignment, stamping assigned_at. Atomic.
func (s *MasterStore) Publish(id int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var master MasterRecord
		if err := tx.First(&master, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errNotFound("master not found")
			}
			return fmt.Errorf("load master: %w", err)
		}

		next, err := NextStatus(master.Status, ActionPublish)
		if err != nil {
			return err
		}

		if err := activateAll(tx, id, time.Now()); err != nil {
			return err
		}
		if err := tx.Model(&MasterRecord{}).Where("id = ?", id).Update("status", next).Error; err != nil {
			return fmt.Errorf("update master status: %w", err)
		}
		return nil
	})
}

// Archive moves a master to archived and deactivates all unit assignments.
// Allowed from any non-draft, non-archived status: used masters are never
// deleted, only archived.
func (s *MasterStore) Archive(id int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var master MasterRecord
		if err := tx.First(&master, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errNotFound("master not found")
			}
			return fmt.Errorf("load master: %w", err)
		}

		next, err := NextStatus(master.Status, ActionArchive)
		if err != nil {
			return err
		}

		if err := deactivateAll(tx, id); err != nil {
			return err
		}
		if err := tx.Model(&MasterRecord{}).Where("id = ?", id).Update("status", next).Error; err != nil {
			return fmt.Errorf("update master status: %w", err)
		}
		return nil
	})
}

// Delete removes a draft master that no assessment references, along with its
// assignments and approval rows. Anything else must be archived instead.
func (s *MasterStore) Delete(id int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var master MasterRecord
		if err := tx.First(&master, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errNotFound("master not found")
			}
			return fmt.Errorf("load master: %w", err)
		}
		if master.Status != StatusDraft {
			return errConflict("only draft masters can be deleted; archive it instead")
		}

		var used int64
		if err := tx.Model(&AssessmentRecord{}).Where("master_id = ?", id).Count(&used).Error; err != nil {
			return fmt.Errorf("count assessments: %w", err)
		}
		if used > 0 {
			return errConflict("master is referenced by assessments and cannot be deleted; archive it instead")
		}

		if err := tx.Where("master_id = ?", id).Delete(&UnitAssignmentRecord{}).Error; err != nil {
			return fmt.Errorf("delete unit assignments: %w", err)
		}
		if err := tx.Where("master_id = ?", id).Delete(&ApprovalStepRecord{}).Error; err != nil {
			return fmt.Errorf("delete approval steps: %w", err)
		}
		if err := tx.Delete(&MasterRecord{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete master: %w", err)
		}
		return nil
	})
}

// Get retrieves a master by id.
func (s *MasterStore) Get(id int64) (*MasterRecord, error) {
	var master MasterRecord
	if err := s.db.First(&master, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errNotFound("master not found")
		}
		return nil, fmt.Errorf("get master: %w", err)
	}
	return &master, nil
}

// List returns all masters, newest first, with target/usage counts and the
// most recent approval decision per master.
func (s *MasterStore) List() ([]MasterSummary, error) {
	var masters []MasterRecord
	if err := s.db.Order("created_at DESC, id DESC").Find(&masters).Error; err != nil {
		return nil, fmt.Errorf("list masters: %w", err)
	}

	type countRow struct {
		MasterID int64
		N        int
	}
	var targetCounts []countRow
	err := s.db.Model(&UnitAssignmentRecord{}).
		Select("master_id, COUNT(*) AS n").Group("master_id").Scan(&targetCounts).Error
	if err != nil {
		return nil, fmt.Errorf("count target units: %w", err)
	}
	var usedCounts []countRow
	err = s.db.Model(&AssessmentRecord{}).
		Select("master_id, COUNT(*) AS n").Group("master_id").Scan(&usedCounts).Error
	if err != nil {
		return nil, fmt.Errorf("count assessments: %w", err)
	}

	targets := make(map[int64]int, len(targetCounts))
	for _, c := range targetCounts {
		targets[c.MasterID] = c.N
	}
	used := make(map[int64]int, len(usedCounts))
	for _, c := range usedCounts {
		used[c.MasterID] = c.N
	}

	// Latest decided step per master: rows come back newest first, first
	// seen wins.
	var steps []ApprovalStepRecord
	err = s.db.Where("decided_at IS NOT NULL").
		Order("decided_at DESC, created_at DESC").Find(&steps).Error
	if err != nil {
		return nil, fmt.Errorf("load approval decisions: %w", err)
	}
	latest := make(map[int64]ApprovalStepRecord)
	for _, step := range steps {
		if _, ok := latest[step.MasterID]; !ok {
			latest[step.MasterID] = step
		}
	}

	summaries := make([]MasterSummary, len(masters))
	for i, m := range masters {
		summary := MasterSummary{
			Master:      masterToAPI(&m),
			TargetUnits: targets[m.ID],
			UsedCount:   used[m.ID],
		}
		if step, ok := latest[m.ID]; ok {
			summary.LastDecision = step.Decision
			summary.LastNote = step.Note
			summary.LastDecidedAt = formatTimePtr(step.DecidedAt)
		}
		summaries[i] = summary
	}
	return summaries, nil
}

// ActiveForUnit returns published masters actively mapped to the unit,
// the set a unit user can draft assessments against.
func (s *MasterStore) ActiveForUnit(unitID int64) ([]ActiveMaster, error) {
	var rows []ActiveMaster
	err := s.db.Table("rcsa_master_units AS mu").
		Select("m.id, m.name, m.description, u.unit_name").
		Joins("JOIN rcsa_masters m ON m.id = mu.master_id").
		Joins("JOIN units u ON u.id = mu.unit_id").
		Where("mu.unit_id = ? AND mu.is_active = ? AND m.status = ?", unitID, true, StatusPublished).
		Order("m.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list active masters for unit: %w", err)
	}
	return rows, nil
}

// ByUnit returns every master targeting the unit regardless of state.
// Admin preview projection.
func (s *MasterStore) ByUnit(unitID int64) ([]UnitMaster, error) {
	var rows []UnitMaster
	err := s.db.Table("rcsa_master_units AS mu").
		Select("m.id, m.name, m.description, m.status, mu.is_active").
		Joins("JOIN rcsa_masters m ON m.id = mu.master_id").
		Where("mu.unit_id = ?", unitID).
		Order("m.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list masters by unit: %w", err)
	}
	return rows, nil
}

func masterToAPI(m *MasterRecord) Master {
	return Master{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Status:      m.Status,
		CreatedBy:   m.CreatedBy,
		SubmittedBy: m.SubmittedBy,
		SubmittedAt: formatTimePtr(m.SubmittedAt),
		ApprovedBy:  m.ApprovedBy,
		ApprovedAt:  formatTimePtr(m.ApprovedAt),
		CreatedAt:   formatTime(m.CreatedAt),
	}
}
