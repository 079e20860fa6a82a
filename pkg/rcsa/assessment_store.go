package rcsa

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// AssessmentStore owns per-(master, unit, author) assessment instances. The
// publish gate is re-evaluated before every mutating call; it is never cached
// across calls.
type AssessmentStore struct {
	db   *gorm.DB
	gate *Gate
}

// NewAssessmentStore creates a new AssessmentStore.
func NewAssessmentStore(db *gorm.DB, gate *Gate) *AssessmentStore {
	return &AssessmentStore{db: db, gate: gate}
}

// submitRequired lists the fields that must be filled before submit, in the
// order they are reported back to the author.
var submitRequired = []struct {
	name  string
	blank func(*AssessmentRecord) bool
}{
	{"riskType", func(r *AssessmentRecord) bool { return strings.TrimSpace(r.RiskType) == "" }},
	{"cause", func(r *AssessmentRecord) bool { return strings.TrimSpace(r.Cause) == "" }},
	{"inherentImpact", func(r *AssessmentRecord) bool { return r.InherentImpact == nil }},
	{"inherentLikelihood", func(r *AssessmentRecord) bool { return r.InherentLikelihood == nil }},
	{"mitigation", func(r *AssessmentRecord) bool { return strings.TrimSpace(r.Mitigation) == "" }},
	{"residualImpact", func(r *AssessmentRecord) bool { return r.ResidualImpact == nil }},
	{"residualLikelihood", func(r *AssessmentRecord) bool { return r.ResidualLikelihood == nil }},
	{"actionPlan", func(r *AssessmentRecord) bool { return strings.TrimSpace(r.ActionPlan) == "" }},
	{"owner", func(r *AssessmentRecord) bool { return strings.TrimSpace(r.Owner) == "" }},
}

// missingFields returns the names of required fields still blank.
func missingFields(rec *AssessmentRecord) []string {
	var missing []string
	for _, f := range submitRequired {
		if f.blank(rec) {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// applyFields copies author input onto the record. Scores are clamped to the
// 1..5 scale and the derived value/level pairs are computed at write time.
func applyFields(rec *AssessmentRecord, fields AssessmentFields) {
	rec.RiskName = fields.RiskName
	rec.RiskType = fields.RiskType
	rec.Cause = fields.Cause
	rec.Mitigation = fields.Mitigation
	rec.ActionPlan = fields.ActionPlan
	rec.Owner = fields.Owner
	rec.Remark = fields.Remark

	rec.InherentImpact = ClampScore(fields.InherentImpact)
	rec.InherentLikelihood = ClampScore(fields.InherentLikelihood)
	rec.InherentValue = RiskValue(rec.InherentImpact, rec.InherentLikelihood)
	rec.InherentLevel = string(LevelForValue(rec.InherentValue))

	rec.ResidualImpact = ClampScore(fields.ResidualImpact)
	rec.ResidualLikelihood = ClampScore(fields.ResidualLikelihood)
	rec.ResidualValue = RiskValue(rec.ResidualImpact, rec.ResidualLikelihood)
	rec.ResidualLevel = string(LevelForValue(rec.ResidualValue))
}

// CreateOrUpdateDraft upserts the author's draft for (master, unit, author).
// A second create for the same triple updates the existing draft instead of
// inserting a duplicate; a submitted instance blocks with conflict. After a
// review closes the previous instance, a fresh draft row is started.
func (s *AssessmentStore) CreateOrUpdateDraft(masterID, unitID, authorID int64, fields AssessmentFields) (*AssessmentRecord, error) {
	if err := s.gate.check(masterID, unitID); err != nil {
		return nil, err
	}

	var rec *AssessmentRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing AssessmentRecord
		err := tx.Where("master_id = ? AND unit_id = ? AND created_by = ?", masterID, unitID, authorID).
			Order("id DESC").
			First(&existing).Error
		switch {
		case err == nil && existing.Status == AssessmentSubmitted:
			return errConflict("assessment already submitted; a new draft cannot be created")
		case err == nil && existing.Status == AssessmentDraft:
			applyFields(&existing, fields)
			existing.Status = AssessmentDraft
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("update assessment draft: %w", err)
			}
			rec = &existing
			return nil
		case err != nil && err != gorm.ErrRecordNotFound:
			return fmt.Errorf("load assessment: %w", err)
		}

		fresh := &AssessmentRecord{
			MasterID:  masterID,
			UnitID:    unitID,
			CreatedBy: authorID,
			Status:    AssessmentDraft,
		}
		applyFields(fresh, fields)
		if err := tx.Create(fresh).Error; err != nil {
			return fmt.Errorf("create assessment draft: %w", err)
		}
		rec = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateDraft modifies an existing draft owned by the author. The gate is
// re-checked against the assessment's own master/unit pair.
func (s *AssessmentStore) UpdateDraft(id, authorID int64, fields AssessmentFields) (*AssessmentRecord, error) {
	rec, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if rec.CreatedBy != authorID {
		return nil, errForbidden("assessment belongs to another author")
	}
	switch rec.Status {
	case AssessmentSubmitted:
		return nil, errConflict("assessment already submitted and cannot be changed")
	case AssessmentReviewed:
		return nil, errConflict("assessment already reviewed and cannot be changed")
	}
	if err := s.gate.check(rec.MasterID, rec.UnitID); err != nil {
		return nil, err
	}

	applyFields(rec, fields)
	rec.Status = AssessmentDraft
	if err := s.db.Save(rec).Error; err != nil {
		return nil, fmt.Errorf("update assessment draft: %w", err)
	}
	return rec, nil
}

// Submit moves a complete draft to submitted. Incomplete drafts fail with a
// validation error naming exactly the missing fields, leaving status at draft.
func (s *AssessmentStore) Submit(id, authorID int64) error {
	rec, err := s.load(id)
	if err != nil {
		return err
	}
	if rec.CreatedBy != authorID {
		return errForbidden("assessment belongs to another author")
	}
	switch rec.Status {
	case AssessmentSubmitted:
		return errConflict("assessment already submitted")
	case AssessmentReviewed:
		return errConflict("assessment already reviewed")
	}
	if err := s.gate.check(rec.MasterID, rec.UnitID); err != nil {
		return err
	}

	if missing := missingFields(rec); len(missing) > 0 {
		return errValidation("assessment is incomplete and cannot be submitted", missing...)
	}

	err = s.db.Model(&AssessmentRecord{}).Where("id = ?", id).
		Update("status", AssessmentSubmitted).Error
	if err != nil {
		return fmt.Errorf("submit assessment: %w", err)
	}
	return nil
}

// Get returns the full assessment view including its review notes.
func (s *AssessmentStore) Get(id int64) (*AssessmentDetail, error) {
	rec, err := s.load(id)
	if err != nil {
		return nil, err
	}
	views, err := s.decorate([]AssessmentRecord{*rec})
	if err != nil {
		return nil, err
	}

	var notes []ReviewNoteRecord
	err = s.db.Where("assessment_id = ?", id).Order("created_at ASC, id ASC").Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("load review notes: %w", err)
	}

	detail := &AssessmentDetail{Assessment: views[0], ReviewNotes: make([]ReviewNote, len(notes))}
	for i, n := range notes {
		detail.ReviewNotes[i] = noteToAPI(n)
	}
	return detail, nil
}

// ListSubmitted returns submitted assessments, optionally scoped to a unit.
func (s *AssessmentStore) ListSubmitted(unitID *int64) ([]Assessment, error) {
	query := s.db.Where("status = ?", AssessmentSubmitted)
	if unitID != nil {
		query = query.Where("unit_id = ?", *unitID)
	}
	var recs []AssessmentRecord
	if err := query.Order("id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list submitted assessments: %w", err)
	}
	return s.decorate(recs)
}

// ListDrafts returns one row per active published master for the unit,
// joined with the caller's own latest instance when one exists.
// excludeSubmitted keeps only rows still open to the author; incompleteOnly
// keeps only rows whose required fields are not all filled.
func (s *AssessmentStore) ListDrafts(unitID, authorID int64, excludeSubmitted, incompleteOnly bool) ([]DraftRow, error) {
	active, err := NewMasterStore(s.db).ActiveForUnit(unitID)
	if err != nil {
		return nil, err
	}

	var mine []AssessmentRecord
	err = s.db.Where("unit_id = ? AND created_by = ?", unitID, authorID).
		Order("id ASC").Find(&mine).Error
	if err != nil {
		return nil, fmt.Errorf("load author assessments: %w", err)
	}
	byMaster := make(map[int64]AssessmentRecord)
	for _, rec := range mine {
		byMaster[rec.MasterID] = rec // ascending order, last row wins
	}

	var rows []DraftRow
	for _, m := range active {
		row := DraftRow{
			MasterID:    m.ID,
			MasterName:  m.Name,
			Description: m.Description,
			UnitID:      unitID,
			UnitName:    m.UnitName,
			Status:      AssessmentDraft,
		}
		var rec *AssessmentRecord
		if found, ok := byMaster[m.ID]; ok {
			rec = &found
			row.AssessmentID = &found.ID
			row.Status = found.Status
			views, err := s.decorate([]AssessmentRecord{found})
			if err != nil {
				return nil, err
			}
			row.Assessment = &views[0]
		}

		if excludeSubmitted && row.Status != AssessmentDraft {
			continue
		}
		if incompleteOnly && rec != nil && len(missingFields(rec)) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// MineReviewed returns the author's reviewed assessments with the latest
// review note each; the latest note is the authoritative outcome.
func (s *AssessmentStore) MineReviewed(authorID int64) ([]ReviewedAssessment, error) {
	var recs []AssessmentRecord
	err := s.db.Where("created_by = ? AND status = ?", authorID, AssessmentReviewed).
		Order("updated_at DESC, id DESC").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list reviewed assessments: %w", err)
	}
	return s.withLatestNotes(recs)
}

// ReportReviewed returns every reviewed assessment with its latest decision,
// optionally scoped to a unit. Admin reporting projection.
func (s *AssessmentStore) ReportReviewed(unitID *int64) ([]ReviewedAssessment, error) {
	query := s.db.Where("status = ?", AssessmentReviewed)
	if unitID != nil {
		query = query.Where("unit_id = ?", *unitID)
	}
	var recs []AssessmentRecord
	if err := query.Order("updated_at DESC, id DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list reviewed assessments: %w", err)
	}
	return s.withLatestNotes(recs)
}

func (s *AssessmentStore) load(id int64) (*AssessmentRecord, error) {
	var rec AssessmentRecord
	if err := s.db.First(&rec, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errNotFound("assessment not found")
		}
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	return &rec, nil
}

// decorate converts records to API views with unit and master display names.
func (s *AssessmentStore) decorate(recs []AssessmentRecord) ([]Assessment, error) {
	unitIDs := make([]int64, 0, len(recs))
	masterIDs := make([]int64, 0, len(recs))
	for _, rec := range recs {
		unitIDs = append(unitIDs, rec.UnitID)
		masterIDs = append(masterIDs, rec.MasterID)
	}

	type unitRow struct {
		ID       int64
		UnitName string
		UnitType string
	}
	units := make(map[int64]unitRow)
	if len(unitIDs) > 0 {
		var rows []unitRow
		err := s.db.Table("units").Select("id, unit_name, unit_type").
			Where("id IN ?", unitIDs).Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("load unit names: %w", err)
		}
		for _, r := range rows {
			units[r.ID] = r
		}
	}

	masters := make(map[int64]MasterRecord)
	if len(masterIDs) > 0 {
		var rows []MasterRecord
		if err := s.db.Where("id IN ?", masterIDs).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("load masters: %w", err)
		}
		for _, r := range rows {
			masters[r.ID] = r
		}
	}

	views := make([]Assessment, len(recs))
	for i, rec := range recs {
		view := Assessment{
			ID:        rec.ID,
			MasterID:  rec.MasterID,
			UnitID:    rec.UnitID,
			CreatedBy: rec.CreatedBy,
			Status:    rec.Status,
			AssessmentFields: AssessmentFields{
				RiskName:           rec.RiskName,
				RiskType:           rec.RiskType,
				Cause:              rec.Cause,
				InherentImpact:     rec.InherentImpact,
				InherentLikelihood: rec.InherentLikelihood,
				Mitigation:         rec.Mitigation,
				ResidualImpact:     rec.ResidualImpact,
				ResidualLikelihood: rec.ResidualLikelihood,
				ActionPlan:         rec.ActionPlan,
				Owner:              rec.Owner,
				Remark:             rec.Remark,
			},
			InherentValue: rec.InherentValue,
			InherentLevel: RiskLevel(rec.InherentLevel),
			ResidualValue: rec.ResidualValue,
			ResidualLevel: RiskLevel(rec.ResidualLevel),
			CreatedAt:     formatTime(rec.CreatedAt),
			UpdatedAt:     formatTime(rec.UpdatedAt),
		}
		if u, ok := units[rec.UnitID]; ok {
			view.UnitName = u.UnitName
			view.UnitType = u.UnitType
		}
		if m, ok := masters[rec.MasterID]; ok {
			view.MasterName = m.Name
			view.MasterDescription = m.Description
		}
		views[i] = view
	}
	return views, nil
}

func (s *AssessmentStore) withLatestNotes(recs []AssessmentRecord) ([]ReviewedAssessment, error) {
	views, err := s.decorate(recs)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	latest := make(map[int64]ReviewNoteRecord)
	if len(ids) > 0 {
		var notes []ReviewNoteRecord
		err := s.db.Where("assessment_id IN ?", ids).
			Order("created_at ASC, id ASC").Find(&notes).Error
		if err != nil {
			return nil, fmt.Errorf("load review notes: %w", err)
		}
		for _, n := range notes {
			latest[n.AssessmentID] = n // ascending order, last note wins
		}
	}

	reviewed := make([]ReviewedAssessment, len(views))
	for i, view := range views {
		rv := ReviewedAssessment{Assessment: view}
		if n, ok := latest[view.ID]; ok {
			reviewerID := n.ReviewerID
			rv.Decision = n.Decision
			rv.Note = n.Note
			rv.ReviewerID = &reviewerID
			rv.ReviewedAt = formatTime(n.CreatedAt)
		}
		reviewed[i] = rv
	}
	return reviewed, nil
}

func noteToAPI(n ReviewNoteRecord) ReviewNote {
	return ReviewNote{
		ID:           n.ID,
		AssessmentID: n.AssessmentID,
		ReviewerID:   n.ReviewerID,
		Decision:     n.Decision,
		Note:         n.Note,
		CreatedAt:    formatTime(n.CreatedAt),
	}
}
