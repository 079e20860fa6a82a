package rcsa

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ReviewStore records reviewer decisions on submitted assessments. Notes are
// append-only; the assessment itself only ever moves to reviewed.
type ReviewStore struct {
	db *gorm.DB
}

// NewReviewStore creates a new ReviewStore.
func NewReviewStore(db *gorm.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

// Review appends a decision note to a submitted assessment and moves it to
// reviewed in the same transaction. Only submitted assessments can be
// reviewed; a second review of the same instance fails with conflict.
func (s *ReviewStore) Review(assessmentID int64, decision Decision, note string, reviewerID int64) (*ReviewNote, error) {
	if decision != DecisionApproved && decision != DecisionRejected {
		return nil, errValidation("decision must be approved or rejected", "decision")
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, errValidation("a review note is required", "note")
	}

	rec := &ReviewNoteRecord{
		AssessmentID: assessmentID,
		ReviewerID:   reviewerID,
		Decision:     decision,
		Note:         note,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var assessment AssessmentRecord
		if err := tx.First(&assessment, "id = ?", assessmentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errNotFound("assessment not found")
			}
			return fmt.Errorf("load assessment: %w", err)
		}
		if assessment.Status != AssessmentSubmitted {
			return errConflict(fmt.Sprintf("assessment is %s and cannot be reviewed", assessment.Status))
		}

		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("insert review note: %w", err)
		}
		err := tx.Model(&AssessmentRecord{}).Where("id = ?", assessmentID).
			Update("status", AssessmentReviewed).Error
		if err != nil {
			return fmt.Errorf("mark assessment reviewed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := noteToAPI(*rec)
	return &view, nil
}

// Notes returns the review history of an assessment, newest first.
func (s *ReviewStore) Notes(assessmentID int64) ([]ReviewNote, error) {
	var recs []ReviewNoteRecord
	err := s.db.Where("assessment_id = ?", assessmentID).
		Order("created_at DESC, id DESC").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list review notes: %w", err)
	}
	notes := make([]ReviewNote, len(recs))
	for i, rec := range recs {
		notes[i] = noteToAPI(rec)
	}
	return notes, nil
}
