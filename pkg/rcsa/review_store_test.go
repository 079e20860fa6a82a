package rcsa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func submittedAssessment(t *testing.T, db *gorm.DB, unitID int64) *AssessmentRecord {
	t.Helper()
	master := publishedMaster(t, db, []int64{unitID})
	assessments := newAssessmentStore(db)
	rec, err := assessments.CreateOrUpdateDraft(master.ID, unitID, 3, completeFields())
	require.NoError(t, err)
	require.NoError(t, assessments.Submit(rec.ID, 3))
	return rec
}

func TestReviewClosesSubmittedAssessment(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	rec := submittedAssessment(t, db, unitIDs[0])
	reviews := NewReviewStore(db)

	note, err := reviews.Review(rec.ID, DecisionApproved, "controls are adequate", 2)
	require.NoError(t, err)
	assert.Equal(t, DecisionApproved, note.Decision)
	assert.Equal(t, int64(2), note.ReviewerID)

	var got AssessmentRecord
	require.NoError(t, db.First(&got, "id = ?", rec.ID).Error)
	assert.Equal(t, AssessmentReviewed, got.Status)
}

func TestReviewRejectionAlsoCloses(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	rec := submittedAssessment(t, db, unitIDs[0])
	reviews := NewReviewStore(db)

	_, err := reviews.Review(rec.ID, DecisionRejected, "scores not justified", 2)
	require.NoError(t, err)

	var got AssessmentRecord
	require.NoError(t, db.First(&got, "id = ?", rec.ID).Error)
	// Rejection does not reopen the instance; the author starts a new draft.
	assert.Equal(t, AssessmentReviewed, got.Status)
}

func TestReviewOnlySubmitted(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	master := publishedMaster(t, db, unitIDs)
	assessments := newAssessmentStore(db)
	reviews := NewReviewStore(db)

	draft, err := assessments.CreateOrUpdateDraft(master.ID, unitIDs[0], 3, completeFields())
	require.NoError(t, err)

	_, err = reviews.Review(draft.ID, DecisionApproved, "too early", 2)
	require.Error(t, err)
	assert.Equal(t, KindConflict, AsError(err).Kind)

	require.NoError(t, assessments.Submit(draft.ID, 3))
	_, err = reviews.Review(draft.ID, DecisionApproved, "fine now", 2)
	require.NoError(t, err)

	// Already reviewed: refused again.
	_, err = reviews.Review(draft.ID, DecisionRejected, "changed my mind", 2)
	require.Error(t, err)
	assert.Equal(t, KindConflict, AsError(err).Kind)
}

func TestReviewValidation(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	rec := submittedAssessment(t, db, unitIDs[0])
	reviews := NewReviewStore(db)

	_, err := reviews.Review(rec.ID, Decision("pending"), "note", 2)
	require.Error(t, err)
	assert.Equal(t, KindValidation, AsError(err).Kind)

	_, err = reviews.Review(rec.ID, DecisionApproved, "   ", 2)
	require.Error(t, err)
	e := AsError(err)
	assert.Equal(t, KindValidation, e.Kind)
	assert.Contains(t, e.Fields, "note")

	_, err = reviews.Review(99999, DecisionApproved, "note", 2)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, AsError(err).Kind)
}

func TestNotesNewestFirst(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	rec := submittedAssessment(t, db, unitIDs[0])
	reviews := NewReviewStore(db)

	_, err := reviews.Review(rec.ID, DecisionRejected, "first pass", 2)
	require.NoError(t, err)

	// A later note appended directly (history may span reopened cycles).
	require.NoError(t, db.Create(&ReviewNoteRecord{
		AssessmentID: rec.ID, ReviewerID: 5, Decision: DecisionApproved, Note: "second pass",
	}).Error)

	notes, err := reviews.Notes(rec.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "second pass", notes[0].Note)
	assert.Equal(t, "first pass", notes[1].Note)
}
