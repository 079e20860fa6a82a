package rcsa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func completeFields() AssessmentFields {
	return AssessmentFields{
		RiskName:           "Manual payment entry errors",
		RiskType:           "Operational",
		Cause:              "No dual control on payment entry",
		InherentImpact:     intp(4),
		InherentLikelihood: intp(5),
		Mitigation:         "Four-eyes check on all entries",
		ResidualImpact:     intp(2),
		ResidualLikelihood: intp(2),
		ActionPlan:         "Automate entry validation by Q2",
		Owner:              "Head of Operations",
	}
}

func newAssessmentStore(db *gorm.DB) *AssessmentStore {
	return NewAssessmentStore(db, NewGate(db))
}

func TestCreateDraftBlockedByGate(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	masters := NewMasterStore(db)
	assessments := newAssessmentStore(db)

	master, err := masters.Create(CreateMasterRequest{Name: "Credit Risk", UnitIDs: unitIDs}, 1)
	require.NoError(t, err)

	_, err = assessments.CreateOrUpdateDraft(master.ID, unitIDs[0], 3, completeFields())
	require.Error(t, err)
	assert.Equal(t, KindForbidden, AsError(err).Kind)
}

func TestCreateDraftComputesDerivedScores(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	master := publishedMaster(t, db, unitIDs)
	assessments := newAssessmentStore(db)

	fields := completeFields()
	fields.InherentImpact = intp(9)  // clamped to 5
	fields.InherentLikelihood = intp(0) // clamped to 1

	rec, err := assessments.CreateOrUpdateDraft(master.ID, unitIDs[0], 3, fields)
	require.NoError(t, err)
	assert.Equal(t, AssessmentDraft, rec.Status)
	assert.Equal(t, 5, *rec.InherentImpact)
	assert.Equal(t, 1, *rec.InherentLikelihood)
	assert.Equal(t, 5, *rec.InherentValue)
	assert.Equal(t, string(LevelMedium), rec.InherentLevel)
	assert.Equal(t, 4, *rec.ResidualValue)
	assert.Equal(t, string(LevelLow), rec.ResidualLevel)
}

func TestCreateDraftUpsertsByTriple(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	master := publishedMaster(t, db, unitIDs)
	assessments := newAssessmentStore(db)

	first, err := assessments.CreateOrUpdateDraft(master.ID, unitIDs[0], 3, completeFields())
	require.NoError(t, err)

	fields := completeFields()
	fields.RiskName = "Revised risk wording"
	second, err := assessments.CreateOrUpdateDraft(master.ID, unitIDs[0], 3, fields)
	require.NoError(t, err)

	// Same row, updated in place; no duplicate for the triple.
	assert.Equal(t, first.ID, second.ID)
	var count int64
	require.NoError(t, db.Model(&AssessmentRecord{}).
		Where("master_id = ? AND unit_id = ? AND created_by = ?", master.ID, unitIDs[0], 3).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, "Revised risk wording", second.RiskName)

	// A different author gets their own instance.
	other, err := assessments.CreateOrUpdateDraft(master.ID, unitIDs[0], 4, completeFields())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCreateDraftConflictsWhenSubmitted(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	master := publishedMaster(t, db, unitIDs)
	assessments := newAssessmentStore(db)

	rec, err := assessments.CreateOrUpdateDraft(master.ID, unitIDs[0], 3, completeFields())
	require.NoError(t, err)
	require.NoError(t, assessments.Submit(rec.ID, 3))

	_, err = assessments.CreateOrUpdateDraft(master.ID, unitIDs[0], 3, completeFields())
	require.Error(t, err)
	assert.Equal(t, KindConflict, AsError(err).Kind)
}

func TestNewDraftAllowedAfterReview(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	master := publishedMaster(t, db, unitIDs)
	assessments := newAssessmentStore(db)
	reviews := NewReviewStore(db)

	rec, err := assessments.CreateOrUpdateDraft(master.ID, unitIDs[0], 3, completeFields())
	require.NoError(t, err)
	require.NoError(t, assessments.Submit(rec.ID, 3))
	_, err = reviews.Review(rec.ID, DecisionApproved, "well controlled", 2)
	require.NoError(t, err)

	// The reviewed instance is closed history; a fresh draft starts a new row.
	fresh, err := assessments.CreateOrUpdateDraft(master.ID, unitIDs[0], 3, completeFields())
	require.NoError(t, err)
	assert.NotEqual(t, rec.ID, fresh.ID)
	assert.Equal(t, AssessmentDraft, fresh.Status)
}

func TestUpdateDraftOwnershipAndStatus(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	master := publishedMaster(t, db, unitIDs)
	assessments := newAssessmentStore(db)

	rec, err := assessments.CreateOrUpdateDraft(master.ID, unitIDs[0], 3, completeFields())
	require.NoError(t, err)

	_, err = assessments.UpdateDraft(rec.ID, 4, completeFields())
	require.Error(t, err)
	assert.Equal(t, KindForbidden, AsError(err).Kind)

	require.NoError(t, assessments.Submit(rec.ID, 3))
	_, err = assessments.UpdateDraft(rec.ID, 3, completeFields())
	require.Error(t, err)
	assert.Equal(t, KindConflict, AsError(err).Kind)
}

func TestUpdateDraftBlockedWhenMasterArchived(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	master := publishedMaster(t, db, unitIDs)
	assessments := newAssessmentStore(db)

	rec, err := assessments.CreateOrUpdateDraft(master.ID, unitIDs[0], 3, completeFields())
	require.NoError(t, err)

	// Archiving mid-edit flips the gate; the next write is refused.
	require.NoError(t, NewMasterStore(db).Archive(master.ID))
	_, err = assessments.UpdateDraft(rec.ID, 3, completeFields())
	require.Error(t, err)
	assert.Equal(t, KindForbidden, AsError(err).Kind)
}

func TestSubmitIncompleteListsExactMissingFields(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	master := publishedMaster(t, db, unitIDs)
	assessments := newAssessmentStore(db)

	fields := completeFields()
	fields.Cause = "  "
	fields.ResidualImpact = nil
	fields.Owner = ""

	rec, err := assessments.CreateOrUpdateDraft(master.ID, unitIDs[0], 3, fields)
	require.NoError(t, err)

	err = assessments.Submit(rec.ID, 3)
	require.Error(t, err)
	e := AsError(err)
	assert.Equal(t, KindValidation, e.Kind)
	assert.Equal(t, []string{"cause", "residualImpact", "owner"}, e.Fields)

	// Still a draft after the failed submit.
	got, err := assessments.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, AssessmentDraft, got.Assessment.Status)
}

func TestSubmitTwiceConflicts(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	master := publishedMaster(t, db, unitIDs)
	assessments := newAssessmentStore(db)

	rec, err := assessments.CreateOrUpdateDraft(master.ID, unitIDs[0], 3, completeFields())
	require.NoError(t, err)
	require.NoError(t, assessments.Submit(rec.ID, 3))

	err = assessments.Submit(rec.ID, 3)
	require.Error(t, err)
	assert.Equal(t, KindConflict, AsError(err).Kind)
}

func TestListSubmittedDecoratesNames(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking", "Treasury")
	master := publishedMaster(t, db, unitIDs)
	assessments := newAssessmentStore(db)

	rec, err := assessments.CreateOrUpdateDraft(master.ID, unitIDs[0], 3, completeFields())
	require.NoError(t, err)
	require.NoError(t, assessments.Submit(rec.ID, 3))

	rows, err := assessments.ListSubmitted(nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Retail Banking", rows[0].UnitName)
	assert.Equal(t, "Operational Risk 2026", rows[0].MasterName)
	assert.Equal(t, AssessmentSubmitted, rows[0].Status)

	filtered, err := assessments.ListSubmitted(&unitIDs[1])
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestListDraftsFilters(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	first := publishedMaster(t, db, unitIDs)
	second := publishedMaster(t, db, unitIDs)
	assessments := newAssessmentStore(db)

	// One complete draft against the first master, nothing on the second.
	rec, err := assessments.CreateOrUpdateDraft(first.ID, unitIDs[0], 3, completeFields())
	require.NoError(t, err)

	rows, err := assessments.ListDrafts(unitIDs[0], 3, false, false)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byMaster := make(map[int64]DraftRow)
	for _, row := range rows {
		byMaster[row.MasterID] = row
	}
	require.NotNil(t, byMaster[first.ID].AssessmentID)
	assert.Equal(t, rec.ID, *byMaster[first.ID].AssessmentID)
	assert.Nil(t, byMaster[second.ID].AssessmentID)
	assert.Equal(t, AssessmentDraft, byMaster[second.ID].Status)

	// incompleteOnly drops the complete draft but keeps the untouched master.
	rows, err = assessments.ListDrafts(unitIDs[0], 3, false, true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.ID, rows[0].MasterID)

	// excludeSubmitted drops the submitted one.
	require.NoError(t, assessments.Submit(rec.ID, 3))
	rows, err = assessments.ListDrafts(unitIDs[0], 3, true, false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.ID, rows[0].MasterID)
}

func TestMineReviewedAndReport(t *testing.T) {
	db := newTestDB(t)
	unitIDs := seedUnits(t, db, "Retail Banking")
	master := publishedMaster(t, db, unitIDs)
	assessments := newAssessmentStore(db)
	reviews := NewReviewStore(db)

	rec, err := assessments.CreateOrUpdateDraft(master.ID, unitIDs[0], 3, completeFields())
	require.NoError(t, err)
	require.NoError(t, assessments.Submit(rec.ID, 3))
	_, err = reviews.Review(rec.ID, DecisionRejected, "action plan too vague", 2)
	require.NoError(t, err)

	mine, err := assessments.MineReviewed(3)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, DecisionRejected, mine[0].Decision)
	assert.Equal(t, "action plan too vague", mine[0].Note)
	require.NotNil(t, mine[0].ReviewerID)
	assert.Equal(t, int64(2), *mine[0].ReviewerID)

	other, err := assessments.MineReviewed(4)
	require.NoError(t, err)
	assert.Empty(t, other)

	report, err := assessments.ReportReviewed(nil)
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, "Retail Banking", report[0].UnitName)
}
