package units

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDirectory(t *testing.T) (*Directory, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	dir := NewDirectory(db)
	require.NoError(t, dir.AutoMigrate())
	return dir, db
}

func TestDirectoryGetAndList(t *testing.T) {
	dir, db := newTestDirectory(t)

	parent := &UnitRecord{UnitName: "Risk Division", UnitType: "division"}
	require.NoError(t, db.Create(parent).Error)
	child := &UnitRecord{UnitName: "Credit Risk", UnitType: "department", ParentID: &parent.ID}
	require.NoError(t, db.Create(child).Error)

	got, err := dir.Get(child.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Credit Risk", got.UnitName)

	missing, err := dir.Get(99999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := dir.List(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	children, err := dir.List(&parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)
}
