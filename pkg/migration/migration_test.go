package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/darzi-app/darzi/pkg/database"
	"github.com/darzi-app/darzi/pkg/migration"
)

type createTable struct{ name string }

func (m createTable) Up(db *gorm.DB) error {
	return db.Exec("CREATE TABLE " + m.name + " (id INTEGER PRIMARY KEY)").Error
}

func (m createTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(m.name)
}

func init() {
	// Registered out of order; runs sort by name.
	migration.Register("20000102000000_create_pants", createTable{"pants"})
	migration.Register("20000101000000_create_shirts", createTable{"shirts"})
}

func TestRunRollbackStatus(t *testing.T) {
	db, err := database.Open("sqlite", "file:migration_test?mode=memory&cache=shared")
	require.NoError(t, err)
	r := migration.New(db)

	ran, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, []string{"20000101000000_create_shirts", "20000102000000_create_pants"}, ran)
	assert.True(t, db.Migrator().HasTable("shirts"))

	again, err := r.Run()
	require.NoError(t, err)
	assert.Empty(t, again)

	statuses, err := r.Status()
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.True(t, s.Ran, s.Name)
		assert.Equal(t, 1, s.Batch, s.Name)
	}

	reverted, err := r.Rollback()
	require.NoError(t, err)
	assert.Equal(t, []string{"20000102000000_create_pants", "20000101000000_create_shirts"}, reverted)
	assert.False(t, db.Migrator().HasTable("pants"))

	nothing, err := r.Rollback()
	require.NoError(t, err)
	assert.Empty(t, nothing)
}
