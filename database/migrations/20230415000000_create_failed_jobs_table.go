package migrations

import (
	"gorm.io/gorm"

	"github.com/darzi-app/darzi/pkg/migration"
	"github.com/darzi-app/darzi/pkg/queue"
)

func init() {
	migration.Register("20230415000000_create_failed_jobs_table", &CreateFailedJobsTable{})
}

// CreateFailedJobsTable stores notification jobs that exhausted their retries.
type CreateFailedJobsTable struct{}

func (m *CreateFailedJobsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&queue.FailedJobRecord{})
}

func (m *CreateFailedJobsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&queue.FailedJobRecord{})
}
