package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/darzi-app/darzi/pkg/logger"
)

// FailedJobRecord is a failed job persisted by UseDB.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	JobType  string    `gorm:"size:255;not null;index"`
	Payload  string    `gorm:"type:text;not null"`
	Error    string    `gorm:"type:text"`
	Attempts int       `gorm:"not null;default:0"`
	FailedAt time.Time `gorm:"autoCreateTime"`
}

func (FailedJobRecord) TableName() string { return "darzi_failed_jobs" }

// persistFailed records the failure in memory and, when configured, in the database.
func (m *Manager) persistFailed(ctx context.Context, job Job, name string, lastErr error, attempts int) {
	now := time.Now()

	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{Type: name, Job: job, Err: lastErr, FailedAt: now, Attempts: attempts})
	db := m.db
	m.mu.Unlock()

	if db == nil {
		return
	}

	payload, err := json.Marshal(job)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"error": "could not marshal: %v"}`, err))
	}
	rec := FailedJobRecord{
		JobType:  name,
		Payload:  string(payload),
		Error:    lastErr.Error(),
		Attempts: attempts,
		FailedAt: now,
	}
	if err := db.WithContext(ctx).Create(&rec).Error; err != nil {
		logger.WithCtx(ctx).Error("queue: persist failed job", "type", name, "error", err)
	}
}
