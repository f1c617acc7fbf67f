package gorm

import (
	"time"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
)

// JobExecutionEntity is a schema model used for persistence.
type JobExecutionEntity struct {
	ID                 string `gorm:"primaryKey"`
	JobName            string `gorm:"index"`
	Items              model.WorkItemList `gorm:"type:text"`
	Batches            model.BatchList    `gorm:"type:text"`
	BatchSize          int
	ConcurrencyLimit   int
	PollIntervalMs     int64
	MaxPollAttempts    int
	ProgressCapPercent int
	Status             model.JobStatus `gorm:"index"`
	Failures           model.FailureList `gorm:"type:text"`
	CompletedCount     int
	FailedCount        int
	SkippedCount       int
	TotalCount         int
	PollAttempts       int
	StartTime          time.Time
	EndTime            *time.Time
	CreateTime         time.Time
	LastUpdated        time.Time
	Version            int
}

func (JobExecutionEntity) TableName() string {
	return "darkroom_job_execution"
}
