package gorm

import (
	"time"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
)

// --- Mapper functions ---

func fromDomainJobExecution(je *model.JobExecution) *JobExecutionEntity {
	if je == nil {
		return nil
	}
	return &JobExecutionEntity{
		ID:                 je.ID,
		JobName:            je.JobName,
		Items:              je.Items,
		Batches:            je.Batches,
		BatchSize:          je.Config.BatchSize,
		ConcurrencyLimit:   je.Config.ConcurrencyLimit,
		PollIntervalMs:     je.Config.PollInterval.Milliseconds(),
		MaxPollAttempts:    je.Config.MaxPollAttempts,
		ProgressCapPercent: je.Config.ProgressCapPercent,
		Status:             je.Status,
		Failures:           je.Failures,
		CompletedCount:     je.Aggregate.Completed,
		FailedCount:        je.Aggregate.Failed,
		SkippedCount:       je.Aggregate.Skipped,
		TotalCount:         je.Aggregate.Total,
		PollAttempts:       je.PollAttempts,
		StartTime:          je.StartTime,
		EndTime:            je.EndTime,
		CreateTime:         je.CreateTime,
		LastUpdated:        je.LastUpdated,
		Version:            je.Version,
	}
}

func toDomainJobExecution(entity *JobExecutionEntity) *model.JobExecution {
	if entity == nil {
		return nil
	}
	je := &model.JobExecution{
		ID:      entity.ID,
		JobName: entity.JobName,
		Items:   entity.Items,
		Batches: entity.Batches,
		Config: model.JobConfig{
			BatchSize:          entity.BatchSize,
			ConcurrencyLimit:   entity.ConcurrencyLimit,
			PollInterval:       time.Duration(entity.PollIntervalMs) * time.Millisecond,
			MaxPollAttempts:    entity.MaxPollAttempts,
			ProgressCapPercent: entity.ProgressCapPercent,
		},
		Status: entity.Status,
		Failures: entity.Failures,
		Aggregate: model.ItemCounts{
			Completed: entity.CompletedCount,
			Failed:    entity.FailedCount,
			Skipped:   entity.SkippedCount,
			Total:     entity.TotalCount,
		},
		PollAttempts: entity.PollAttempts,
		StartTime:    entity.StartTime,
		EndTime:      entity.EndTime,
		CreateTime:   entity.CreateTime,
		LastUpdated:  entity.LastUpdated,
		Version:      entity.Version,
	}
	if je.Items == nil {
		je.Items = make(model.WorkItemList, 0)
	}
	if je.Batches == nil {
		je.Batches = make(model.BatchList, 0)
	}
	if je.Failures == nil {
		je.Failures = make(model.FailureList, 0)
	}
	return je
}
