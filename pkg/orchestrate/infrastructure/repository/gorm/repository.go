package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	"github.com/lumapix/darkroom/pkg/orchestrate/core/domain/repository"
	"github.com/lumapix/darkroom/pkg/orchestrate/support/util/exception"

	"gorm.io/gorm"
)

// GormJobRepository implements repository.JobRepository on a GORM connection.
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GormJobRepository.
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// AutoMigrate creates or updates the job execution table.
func (r *GormJobRepository) AutoMigrate(ctx context.Context) error {
	const op = "GormJobRepository.AutoMigrate"
	if err := r.db.WithContext(ctx).AutoMigrate(&JobExecutionEntity{}); err != nil {
		return exception.NewBatchError(op, "failed to migrate job execution schema", err, false, false)
	}
	return nil
}

// SaveJobExecution implements repository.JobRepository.
func (r *GormJobRepository) SaveJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	const op = "GormJobRepository.SaveJobExecution"
	entity := fromDomainJobExecution(jobExecution)

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return exception.NewBatchError(op, fmt.Sprintf("failed to save JobExecution (ID: %s)", jobExecution.ID), err, true, false)
	}
	return nil
}

// UpdateJobExecution implements repository.JobRepository.
// The update is guarded by a version check; a stale version yields an
// optimistic locking failure and leaves the domain object's version untouched.
func (r *GormJobRepository) UpdateJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	const op = "GormJobRepository.UpdateJobExecution"

	originalVersion := jobExecution.Version
	jobExecution.Version++
	jobExecution.LastUpdated = time.Now()
	entity := fromDomainJobExecution(jobExecution)

	result := r.db.WithContext(ctx).
		Model(&JobExecutionEntity{}).
		Where("id = ? AND version = ?", entity.ID, originalVersion).
		Select("*").
		Updates(entity)
	if result.Error != nil {
		jobExecution.Version = originalVersion
		return exception.NewBatchError(op, fmt.Sprintf("failed to update JobExecution (ID: %s)", jobExecution.ID), result.Error, true, false)
	}
	if result.RowsAffected == 0 {
		jobExecution.Version = originalVersion
		return exception.NewOptimisticLockingFailureException("repository",
			fmt.Sprintf("JobExecution (ID: %s) with version %d not found for update", jobExecution.ID, originalVersion), nil)
	}
	return nil
}

// FindJobExecutionByID implements repository.JobRepository.
func (r *GormJobRepository) FindJobExecutionByID(ctx context.Context, id string) (*model.JobExecution, error) {
	const op = "GormJobRepository.FindJobExecutionByID"
	var entity JobExecutionEntity

	err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrJobExecutionNotFound
		}
		return nil, exception.NewBatchError(op, fmt.Sprintf("failed to find JobExecution by ID: %s", id), err, true, false)
	}

	return toDomainJobExecution(&entity), nil
}

// FindJobExecutionsByName implements repository.JobRepository.
func (r *GormJobRepository) FindJobExecutionsByName(ctx context.Context, jobName string) ([]*model.JobExecution, error) {
	const op = "GormJobRepository.FindJobExecutionsByName"
	var entities []JobExecutionEntity

	err := r.db.WithContext(ctx).
		Where("job_name = ?", jobName).
		Order("create_time desc").
		Find(&entities).Error
	if err != nil {
		return nil, exception.NewBatchError(op, fmt.Sprintf("failed to find JobExecutions by name: %s", jobName), err, true, false)
	}

	executions := make([]*model.JobExecution, 0, len(entities))
	for i := range entities {
		executions = append(executions, toDomainJobExecution(&entities[i]))
	}
	return executions, nil
}

// FindRunningJobExecutions implements repository.JobRepository.
func (r *GormJobRepository) FindRunningJobExecutions(ctx context.Context) ([]*model.JobExecution, error) {
	const op = "GormJobRepository.FindRunningJobExecutions"
	var entities []JobExecutionEntity

	err := r.db.WithContext(ctx).
		Where("status IN ?", []model.JobStatus{model.JobCreated, model.JobRunning}).
		Order("create_time desc").
		Find(&entities).Error
	if err != nil {
		return nil, exception.NewBatchError(op, "failed to find running JobExecutions", err, true, false)
	}

	executions := make([]*model.JobExecution, 0, len(entities))
	for i := range entities {
		executions = append(executions, toDomainJobExecution(&entities[i]))
	}
	return executions, nil
}

// Close implements repository.JobRepository.
func (r *GormJobRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
