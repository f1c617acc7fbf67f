package gorm_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	"github.com/lumapix/darkroom/pkg/orchestrate/core/domain/repository"
	gormrepo "github.com/lumapix/darkroom/pkg/orchestrate/infrastructure/repository/gorm"
	"github.com/lumapix/darkroom/pkg/orchestrate/support/util/exception"
)

// setupSQLiteRepo opens an in-memory SQLite database and migrates the schema.
func setupSQLiteRepo(t *testing.T) *gormrepo.GormJobRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive for the whole test.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := gormrepo.NewGormJobRepository(db)
	require.NoError(t, repo.AutoMigrate(context.Background()))
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func newPersistedExecution(t *testing.T, repo *gormrepo.GormJobRepository, jobName string) *model.JobExecution {
	t.Helper()

	je := model.NewJobExecution(jobName, model.WorkItemList{"p1", "p2", "p3"}, model.JobConfig{
		BatchSize:        2,
		ConcurrencyLimit: 2,
		PollInterval:     500 * time.Millisecond,
		MaxPollAttempts:  10,
	})
	require.NoError(t, repo.SaveJobExecution(context.Background(), je))
	return je
}

func TestGormJobRepository_SaveAndFindRoundTrip(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()

	je := model.NewJobExecution("clusterFaces", model.WorkItemList{"p1", "p2", "p3"}, model.JobConfig{
		BatchSize:        2,
		ConcurrencyLimit: 2,
		PollInterval:     500 * time.Millisecond,
		MaxPollAttempts:  10,
	})
	batch := model.NewBatch(0, []model.WorkItem{"p1", "p2"})
	batch.MarkAsSubmitted("task-1")
	batch.MarkAsCompleted(model.ItemCounts{Completed: 2, Total: 2})
	je.AddBatch(batch)
	je.Aggregate = model.ItemCounts{Completed: 2, Total: 3}
	je.Failures = model.FailureList{"one item skipped upstream"}

	require.NoError(t, repo.SaveJobExecution(ctx, je))

	found, err := repo.FindJobExecutionByID(ctx, je.ID)
	require.NoError(t, err)
	assert.Equal(t, je.ID, found.ID)
	assert.Equal(t, "clusterFaces", found.JobName)
	assert.Equal(t, model.WorkItemList{"p1", "p2", "p3"}, found.Items)
	assert.Equal(t, je.Config, found.Config)
	assert.Equal(t, model.JobCreated, found.Status)
	assert.Equal(t, model.FailureList{"one item skipped upstream"}, found.Failures)
	assert.Equal(t, model.ItemCounts{Completed: 2, Total: 3}, found.Aggregate)

	require.Len(t, found.Batches, 1)
	assert.Equal(t, "task-1", found.Batches[0].TaskID)
	assert.Equal(t, model.BatchCompleted, found.Batches[0].Status)
	assert.Equal(t, model.ItemCounts{Completed: 2, Total: 2}, found.Batches[0].Counts)
}

func TestGormJobRepository_FindByIDReturnsNotFound(t *testing.T) {
	repo := setupSQLiteRepo(t)

	_, err := repo.FindJobExecutionByID(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, repository.ErrJobExecutionNotFound)
}

func TestGormJobRepository_UpdateIncrementsVersion(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()
	je := newPersistedExecution(t, repo, "clusterFaces")

	je.MarkAsRunning()
	require.NoError(t, repo.UpdateJobExecution(ctx, je))
	assert.Equal(t, 1, je.Version)

	found, err := repo.FindJobExecutionByID(ctx, je.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobRunning, found.Status)
	assert.Equal(t, 1, found.Version)
}

func TestGormJobRepository_UpdateDetectsStaleVersion(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()
	je := newPersistedExecution(t, repo, "clusterFaces")

	// A concurrent writer bumps the stored version.
	other, err := repo.FindJobExecutionByID(ctx, je.ID)
	require.NoError(t, err)
	other.MarkAsRunning()
	require.NoError(t, repo.UpdateJobExecution(ctx, other))

	je.MarkAsRunning()
	err = repo.UpdateJobExecution(ctx, je)
	assert.True(t, exception.IsOptimisticLockError(err))
	// The stale writer's in-memory version is restored for a clean retry.
	assert.Equal(t, 0, je.Version)
}

func TestGormJobRepository_FindByNameMostRecentFirst(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()

	first := model.NewJobExecution("clusterFaces", model.WorkItemList{"p1"}, model.JobConfig{})
	first.CreateTime = time.Now().Add(-time.Hour)
	require.NoError(t, repo.SaveJobExecution(ctx, first))

	second := newPersistedExecution(t, repo, "clusterFaces")
	_ = newPersistedExecution(t, repo, "otherJob")

	found, err := repo.FindJobExecutionsByName(ctx, "clusterFaces")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, second.ID, found[0].ID)
	assert.Equal(t, first.ID, found[1].ID)
}

func TestGormJobRepository_FindRunningFiltersTerminalStates(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()

	running := newPersistedExecution(t, repo, "jobA")
	running.MarkAsRunning()
	require.NoError(t, repo.UpdateJobExecution(ctx, running))

	done := newPersistedExecution(t, repo, "jobB")
	done.MarkAsRunning()
	done.MarkAsCompleted()
	require.NoError(t, repo.UpdateJobExecution(ctx, done))

	found, err := repo.FindRunningJobExecutions(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, running.ID, found[0].ID)
}

// setupSQLMockRepo backs the repository with a sqlmock connection through the
// MySQL dialector, for asserting the exact statements the repository issues.
func setupSQLMockRepo(t *testing.T) (*gormrepo.GormJobRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormrepo.NewGormJobRepository(gormDB), mock
}

func TestGormJobRepository_UpdateConflictViaSQLMock(t *testing.T) {
	repo, mock := setupSQLMockRepo(t)

	je := model.NewJobExecution("clusterFaces", model.WorkItemList{"p1"}, model.JobConfig{})

	// Zero rows affected means the version predicate matched nothing.
	mock.ExpectExec("UPDATE `darkroom_job_execution` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateJobExecution(context.Background(), je)
	assert.True(t, exception.IsOptimisticLockError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
