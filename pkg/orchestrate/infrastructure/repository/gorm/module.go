package gorm

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	config "github.com/lumapix/darkroom/pkg/orchestrate/core/config"
	repository "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/repository"
)

// NewJobRepositoryFromConfig resolves the connection named by
// infrastructure.job_repository_db_ref and builds a GormJobRepository on it.
func NewJobRepositoryFromConfig(cfg *config.Config, provider *ConnectionProvider) (*GormJobRepository, error) {
	ref := cfg.Darkroom.Infrastructure.JobRepositoryDBRef
	db, err := provider.GetConnection(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve job repository connection '%s': %w", ref, err)
	}
	return NewGormJobRepository(db), nil
}

// Module is an Fx module that provides the GORM-backed JobRepository.
// The schema is migrated on startup and all connections are closed on shutdown.
// A dialect subpackage (sqlite, postgres, mysql) must be imported by the
// application for the configured database type.
var Module = fx.Options(
	fx.Provide(NewConnectionProvider),
	fx.Provide(
		fx.Annotate(
			NewJobRepositoryFromConfig,
			fx.As(new(repository.JobRepository)),
		),
	),
	fx.Invoke(func(lc fx.Lifecycle, repo repository.JobRepository, provider *ConnectionProvider) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if gormRepo, ok := repo.(*GormJobRepository); ok {
					return gormRepo.AutoMigrate(ctx)
				}
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return provider.CloseAll()
			},
		})
	}),
)
