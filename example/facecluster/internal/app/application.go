package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/fx"

	usecase "github.com/lumapix/darkroom/pkg/orchestrate/core/application/usecase"
	config "github.com/lumapix/darkroom/pkg/orchestrate/core/config"
	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	gormrepo "github.com/lumapix/darkroom/pkg/orchestrate/infrastructure/repository/gorm"
	infraMetrics "github.com/lumapix/darkroom/pkg/orchestrate/infrastructure/metrics"
	"github.com/lumapix/darkroom/pkg/orchestrate/infrastructure/push"
	logginglistener "github.com/lumapix/darkroom/pkg/orchestrate/listener/logging"
	"github.com/lumapix/darkroom/pkg/orchestrate/listener/notification"
	"github.com/lumapix/darkroom/pkg/orchestrate/partition"
	"github.com/lumapix/darkroom/pkg/orchestrate/remote"
	"github.com/lumapix/darkroom/pkg/orchestrate/scheduler"
	"github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"
)

// RunApplication sets up and runs the face clustering job using uber-fx.
func RunApplication(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig) {
	cfg, err := config.LoadConfig(envFilePath, embeddedConfig)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logger.SetLogLevel(cfg.Darkroom.System.Logging.Level)

	app := fx.New(
		fx.Supply(
			embeddedConfig,
			fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
			fx.Annotate(
				appCtx,
				fx.As(new(context.Context)),
				fx.ResultTags(`name:"appCtx"`),
			),
		),

		logger.Module,
		config.Module,
		infraMetrics.Module,

		gormrepo.Module,
		remote.Module,
		partition.Module,
		scheduler.Module,
		usecase.Module,

		logginglistener.Module,
		notification.Module,
		push.Module,

		fx.Invoke(fx.Annotate(startJobExecution, fx.ParamTags(
			"",              // lc fx.Lifecycle
			"",              // shutdowner fx.Shutdowner
			"",              // jobLauncher *usecase.SimpleJobLauncher
			"",              // registry *usecase.CallbackRegistry
			"",              // cfg *config.Config
			`name:"appCtx"`, // appCtx context.Context
		))),
	)

	app.Run()

	if app.Err() != nil {
		logger.Fatalf("Application run failed: %v", app.Err())
	}
}

// startJobExecution is invoked by Fx to begin the clustering job.
func startJobExecution(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	jobLauncher *usecase.SimpleJobLauncher,
	registry *usecase.CallbackRegistry,
	cfg *config.Config,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: onStartJobExecution(jobLauncher, registry, cfg, shutdowner, appCtx),
		OnStop: func(ctx context.Context) error {
			logger.Infof("Application is shutting down.")
			return nil
		},
	})
}

// onStartJobExecution launches the job and waits for its completion report,
// shutting the application down afterwards.
func onStartJobExecution(
	jobLauncher *usecase.SimpleJobLauncher,
	registry *usecase.CallbackRegistry,
	cfg *config.Config,
	shutdowner fx.Shutdowner,
	appCtx context.Context,
) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("Panic recovered in job execution: %v", r)
				}
				logger.Infof("Requesting application shutdown after job completion.")
				if err := shutdowner.Shutdown(); err != nil {
					logger.Errorf("Failed to shutdown application: %v", err)
				}
			}()

			jobName := cfg.Darkroom.Batch.JobName
			items, err := loadWorkItems()
			if err != nil {
				logger.Errorf("Failed to load work items: %v", err)
				return
			}
			logger.Infof("Starting job '%s' over %d photos...", jobName, len(items))

			jobExecution, err := jobLauncher.Launch(appCtx, jobName, items, model.JobConfig{})
			if err != nil {
				logger.Errorf("Failed to launch job '%s': %v", jobName, err)
				return
			}
			logger.Infof("Job '%s' launched. Execution ID: %s", jobName, jobExecution.ID)

			done := make(chan model.JobReport, 1)
			registry.OnComplete(jobExecution.ID, func(report model.JobReport) {
				done <- report
			})
			registry.OnProgress(jobExecution.ID, func(snapshot model.ProgressSnapshot) {
				logger.Infof("Job '%s': %.0f%% (%s)", jobName, snapshot.Percent, snapshot.Stage)
			})
			defer registry.Drop(jobExecution.ID)

			select {
			case <-appCtx.Done():
				logger.Warnf("Application context cancelled. Requesting stop of job '%s' (Execution ID: %s).", jobName, jobExecution.ID)
				jobLauncher.Stop(jobExecution.ID)
				// Give the scheduler a moment to persist the terminal state.
				select {
				case report := <-done:
					logReport(jobName, report)
				case <-time.After(10 * time.Second):
					logger.Warnf("Job '%s' did not report completion within the stop grace period.", jobName)
				}
			case report := <-done:
				logReport(jobName, report)
			}
		}()
		return nil
	}
}

func logReport(jobName string, report model.JobReport) {
	switch report.Severity {
	case model.SeverityWarning:
		logger.Warnf("Job '%s' finished: %s", jobName, report.Message)
	default:
		logger.Infof("Job '%s' finished: %s", jobName, report.Message)
	}
}

// loadWorkItems reads newline-delimited photo IDs from the file named by
// FACECLUSTER_ITEMS_FILE, or generates a synthetic library when unset.
func loadWorkItems() (model.WorkItemList, error) {
	path := os.Getenv("FACECLUSTER_ITEMS_FILE")
	if path == "" {
		items := make(model.WorkItemList, 0, 120)
		for i := 0; i < 120; i++ {
			items = append(items, model.WorkItem(fmt.Sprintf("photo-%04d", i)))
		}
		return items, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open items file %s: %w", path, err)
	}
	defer f.Close()

	var items model.WorkItemList
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		items = append(items, model.WorkItem(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items file %s: %w", path, err)
	}
	return items, nil
}
