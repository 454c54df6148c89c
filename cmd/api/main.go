package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	app "github.com/mohammadpnp/parts-import/internal/application/inventory"
	"github.com/mohammadpnp/parts-import/internal/bootstrap"
	"github.com/mohammadpnp/parts-import/internal/config"
	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
	"github.com/mohammadpnp/parts-import/internal/infrastructure/cache"
	infradb "github.com/mohammadpnp/parts-import/internal/infrastructure/db"
	infrafile "github.com/mohammadpnp/parts-import/internal/infrastructure/file"
	"github.com/mohammadpnp/parts-import/internal/infrastructure/metrics"
	"github.com/mohammadpnp/parts-import/internal/infrastructure/notify"
	"github.com/mohammadpnp/parts-import/internal/infrastructure/repository"
	httpecho "github.com/mohammadpnp/parts-import/internal/interfaces/http/echo"
	"github.com/mohammadpnp/parts-import/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("service stopped", zap.Error(err))
	}
}

func run(cfg config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := infradb.Migrate(db); err != nil {
			return err
		}
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("create pgx pool: %w", err)
	}
	defer pool.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	files, err := newFileStore(ctx, cfg.Upload)
	if err != nil {
		return err
	}
	notifier, err := newNotifier(ctx, cfg.Notify, zlog)
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	jobs := repository.NewImportJobRepository(db)
	statuses := cache.NewRedisStatusStore(redisClient)
	thresholds := app.Thresholds{
		ErrorTolerance:  cfg.Import.ErrorTolerance,
		PenaltyPerError: cfg.Import.PenaltyPerError,
		MaxPenalty:      cfg.Import.MaxPenalty,
		LargeFileRows:   cfg.Import.LargeFileRows,
	}

	persister := app.NewBatchPersister(repository.NewInventoryBulkRepository(pool), zlog)
	pipeline := app.NewPipeline(files, persister, thresholds, reg, zlog)
	worker := app.NewImportWorker(app.ImportWorkerDeps{
		Jobs:     jobs,
		Files:    files,
		Runner:   pipeline,
		Statuses: statuses,
		Notifier: notifier,
		Metrics:  reg,
		Logger:   zlog,
	}, app.ImportWorkerConfig{
		Workers:       cfg.Import.Workers,
		LeaseDuration: cfg.Import.Lease(),
		JobTimeout:    cfg.Import.JobTimeout(),
		StatusTTL:     cfg.Import.StatusTTL(),
	})

	submit := app.NewSubmitImport(jobs, files, statuses, cfg.Import.MaxAttempts, cfg.Import.StatusTTL(), zlog)
	server := bootstrap.NewHTTPServer(bootstrap.HTTPDeps{
		Imports:   httpecho.NewImportHandler(submit, app.NewGetImportStatus(statuses), cfg.Upload.MaxBytes, zlog),
		Inventory: httpecho.NewInventoryHandler(app.NewInventoryItems(repository.NewInventoryQueryRepository(db)), zlog),
		Metrics:   reg.Handler(),
		Logger:    zlog,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		zlog.Info("http server listening", zap.String("port", cfg.Port))
		if err := server.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	zlog.Info("shutdown complete")
	return err
}

func newFileStore(ctx context.Context, cfg config.UploadConfig) (app.FileStore, error) {
	if cfg.Backend == "s3" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return infrafile.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix), nil
	}
	return infrafile.NewLocalStore(cfg.Dir)
}

func newNotifier(ctx context.Context, cfg config.NotifyConfig, zlog *zap.Logger) (domain.Notifier, error) {
	switch cfg.Backend {
	case "smtp":
		return notify.NewSMTPNotifier(notify.SMTPConfig(cfg.SMTP))
	case "sns":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return notify.NewSNSNotifier(sns.NewFromConfig(awsCfg), cfg.SNSTopicARN)
	default:
		return notify.NewLogNotifier(zlog.Named("notify")), nil
	}
}
