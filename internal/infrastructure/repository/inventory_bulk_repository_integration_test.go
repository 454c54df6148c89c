package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
	infradb "github.com/mohammadpnp/parts-import/internal/infrastructure/db"
	"github.com/mohammadpnp/parts-import/internal/infrastructure/repository"
)

func openIntegrationDB(t *testing.T) (*gorm.DB, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}
	if err := infradb.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := gdb.Exec("DELETE FROM inventory_items").Error; err != nil {
		t.Fatalf("failed to cleanup inventory_items: %v", err)
	}
	if err := gdb.Exec("DELETE FROM import_jobs").Error; err != nil {
		t.Fatalf("failed to cleanup import_jobs: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return gdb, pool
}

func TestInventoryRepositoriesIntegration(t *testing.T) {
	gdb, pool := openIntegrationDB(t)
	ctx := context.Background()

	bulk := repository.NewInventoryBulkRepository(pool)
	query := repository.NewInventoryQueryRepository(gdb)

	rec := domain.InventoryRecord{
		InternalArticleNumber: "ART-1",
		Title:                 "Filter",
		Price:                 decimal.RequireFromString("7.99"),
		Condition:             domain.ConditionUsedGood,
		ShippingClass:         1,
		DeliveryDays:          1,
	}

	rollback := errors.New("rollback")
	err := bulk.WithinTx(ctx, func(tx domain.InventoryStore) error {
		if err := tx.Insert(ctx, rec); err != nil {
			return err
		}
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatalf("expected rollback error, got %v", err)
	}
	if keys, _ := bulk.ExistingKeys(ctx, []string{"ART-1"}); keys["ART-1"] {
		t.Fatal("expected insert to be rolled back")
	}

	if err := bulk.Insert(ctx, rec); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := query.SoftDelete(ctx, "ART-1"); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}
	if _, err := query.GetByArticleNumber(ctx, "ART-1", false); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected deleted item to be hidden, got %v", err)
	}

	keys, err := bulk.ExistingKeys(ctx, []string{"ART-1", "ART-2"})
	if err != nil {
		t.Fatalf("existing keys failed: %v", err)
	}
	if !keys["ART-1"] || keys["ART-2"] {
		t.Fatalf("unexpected keys: %v", keys)
	}

	rec.Price = decimal.RequireFromString("9.50")
	if err := bulk.Update(ctx, rec); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	item, err := query.GetByArticleNumber(ctx, "ART-1", false)
	if err != nil {
		t.Fatalf("expected update to restore the item: %v", err)
	}
	if !item.Price.Equal(decimal.RequireFromString("9.50")) {
		t.Fatalf("unexpected price: %s", item.Price)
	}
}

func TestImportJobRepositoryLifecycleIntegration(t *testing.T) {
	gdb, _ := openIntegrationDB(t)
	ctx := context.Background()
	repo := repository.NewImportJobRepository(gdb)

	job := domain.ImportJob{
		ID:          "5f0c1f4e-3b7a-4f0e-9b1c-2a8d6c4e9f10",
		FilePath:    "uploads/5f0c1f4e.csv",
		FileName:    "parts.csv",
		Options:     domain.DefaultProcessingOptions(),
		MaxAttempts: 1,
		CreatedAt:   time.Now(),
	}
	if err := repo.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	claimed, err := repo.ClaimNext(ctx, time.Second)
	if err != nil || claimed == nil {
		t.Fatalf("claim failed: job=%v err=%v", claimed, err)
	}
	if claimed.Attempts != 1 || claimed.Status != domain.JobRunning {
		t.Fatalf("unexpected claimed job: %+v", claimed)
	}
	if err := repo.Heartbeat(ctx, claimed.ID, time.Second); err != nil {
		t.Fatalf("heartbeat failed: %v", err)
	}

	again, err := repo.ClaimNext(ctx, time.Second)
	if err != nil || again != nil {
		t.Fatalf("expected leased job to stay claimed: job=%v err=%v", again, err)
	}

	time.Sleep(1500 * time.Millisecond)
	exhausted, err := repo.FailExhausted(ctx, "lease expired")
	if err != nil {
		t.Fatalf("fail exhausted failed: %v", err)
	}
	if len(exhausted) != 1 || exhausted[0].ID != job.ID {
		t.Fatalf("unexpected exhausted jobs: %+v", exhausted)
	}
}
