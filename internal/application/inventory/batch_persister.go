package inventory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

// Strategy selects how a batch of records reaches the inventory store.
type Strategy int

const (
	// StrategyAtomic writes the whole batch in one transaction.
	StrategyAtomic Strategy = iota
	// StrategyBestEffort writes every record independently.
	StrategyBestEffort
)

func (s Strategy) String() string {
	if s == StrategyAtomic {
		return "atomic"
	}
	return "best_effort"
}

// SelectStrategy picks Atomic only when rollback was requested, there is
// something to write, and the batch is not larger than largeFileRows.
func SelectStrategy(opts domain.ProcessingOptions, validCount, largeFileRows int) Strategy {
	if opts.RollbackOnError && validCount > 0 && validCount <= largeFileRows {
		return StrategyAtomic
	}
	return StrategyBestEffort
}

type RecordFailure struct {
	Row           int
	ArticleNumber string
	Message       string
}

type PersistResult struct {
	Inserted int
	Updated  int
	Skipped  int
	Failures []RecordFailure
}

type outcome int

const (
	outcomeInserted outcome = iota
	outcomeUpdated
	outcomeSkipped
)

func (r *PersistResult) add(o outcome) {
	switch o {
	case outcomeInserted:
		r.Inserted++
	case outcomeUpdated:
		r.Updated++
	case outcomeSkipped:
		r.Skipped++
	}
}

type BatchPersister struct {
	store  domain.InventoryStore
	logger *zap.Logger
}

func NewBatchPersister(store domain.InventoryStore, logger *zap.Logger) *BatchPersister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchPersister{store: store, logger: logger}
}

// Persist upserts records by internal article number. Records that share a
// key are collapsed to the last occurrence and the earlier ones count as
// skipped. In atomic mode any write error rolls the batch back and is
// returned as a *domain.PersistenceError with a zero result. In best-effort
// mode a cancelled context stops the loop and the counts so far are returned
// with the error.
func (p *BatchPersister) Persist(ctx context.Context, records []domain.InventoryRecord, opts domain.ProcessingOptions, strategy Strategy) (PersistResult, error) {
	unique, collapsed := collapseLastWins(records)
	if len(unique) == 0 {
		return PersistResult{Skipped: collapsed}, nil
	}

	var (
		result PersistResult
		err    error
	)
	if strategy == StrategyAtomic {
		result, err = p.persistAtomic(ctx, unique, opts)
	} else {
		result, err = p.persistBestEffort(ctx, unique, opts)
	}
	if err != nil {
		if strategy == StrategyBestEffort {
			result.Skipped += collapsed
		}
		return result, err
	}

	result.Skipped += collapsed
	return result, nil
}

func (p *BatchPersister) persistAtomic(ctx context.Context, records []domain.InventoryRecord, opts domain.ProcessingOptions) (PersistResult, error) {
	var result PersistResult

	err := p.store.WithinTx(ctx, func(tx domain.InventoryStore) error {
		existing, err := tx.ExistingKeys(ctx, articleNumbers(records))
		if err != nil {
			return &domain.PersistenceError{Err: fmt.Errorf("lookup existing: %w", err)}
		}

		for _, record := range records {
			o, err := applyRecord(ctx, tx, record, existing[record.InternalArticleNumber], opts.UpdateExisting)
			if err != nil {
				return &domain.PersistenceError{ArticleNumber: record.InternalArticleNumber, Err: err}
			}
			result.add(o)
		}
		return nil
	})
	if err != nil {
		var persistErr *domain.PersistenceError
		if !errors.As(err, &persistErr) {
			persistErr = &domain.PersistenceError{Err: err}
		}
		return PersistResult{}, persistErr
	}

	return result, nil
}

func (p *BatchPersister) persistBestEffort(ctx context.Context, records []domain.InventoryRecord, opts domain.ProcessingOptions) (PersistResult, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}

	var result PersistResult
	for start := 0; start < len(records); start += batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		existing, err := p.store.ExistingKeys(ctx, articleNumbers(chunk))
		if err != nil {
			p.logger.Warn("existing key lookup failed for chunk",
				zap.Int("chunk_start", start),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			for _, record := range chunk {
				result.Failures = append(result.Failures, RecordFailure{
					Row:           record.SourceRow,
					ArticleNumber: record.InternalArticleNumber,
					Message:       fmt.Sprintf("lookup existing: %v", err),
				})
			}
			continue
		}

		for _, record := range chunk {
			o, err := applyRecord(ctx, p.store, record, existing[record.InternalArticleNumber], opts.UpdateExisting)
			if err != nil {
				p.logger.Warn("persist record failed",
					zap.Int("row", record.SourceRow),
					zap.String("internal_article_number", record.InternalArticleNumber),
					zap.Error(err),
				)
				result.Failures = append(result.Failures, RecordFailure{
					Row:           record.SourceRow,
					ArticleNumber: record.InternalArticleNumber,
					Message:       err.Error(),
				})
				continue
			}
			result.add(o)
		}
	}

	return result, nil
}

func applyRecord(ctx context.Context, store domain.InventoryStore, record domain.InventoryRecord, exists, updateExisting bool) (outcome, error) {
	switch {
	case exists && updateExisting:
		if err := store.Update(ctx, record); err != nil {
			return 0, fmt.Errorf("update: %w", err)
		}
		return outcomeUpdated, nil
	case exists:
		return outcomeSkipped, nil
	default:
		if err := store.Insert(ctx, record); err != nil {
			return 0, fmt.Errorf("insert: %w", err)
		}
		return outcomeInserted, nil
	}
}

// collapseLastWins keeps one record per article number. The survivor sits at
// the position of the first occurrence but carries the last occurrence's data.
func collapseLastWins(records []domain.InventoryRecord) ([]domain.InventoryRecord, int) {
	index := make(map[string]int, len(records))
	unique := make([]domain.InventoryRecord, 0, len(records))
	collapsed := 0

	for _, record := range records {
		if i, ok := index[record.InternalArticleNumber]; ok {
			unique[i] = record
			collapsed++
			continue
		}
		index[record.InternalArticleNumber] = len(unique)
		unique = append(unique, record)
	}
	return unique, collapsed
}

func articleNumbers(records []domain.InventoryRecord) []string {
	keys := make([]string, 0, len(records))
	for _, record := range records {
		keys = append(keys, record.InternalArticleNumber)
	}
	return keys
}
