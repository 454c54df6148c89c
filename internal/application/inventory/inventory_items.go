package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

const maxArticleNumberLen = 100

// InventoryItems serves single-item lookups and the soft delete lifecycle.
type InventoryItems struct {
	repo domain.InventoryQueryRepository
}

func NewInventoryItems(repo domain.InventoryQueryRepository) *InventoryItems {
	return &InventoryItems{repo: repo}
}

func (uc *InventoryItems) Get(ctx context.Context, articleNumber string, withDeleted bool) (domain.InventoryItem, error) {
	articleNumber, err := normalizeArticleNumber(articleNumber)
	if err != nil {
		return domain.InventoryItem{}, err
	}

	item, err := uc.repo.GetByArticleNumber(ctx, articleNumber, withDeleted)
	if err != nil {
		return domain.InventoryItem{}, mapItemError(err)
	}
	return *item, nil
}

func (uc *InventoryItems) Delete(ctx context.Context, articleNumber string) error {
	articleNumber, err := normalizeArticleNumber(articleNumber)
	if err != nil {
		return err
	}
	return mapItemError(uc.repo.SoftDelete(ctx, articleNumber))
}

func (uc *InventoryItems) Restore(ctx context.Context, articleNumber string) error {
	articleNumber, err := normalizeArticleNumber(articleNumber)
	if err != nil {
		return err
	}
	return mapItemError(uc.repo.Restore(ctx, articleNumber))
}

func normalizeArticleNumber(articleNumber string) (string, error) {
	articleNumber = strings.TrimSpace(articleNumber)
	if articleNumber == "" || len(articleNumber) > maxArticleNumberLen {
		return "", ErrInvalidArticleNo
	}
	return articleNumber, nil
}

func mapItemError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrItemNotFound):
		return ErrInventoryNotFound
	default:
		return fmt.Errorf("%w: %v", ErrInventoryOperation, err)
	}
}
