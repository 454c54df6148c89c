package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

type GetImportStatusInput struct {
	JobID string
}

type GetImportStatus interface {
	Execute(ctx context.Context, in GetImportStatusInput) (domain.JobSnapshot, error)
}

type getImportStatus struct {
	statuses domain.StatusStore
}

func NewGetImportStatus(statuses domain.StatusStore) GetImportStatus {
	return &getImportStatus{statuses: statuses}
}

func (uc *getImportStatus) Execute(ctx context.Context, in GetImportStatusInput) (domain.JobSnapshot, error) {
	if _, err := uuid.Parse(in.JobID); err != nil {
		return domain.JobSnapshot{}, ErrInvalidJobID
	}

	snapshot, err := uc.statuses.Get(ctx, in.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return domain.JobSnapshot{}, ErrImportJobNotFound
		}
		return domain.JobSnapshot{}, fmt.Errorf("%w: %v", ErrGetImportStatus, err)
	}
	return snapshot, nil
}
