package ports

import (
	"context"

	"github.com/Gunvolt24/record_shop/internal/domain"
)

// RecordValidator — проверка позиции каталога и её частичного изменения.
type RecordValidator interface {
	Validate(ctx context.Context, record *domain.Record) error
	ValidatePatch(ctx context.Context, patch *domain.RecordPatch) error
}
