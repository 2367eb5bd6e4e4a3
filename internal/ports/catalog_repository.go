package ports

import (
	"context"

	"github.com/Gunvolt24/record_shop/internal/domain"
)

// CatalogRepository — чтение каталога и вставка новых позиций.
// GetByID/FindByKey возвращают (nil, nil), если записи нет.
type CatalogRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Record, error)
	FindByKey(ctx context.Context, key domain.RecordKey) (*domain.Record, error)
	List(ctx context.Context, filter domain.RecordFilter) ([]*domain.Record, int, error)

	// Insert — вставить позицию; нарушение уникальности тройки → domain.ErrConflict.
	Insert(ctx context.Context, record *domain.Record) error
}
