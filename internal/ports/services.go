package ports

import (
	"context"

	"github.com/Gunvolt24/record_shop/internal/domain"
)

// OrderService — операции над заказами, которые нужны транспорту.
type OrderService interface {
	CreateOrder(ctx context.Context, requester domain.Requester, in domain.CreateOrderInput) (*domain.Order, error)
	FindOrders(ctx context.Context, requester domain.Requester, page, limit int) (domain.Page[*domain.Order], error)
	FindOrder(ctx context.Context, requester domain.Requester, orderID string) (*domain.Order, error)
	UpdateOrder(ctx context.Context, requester domain.Requester, orderID string, patch domain.OrderPatch) (*domain.Order, error)
	RemoveOrder(ctx context.Context, requester domain.Requester, orderID string) error
}

// CatalogService — операции над каталогом, которые нужны транспорту.
type CatalogService interface {
	CreateRecord(ctx context.Context, requester domain.Requester, record *domain.Record) (*domain.Record, error)
	UpdateRecord(ctx context.Context, requester domain.Requester, id string, patch domain.RecordPatch) (*domain.Record, error)
	DeleteRecord(ctx context.Context, requester domain.Requester, id string) error
	FindRecords(ctx context.Context, filter domain.RecordFilter) (domain.Page[*domain.Record], error)
	FindRecord(ctx context.Context, id string) (*domain.Record, error)
}
