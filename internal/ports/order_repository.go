package ports

import (
	"context"

	"github.com/Gunvolt24/record_shop/internal/domain"
)

// OrderRepository — чтение заказов вместе с проекцией пластинки.
// Запись заказов идёт только через InventoryStore.
type OrderRepository interface {
	// GetByID — (nil, nil), если заказа нет.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List — страница заказов по created DESC, id DESC и общее число.
	List(ctx context.Context, q domain.OrderQuery) ([]*domain.Order, int, error)
}
