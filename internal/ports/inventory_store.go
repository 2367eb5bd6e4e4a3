package ports

import (
	"context"

	"github.com/Gunvolt24/record_shop/internal/domain"
)

// InventoryTx — операции записи внутри атомарной единицы.
// Изменения видны снаружи только после успешного завершения единицы целиком.
type InventoryTx interface {
	InsertOrder(ctx context.Context, order *domain.Order) error
	UpdateOrder(ctx context.Context, order *domain.Order) error
	DeleteOrder(ctx context.Context, orderID string) error

	// SaveRecord — записать пластинку с проверкой версии; при успехе record.Version увеличивается.
	SaveRecord(ctx context.Context, record *domain.Record) error
	DeleteRecord(ctx context.Context, recordID string) error

	// CountOrders — число заказов (в любом статусе), ссылающихся на пластинку.
	CountOrders(ctx context.Context, recordID string) (int, error)
}

// UnitFunc — тело атомарной единицы. Ошибка откатывает все записи единицы.
type UnitFunc func(ctx context.Context, tx InventoryTx, order *domain.Order, record *domain.Record) error

// InventoryStore — атомарные единицы над парой (заказ, пластинка).
// Пластинка передаётся в тело уже под блокировкой; nil означает отсутствие строки.
// Порядок блокировок всегда заказ → пластинка.
// Конкурентные сбои (serialization failure, deadlock, расхождение версии) возвращаются как domain.ErrConcurrentUpdate.
type InventoryStore interface {
	// WithinRecord — единица над одной пластинкой (создание заказа, правка и удаление пластинки); order всегда nil.
	WithinRecord(ctx context.Context, recordID string, fn UnitFunc) error

	// WithinOrder — единица над заказом и его пластинкой; order == nil, если заказа нет.
	WithinOrder(ctx context.Context, orderID string, fn UnitFunc) error
}
