package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Проверка, что OrderRepository удовлетворяет интерфейсу OrderRepository.
var _ ports.OrderRepository = (*OrderRepository)(nil)

const orderColumns = `o.id::text, o.record_id::text, o.quantity, o.total_price, o.status, o.email, o.created, o.last_modified`

// OrderRepository — чтение заказов с проекцией пластинки (LEFT JOIN: пластинки может уже не быть).
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository - конструктор OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository { return &OrderRepository{pool: pool} }

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	if err := row.Scan(&o.ID, &o.RecordID, &o.Quantity, &o.TotalPrice, &status, &o.Email, &o.Created, &o.LastModified); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func scanOrderWithRecord(row rowScanner) (*domain.Order, error) {
	var (
		o                     domain.Order
		status                string
		artist, album, format *string
		price                 decimal.NullDecimal
	)
	if err := row.Scan(
		&o.ID, &o.RecordID, &o.Quantity, &o.TotalPrice, &status, &o.Email, &o.Created, &o.LastModified,
		&artist, &album, &format, &price,
	); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	if artist != nil && album != nil && format != nil && price.Valid {
		o.Record = &domain.RecordSummary{
			Artist: *artist,
			Album:  *album,
			Format: domain.Format(*format),
			Price:  price.Decimal,
		}
	}
	return &o, nil
}

// GetByID — (nil, nil), если заказа нет.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if !validID(id) {
		return nil, nil
	}
	o, err := scanOrderWithRecord(r.pool.QueryRow(ctx, `
		SELECT `+orderColumns+`, r.artist, r.album, r.format, r.price
		FROM orders o
		LEFT JOIN records r ON r.id = o.record_id
		WHERE o.id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}
	return o, nil
}

// List — страница заказов (created DESC, id DESC); пустой Owner — все заказы.
func (r *OrderRepository) List(ctx context.Context, q domain.OrderQuery) ([]*domain.Order, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM orders o WHERE ($1 = '' OR lower(o.email) = lower($1))
	`, q.Owner).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`, r.artist, r.album, r.format, r.price
		FROM orders o
		LEFT JOIN records r ON r.id = o.record_id
		WHERE ($1 = '' OR lower(o.email) = lower($1))
		ORDER BY o.created DESC, o.id DESC
		LIMIT $2 OFFSET $3
	`, q.Owner, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	list := make([]*domain.Order, 0, q.Limit)
	for rows.Next() {
		o, scanErr := scanOrderWithRecord(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("scan order: %w", scanErr)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}
	return list, total, nil
}
