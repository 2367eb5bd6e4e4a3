package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus — статус заказа.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Terminal — из статуса нет переходов (кроме удаления заказа).
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// CanTransitionTo — допустим ли переход статуса.
// pending → completed | cancelled; completed и cancelled конечные; переход в тот же статус — no-op.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	return s == OrderPending && (next == OrderCompleted || next == OrderCancelled)
}

// HoldsStock — количество заказа числится списанным со склада.
func (s OrderStatus) HoldsStock() bool { return s != OrderCancelled }

// Order — заказ покупателя на одну позицию каталога.
type Order struct {
	ID           string          `json:"id"`
	RecordID     string          `json:"recordId"`
	Quantity     int             `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	Status       OrderStatus     `json:"status"`
	Email        string          `json:"email"`
	Created      time.Time       `json:"created"`
	LastModified time.Time       `json:"lastModified"`

	// Record — проекция пластинки; заполняется только при чтении списка/деталей.
	Record *RecordSummary `json:"record,omitempty"`
}

// Clone — копия заказа вместе с проекцией.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	if o.Record != nil {
		rs := *o.Record
		cp.Record = &rs
	}
	return &cp
}

// Reprice — пересчитать итог по цене за единицу.
func (o *Order) Reprice(unitPrice decimal.Decimal) {
	o.TotalPrice = unitPrice.Mul(decimal.NewFromInt(int64(o.Quantity)))
}

// OrderPatch — частичное изменение заказа; nil-поле не трогается.
type OrderPatch struct {
	Quantity *int         `json:"quantity,omitempty"`
	Status   *OrderStatus `json:"status,omitempty"`
	Email    *string      `json:"email,omitempty"`
}

func (p *OrderPatch) IsEmpty() bool {
	return p.Quantity == nil && p.Status == nil && p.Email == nil
}

// OrderQuery — выборка страницы заказов. Пустой Owner — все заказы.
type OrderQuery struct {
	Owner  string
	Limit  int
	Offset int
}

// PageMeta — метаданные страницы.
type PageMeta struct {
	TotalItems   int `json:"totalItems"`
	ItemCount    int `json:"itemCount"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
}

// Page — страница результатов вместе с метаданными.
type Page[T any] struct {
	Items []T      `json:"items"`
	Meta  PageMeta `json:"meta"`
}

// NewPage — собирает страницу; nil-срез заменяется пустым, чтобы в JSON был [].
func NewPage[T any](items []T, total, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Page[T]{
		Items: items,
		Meta: PageMeta{
			TotalItems:   total,
			ItemCount:    len(items),
			ItemsPerPage: limit,
			TotalPages:   totalPages,
			CurrentPage:  page,
		},
	}
}

// CreateOrderInput — данные для создания заказа. Email владельца учитывается только для администратора.
type CreateOrderInput struct {
	RecordID string `json:"recordId"`
	Quantity int    `json:"quantity"`
	Email    string `json:"email,omitempty"`
}
