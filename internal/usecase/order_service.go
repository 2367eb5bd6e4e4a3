package usecase

import (
	"context"
	"strings"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/ports"
	"github.com/Gunvolt24/record_shop/pkg/metrics"
)

// Проверка, что OrderService удовлетворяет порту транспорта.
var _ ports.OrderService = (*OrderService)(nil)

// OrderService — жизненный цикл заказов и согласованность остатков (без знаний о транспорте).
// Каждая мутация — одна атомарная единица InventoryStore: запись заказа и изменение остатка
// пластинки фиксируются вместе или не фиксируются вовсе.
type OrderService struct {
	store  ports.InventoryStore  // атомарные единицы
	orders ports.OrderRepository // чтение заказов
	cache  cacheLayer
	policy ports.AccessPolicy
	events ports.EventPublisher // может быть nil
	log    ports.Logger
	opts   Options
}

// NewOrderService — DI-конструктор.
func NewOrderService(
	store ports.InventoryStore,
	orders ports.OrderRepository,
	cache ports.CacheStore,
	policy ports.AccessPolicy,
	events ports.EventPublisher,
	log ports.Logger,
	opts Options,
) *OrderService {
	return &OrderService{
		store:  store,
		orders: orders,
		cache:  newCacheLayer(cache, log),
		policy: policy,
		events: events,
		log:    log,
		opts:   opts.withDefaults(),
	}
}

// CreateOrder — списывает quantity со склада и создаёт заказ в статусе pending.
// Email владельца из входных данных учитывается только для администратора.
func (s *OrderService) CreateOrder(ctx context.Context, req domain.Requester, in domain.CreateOrderInput) (*domain.Order, error) {
	if in.Quantity <= 0 {
		return nil, domain.BadRequest(domain.MsgInvalidQuantity)
	}
	owner := strings.TrimSpace(req.Email)
	if override := strings.TrimSpace(in.Email); override != "" && !strings.EqualFold(override, owner) {
		if !s.policy.IsElevated(req.Role) {
			return nil, domain.Unauthorized(domain.MsgOwnerChange)
		}
		owner = override
	}
	if owner == "" {
		return nil, domain.Unauthorized("requester email is required")
	}

	var created *domain.Order
	err := withRetry(ctx, s.opts.Retry, s.log, "create", func(ctx context.Context) error {
		return s.store.WithinRecord(ctx, in.RecordID, func(ctx context.Context, tx ports.InventoryTx, _ *domain.Order, rec *domain.Record) error {
			if rec == nil {
				return domain.NotFound(domain.MsgRecordNotFound, in.RecordID)
			}
			if rec.Qty < in.Quantity {
				return domain.InsufficientStock(in.Quantity, rec.Qty)
			}

			now := s.opts.Now()
			order := &domain.Order{
				ID:           s.opts.NewID(),
				RecordID:     rec.ID,
				Quantity:     in.Quantity,
				Status:       domain.OrderPending,
				Email:        owner,
				Created:      now,
				LastModified: now,
			}
			order.Reprice(rec.Price)

			rec.Qty -= in.Quantity
			rec.LastModified = now

			if err := tx.InsertOrder(ctx, order); err != nil {
				return err
			}
			if err := tx.SaveRecord(ctx, rec); err != nil {
				return err
			}
			order.Record = rec.Summary()
			created = order
			return nil
		})
	})
	metrics.OrderMutations.WithLabelValues("create", resultLabel(err)).Inc()
	if err != nil {
		s.logFailure(ctx, "create", in.RecordID, err)
		return nil, err
	}

	s.cache.invalidate(ctx, ordersListPattern(), recordDetailPattern(created.RecordID), recordsListPattern())
	s.publish(ctx, domain.EventOrderCreated, created)
	s.log.Infof(ctx, "order created id=%s record=%s qty=%d owner=%s", created.ID, created.RecordID, created.Quantity, created.Email)
	return created, nil
}

// FindOrders — страница заказов: администратор видит все, пользователь только свои.
func (s *OrderService) FindOrders(ctx context.Context, req domain.Requester, page, limit int) (domain.Page[*domain.Order], error) {
	page, limit = domain.ClampPage(page, limit)

	owner := ""
	params := map[string]any{"page": page, "limit": limit}
	if s.policy.IsElevated(req.Role) {
		params["scope"] = "all"
	} else {
		owner = strings.TrimSpace(req.Email)
		if owner == "" {
			return domain.Page[*domain.Order]{}, domain.Unauthorized("requester email is required")
		}
		params["owner"] = strings.ToLower(owner)
	}

	return readThrough(ctx, s.cache, s.opts.Cache.OrdersList, params,
		func(ctx context.Context) (domain.Page[*domain.Order], error) {
			q := domain.OrderQuery{Owner: owner, Limit: limit, Offset: (page - 1) * limit}
			items, total, err := s.orders.List(ctx, q)
			if err != nil {
				s.log.Errorf(ctx, "orders.List failed owner=%q err=%v", owner, err)
				return domain.Page[*domain.Order]{}, err
			}
			return domain.NewPage(items, total, page, limit), nil
		})
}

// FindOrder — заказ по id; политика доступа проверяется и при попадании в кэш.
func (s *OrderService) FindOrder(ctx context.Context, req domain.Requester, orderID string) (*domain.Order, error) {
	order, err := readThrough(ctx, s.cache, s.opts.Cache.OrderDetail, map[string]any{"id": orderID},
		func(ctx context.Context) (*domain.Order, error) {
			o, err := s.orders.GetByID(ctx, orderID)
			if err != nil {
				s.log.Errorf(ctx, "orders.GetByID failed id=%s err=%v", orderID, err)
				return nil, err
			}
			if o == nil {
				return nil, domain.NotFound(domain.MsgOrderNotFound, orderID)
			}
			return o, nil
		})
	if err != nil {
		return nil, err
	}
	if !s.policy.Check(req.Role, req.Email, order.Email) {
		return nil, domain.Unauthorized(domain.MsgOrderForbidden, orderID)
	}
	return order, nil
}

// UpdateOrder — частичное изменение заказа.
// Количество меняется только у pending-заказа, разница списывается или возвращается на склад
// и итог пересчитывается по текущей цене. Отмена возвращает количество на склад.
func (s *OrderService) UpdateOrder(
	ctx context.Context,
	req domain.Requester,
	orderID string,
	patch domain.OrderPatch,
) (*domain.Order, error) {
	if err := validateOrderPatch(&patch); err != nil {
		return nil, err
	}

	var (
		updated *domain.Order
		changed bool
	)
	err := withRetry(ctx, s.opts.Retry, s.log, "update", func(ctx context.Context) error {
		return s.store.WithinOrder(ctx, orderID, func(ctx context.Context, tx ports.InventoryTx, o *domain.Order, rec *domain.Record) error {
			if o == nil {
				return domain.NotFound(domain.MsgOrderNotFound, orderID)
			}
			if !s.policy.Check(req.Role, req.Email, o.Email) {
				return domain.Unauthorized(domain.MsgOrderForbidden, orderID)
			}
			if patch.Email != nil && !strings.EqualFold(*patch.Email, o.Email) && !s.policy.IsElevated(req.Role) {
				return domain.Unauthorized(domain.MsgOwnerChange)
			}

			next, stockDelta, err := planOrderChange(o, rec, &patch)
			if err != nil {
				return err
			}
			changed = next.Status != o.Status || next.Quantity != o.Quantity || next.Email != o.Email
			updated = next
			if changed {
				now := s.opts.Now()
				next.LastModified = now
				if err := tx.UpdateOrder(ctx, next); err != nil {
					return err
				}
				if stockDelta != 0 && rec != nil {
					rec.Qty -= stockDelta
					rec.LastModified = now
					if err := tx.SaveRecord(ctx, rec); err != nil {
						return err
					}
				}
			}
			if rec != nil {
				next.Record = rec.Summary()
			}
			return nil
		})
	})
	metrics.OrderMutations.WithLabelValues("update", resultLabel(err)).Inc()
	if err != nil {
		s.logFailure(ctx, "update", orderID, err)
		return nil, err
	}
	if !changed {
		return updated, nil
	}

	s.cache.invalidate(ctx,
		ordersListPattern(), orderDetailPattern(updated.ID),
		recordDetailPattern(updated.RecordID), recordsListPattern(),
	)
	s.publish(ctx, domain.EventOrderUpdated, updated)
	s.log.Infof(ctx, "order updated id=%s status=%s qty=%d", updated.ID, updated.Status, updated.Quantity)
	return updated, nil
}

// RemoveOrder — удаляет заказ; количество не отменённого заказа возвращается на склад.
// Если пластинки уже нет, заказ удаляется без возврата.
func (s *OrderService) RemoveOrder(ctx context.Context, req domain.Requester, orderID string) error {
	var removed *domain.Order
	err := withRetry(ctx, s.opts.Retry, s.log, "delete", func(ctx context.Context) error {
		return s.store.WithinOrder(ctx, orderID, func(ctx context.Context, tx ports.InventoryTx, o *domain.Order, rec *domain.Record) error {
			if o == nil {
				return domain.NotFound(domain.MsgOrderNotFound, orderID)
			}
			if !s.policy.Check(req.Role, req.Email, o.Email) {
				return domain.Unauthorized(domain.MsgOrderForbidden, orderID)
			}
			if err := tx.DeleteOrder(ctx, o.ID); err != nil {
				return err
			}
			if o.Status.HoldsStock() && rec != nil {
				rec.Qty += o.Quantity
				rec.LastModified = s.opts.Now()
				if err := tx.SaveRecord(ctx, rec); err != nil {
					return err
				}
			}
			removed = o
			return nil
		})
	})
	metrics.OrderMutations.WithLabelValues("delete", resultLabel(err)).Inc()
	if err != nil {
		s.logFailure(ctx, "delete", orderID, err)
		return err
	}

	s.cache.invalidate(ctx,
		ordersListPattern(), orderDetailPattern(removed.ID),
		recordDetailPattern(removed.RecordID), recordsListPattern(),
	)
	s.publish(ctx, domain.EventOrderDeleted, removed)
	s.log.Infof(ctx, "order deleted id=%s record=%s", removed.ID, removed.RecordID)
	return nil
}

func validateOrderPatch(p *domain.OrderPatch) error {
	if p.IsEmpty() {
		return domain.BadRequest(domain.MsgEmptyPatch)
	}
	if p.Quantity != nil && *p.Quantity <= 0 {
		return domain.BadRequest(domain.MsgInvalidQuantity)
	}
	if p.Status != nil && !p.Status.Valid() {
		return domain.BadRequest(domain.MsgInvalidStatus, *p.Status)
	}
	if p.Email != nil && strings.TrimSpace(*p.Email) == "" {
		return domain.BadRequest("email must not be empty")
	}
	return nil
}

// planOrderChange — новое состояние заказа и изменение остатка (stockDelta > 0 — списать со склада).
func planOrderChange(o *domain.Order, rec *domain.Record, p *domain.OrderPatch) (*domain.Order, int, error) {
	next := o.Clone()
	next.Record = nil
	stockDelta := 0

	if p.Status != nil {
		if !o.Status.CanTransitionTo(*p.Status) {
			return nil, 0, domain.BadRequest(domain.MsgInvalidTransition, o.Status, *p.Status)
		}
		next.Status = *p.Status
	}

	if p.Quantity != nil && *p.Quantity != o.Quantity {
		if o.Status != domain.OrderPending {
			return nil, 0, domain.BadRequest(domain.MsgQuantityLocked)
		}
		if rec == nil {
			return nil, 0, domain.NotFound(domain.MsgRecordNotFound, o.RecordID)
		}
		stockDelta = *p.Quantity - o.Quantity
		next.Quantity = *p.Quantity
		next.Reprice(rec.Price)
	}

	// Переход в cancelled освобождает всё (уже новое) количество заказа.
	if o.Status.HoldsStock() && !next.Status.HoldsStock() && rec != nil {
		stockDelta -= next.Quantity
	}

	if stockDelta > 0 && rec.Qty < stockDelta {
		return nil, 0, domain.InsufficientStock(stockDelta, rec.Qty)
	}

	if p.Email != nil {
		next.Email = *p.Email
	}
	return next, stockDelta, nil
}

// publish — событие после фиксации; сбой публикации не ломает мутацию.
func (s *OrderService) publish(ctx context.Context, t domain.EventType, o *domain.Order) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, domain.NewOrderEvent(t, o, s.opts.Now())); err != nil {
		metrics.EventsPublished.WithLabelValues(string(t), "failed").Inc()
		s.log.Warnf(ctx, "publish %s failed order=%s err=%v", t, o.ID, err)
		return
	}
	metrics.EventsPublished.WithLabelValues(string(t), "ok").Inc()
}

func (s *OrderService) logFailure(ctx context.Context, op, id string, err error) {
	if domain.KindOf(err) == domain.KindInternal {
		s.log.Errorf(ctx, "order %s failed id=%s err=%v", op, id, err)
		return
	}
	s.log.Warnf(ctx, "order %s rejected id=%s err=%v", op, id, err)
}
