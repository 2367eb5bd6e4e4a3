// Package memory — хранилище каталога и заказов в памяти процесса.
// Атомарная единица держит мьютекс пластинки всё время выполнения и
// публикует изменения одним шагом после успешного завершения тела.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/ports"
)

var (
	_ ports.InventoryStore    = (*Store)(nil)
	_ ports.CatalogRepository = (*RecordRepository)(nil)
	_ ports.OrderRepository   = (*OrderRepository)(nil)
)

// Store — каталог и заказы в памяти.
type Store struct {
	mu      sync.RWMutex // защищает records и orders
	records map[string]*domain.Record
	orders  map[string]*domain.Order

	locks *keyedMutex // мьютексы атомарных единиц по id пластинки
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]*domain.Record),
		orders:  make(map[string]*domain.Order),
		locks:   newKeyedMutex(),
	}
}

// Records — каталог поверх общего хранилища.
func (s *Store) Records() *RecordRepository { return &RecordRepository{s: s} }

// Orders — чтение заказов поверх общего хранилища.
func (s *Store) Orders() *OrderRepository { return &OrderRepository{s: s} }

// ---- CatalogRepository ----

// RecordRepository — ports.CatalogRepository над Store.
type RecordRepository struct{ s *Store }

func (r *RecordRepository) GetByID(_ context.Context, id string) (*domain.Record, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[id].Clone(), nil
}

func (r *RecordRepository) FindByKey(_ context.Context, key domain.RecordKey) (*domain.Record, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findByKeyLocked(key, "").Clone(), nil
}

func (r *RecordRepository) List(_ context.Context, filter domain.RecordFilter) ([]*domain.Record, int, error) {
	s := r.s
	f := filter.Normalize()

	s.mu.RLock()
	matched := make([]*domain.Record, 0, len(s.records))
	for _, rec := range s.records {
		if f.Matches(rec) {
			matched = append(matched, rec.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		c := compareRecords(matched[i], matched[j], f.SortBy)
		if c == 0 {
			return matched[i].ID < matched[j].ID
		}
		if f.SortDirection == domain.SortDesc {
			return c > 0
		}
		return c < 0
	})

	return paginate(matched, f.Offset(), f.Limit), len(matched), nil
}

func (r *RecordRepository) Insert(_ context.Context, rec *domain.Record) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("record %s already stored", rec.ID)
	}
	if s.findByKeyLocked(rec.Key(), "") != nil {
		return domain.DuplicateRecord(rec.Key())
	}
	if rec.Version == 0 {
		rec.Version = 1
	}
	s.records[rec.ID] = rec.Clone()
	return nil
}

// ---- OrderRepository ----

// OrderRepository — ports.OrderRepository над Store.
type OrderRepository struct{ s *Store }

// GetByID — заказ с проекцией пластинки; (nil, nil), если заказа нет.
func (r *OrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return s.withSummaryLocked(o), nil
}

func (r *OrderRepository) List(_ context.Context, q domain.OrderQuery) ([]*domain.Order, int, error) {
	s := r.s
	s.mu.RLock()
	matched := make([]*domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if q.Owner == "" || strings.EqualFold(o.Email, q.Owner) {
			matched = append(matched, s.withSummaryLocked(o))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Created.Equal(matched[j].Created) {
			return matched[i].Created.After(matched[j].Created)
		}
		return matched[i].ID > matched[j].ID
	})

	return paginate(matched, q.Offset, q.Limit), len(matched), nil
}

// ---- InventoryStore ----

func (s *Store) WithinRecord(ctx context.Context, recordID string, fn ports.UnitFunc) error {
	unlock := s.locks.Lock(recordID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	rec := s.records[recordID].Clone()
	s.mu.RUnlock()

	tx := &unitTx{store: s}
	if err := fn(ctx, tx, nil, rec); err != nil {
		return err
	}
	return s.commit(tx)
}

// WithinOrder — id пластинки заказа неизменяем, поэтому его можно прочитать до захвата мьютекса.
func (s *Store) WithinOrder(ctx context.Context, orderID string, fn ports.UnitFunc) error {
	s.mu.RLock()
	o, ok := s.orders[orderID]
	recordID := ""
	if ok {
		recordID = o.RecordID
	}
	s.mu.RUnlock()

	if !ok {
		return fn(ctx, &unitTx{store: s}, nil, nil)
	}

	unlock := s.locks.Lock(recordID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	// Перечитываем под мьютексом: заказ могли удалить, пока мы ждали.
	s.mu.RLock()
	order := s.orders[orderID].Clone()
	rec := s.records[recordID].Clone()
	s.mu.RUnlock()

	tx := &unitTx{store: s}
	if order == nil {
		rec = nil
	} else {
		order.Record = nil
	}
	if err := fn(ctx, tx, order, rec); err != nil {
		return err
	}
	return s.commit(tx)
}

// commit — применяет накопленные операции под одной записью-блокировкой.
// Проверки выполняются до первого изменения, чтобы единица не применилась частично.
func (s *Store) commit(tx *unitTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range tx.ops {
		if op.kind != opSaveRecord {
			continue
		}
		cur, ok := s.records[op.record.ID]
		if !ok || cur.Version != op.record.Version-1 {
			return fmt.Errorf("%w: record %s", domain.ErrConcurrentUpdate, op.record.ID)
		}
		if s.findByKeyLocked(op.record.Key(), op.record.ID) != nil {
			return domain.DuplicateRecord(op.record.Key())
		}
	}

	for _, op := range tx.ops {
		switch op.kind {
		case opInsertOrder, opUpdateOrder:
			s.orders[op.order.ID] = op.order
		case opDeleteOrder:
			delete(s.orders, op.id)
		case opSaveRecord:
			s.records[op.record.ID] = op.record
		case opDeleteRecord:
			delete(s.records, op.id)
		}
	}
	return nil
}

// ---- helpers ----

func (s *Store) findByKeyLocked(key domain.RecordKey, excludeID string) *domain.Record {
	for id, rec := range s.records {
		if id != excludeID && rec.Key() == key {
			return rec
		}
	}
	return nil
}

func (s *Store) withSummaryLocked(o *domain.Order) *domain.Order {
	cp := o.Clone()
	if rec, ok := s.records[o.RecordID]; ok {
		cp.Record = rec.Summary()
	}
	return cp
}

func compareRecords(a, b *domain.Record, sortBy string) int {
	switch sortBy {
	case domain.SortByAlbum:
		return strings.Compare(a.Album, b.Album)
	case domain.SortByPrice:
		return a.Price.Cmp(b.Price)
	case domain.SortByQty:
		return a.Qty - b.Qty
	case domain.SortByCreated:
		return a.Created.Compare(b.Created)
	default:
		return strings.Compare(a.Artist, b.Artist)
	}
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
