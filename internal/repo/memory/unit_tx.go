package memory

import (
	"context"
	"fmt"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/ports"
)

var _ ports.InventoryTx = (*unitTx)(nil)

type opKind int

const (
	opInsertOrder opKind = iota
	opUpdateOrder
	opDeleteOrder
	opSaveRecord
	opDeleteRecord
)

type op struct {
	kind   opKind
	id     string
	order  *domain.Order
	record *domain.Record
}

// unitTx — накапливает записи атомарной единицы; до commit они не видны читателям.
type unitTx struct {
	store *Store
	ops   []op
}

func (u *unitTx) InsertOrder(_ context.Context, o *domain.Order) error {
	cp := o.Clone()
	cp.Record = nil
	u.ops = append(u.ops, op{kind: opInsertOrder, order: cp})
	return nil
}

func (u *unitTx) UpdateOrder(_ context.Context, o *domain.Order) error {
	cp := o.Clone()
	cp.Record = nil
	u.ops = append(u.ops, op{kind: opUpdateOrder, order: cp})
	return nil
}

func (u *unitTx) DeleteOrder(_ context.Context, orderID string) error {
	u.ops = append(u.ops, op{kind: opDeleteOrder, id: orderID})
	return nil
}

// SaveRecord — версия проверяется при применении единицы.
func (u *unitTx) SaveRecord(_ context.Context, rec *domain.Record) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("save record: empty record")
	}
	rec.Version++
	u.ops = append(u.ops, op{kind: opSaveRecord, record: rec.Clone()})
	return nil
}

func (u *unitTx) DeleteRecord(_ context.Context, recordID string) error {
	u.ops = append(u.ops, op{kind: opDeleteRecord, id: recordID})
	return nil
}

// CountOrders — считает и уже зафиксированные заказы, и накопленные в этой единице.
func (u *unitTx) CountOrders(_ context.Context, recordID string) (int, error) {
	u.store.mu.RLock()
	ids := make(map[string]struct{})
	for id, o := range u.store.orders {
		if o.RecordID == recordID {
			ids[id] = struct{}{}
		}
	}
	u.store.mu.RUnlock()

	for _, op := range u.ops {
		switch op.kind {
		case opInsertOrder:
			if op.order.RecordID == recordID {
				ids[op.order.ID] = struct{}{}
			}
		case opDeleteOrder:
			delete(ids, op.id)
		}
	}
	return len(ids), nil
}
