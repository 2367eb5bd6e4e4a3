package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	_ ports.InventoryStore = (*InventoryStore)(nil)
	_ ports.InventoryTx    = (*unitTx)(nil)
)

// InventoryStore — атомарные единицы над заказом и пластинкой в одной транзакции.
// Строки блокируются SELECT ... FOR UPDATE в порядке заказ → пластинка,
// запись пластинки дополнительно проверяет version.
type InventoryStore struct {
	pool *pgxpool.Pool
}

func NewInventoryStore(pool *pgxpool.Pool) *InventoryStore { return &InventoryStore{pool: pool} }

// WithinRecord — транзакция с блокировкой строки пластинки.
func (s *InventoryStore) WithinRecord(ctx context.Context, recordID string, fn ports.UnitFunc) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		rec, err := lockRecord(ctx, tx, recordID)
		if err != nil {
			return err
		}
		return fn(ctx, &unitTx{tx: tx}, nil, rec)
	})
}

// WithinOrder — транзакция с блокировкой строки заказа, затем его пластинки.
func (s *InventoryStore) WithinOrder(ctx context.Context, orderID string, fn ports.UnitFunc) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		order, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fn(ctx, &unitTx{tx: tx}, nil, nil)
		}
		rec, err := lockRecord(ctx, tx, order.RecordID)
		if err != nil {
			return err
		}
		return fn(ctx, &unitTx{tx: tx}, order, rec)
	})
}

func (s *InventoryStore) inTx(ctx context.Context, body func(tx pgx.Tx) error) (err error) {
	transaction, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapTxError(fmt.Errorf("begin: %w", err))
	}
	defer func() {
		err = withRollback(err, transaction.Rollback(ctx))
	}()

	if err := body(transaction); err != nil {
		return mapTxError(err)
	}
	if err := transaction.Commit(ctx); err != nil {
		return mapTxError(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// withRollback — присоединяет сбой Rollback к ошибке единицы.
// После Commit Rollback возвращает ErrTxClosed, это не ошибка.
func withRollback(err, rbErr error) error {
	if rbErr == nil || errors.Is(rbErr, pgx.ErrTxClosed) {
		return err
	}
	return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
}

func lockRecord(ctx context.Context, tx pgx.Tx, id string) (*domain.Record, error) {
	if !validID(id) {
		return nil, nil
	}
	rec, err := scanRecord(tx.QueryRow(ctx, `SELECT `+recordColumns+` FROM records WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock record: %w", err)
	}
	return rec, nil
}

func lockOrder(ctx context.Context, tx pgx.Tx, id string) (*domain.Order, error) {
	if !validID(id) {
		return nil, nil
	}
	o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock order: %w", err)
	}
	return o, nil
}

// unitTx — операции записи внутри открытой транзакции.
type unitTx struct {
	tx pgx.Tx
}

func (u *unitTx) InsertOrder(ctx context.Context, o *domain.Order) error {
	if _, err := u.tx.Exec(ctx, `
		INSERT INTO orders (id, record_id, quantity, total_price, status, email, created, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, o.ID, o.RecordID, o.Quantity, o.TotalPrice, string(o.Status), o.Email, o.Created, o.LastModified); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (u *unitTx) UpdateOrder(ctx context.Context, o *domain.Order) error {
	tag, err := u.tx.Exec(ctx, `
		UPDATE orders SET quantity = $2, total_price = $3, status = $4, email = $5, last_modified = $6
		WHERE id = $1
	`, o.ID, o.Quantity, o.TotalPrice, string(o.Status), o.Email, o.LastModified)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %s vanished", domain.ErrConcurrentUpdate, o.ID)
	}
	return nil
}

func (u *unitTx) DeleteOrder(ctx context.Context, orderID string) error {
	if _, err := u.tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// SaveRecord — UPDATE с проверкой версии; 0 строк означает конкурентную запись.
func (u *unitTx) SaveRecord(ctx context.Context, rec *domain.Record) error {
	if rec.TrackList == nil {
		rec.TrackList = []domain.Track{}
	}
	tag, err := u.tx.Exec(ctx, `
		UPDATE records SET
			artist = $3, album = $4, price = $5, qty = $6, format = $7, category = $8,
			mbid = NULLIF($9, ''), track_list = $10, last_modified = $11, version = version + 1
		WHERE id = $1 AND version = $2
	`,
		rec.ID, rec.Version, rec.Artist, rec.Album, rec.Price, rec.Qty, string(rec.Format), string(rec.Category),
		rec.MBID, rec.TrackList, rec.LastModified,
	)
	if pgCode(err) == pgErrUniqueViolation {
		return domain.DuplicateRecord(rec.Key())
	}
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: record %s version %d", domain.ErrConcurrentUpdate, rec.ID, rec.Version)
	}
	rec.Version++
	return nil
}

func (u *unitTx) DeleteRecord(ctx context.Context, recordID string) error {
	if _, err := u.tx.Exec(ctx, `DELETE FROM records WHERE id = $1`, recordID); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func (u *unitTx) CountOrders(ctx context.Context, recordID string) (int, error) {
	var n int
	if err := u.tx.QueryRow(ctx, `SELECT count(*) FROM orders WHERE record_id = $1`, recordID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}
