package postgres

import (
	"errors"
	"fmt"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Коды ошибок Postgres, которые различает слой хранения.
const (
	pgErrUniqueViolation      = "23505"
	pgErrForeignKeyViolation  = "23503"
	pgErrSerializationFailure = "40001"
	pgErrDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// mapTxError — переводит ошибки драйвера в доменные; доменные ошибки тела единицы проходят как есть.
func mapTxError(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) || errors.Is(err, domain.ErrConcurrentUpdate) {
		return err
	}
	switch pgCode(err) {
	case pgErrSerializationFailure, pgErrDeadlockDetected:
		return fmt.Errorf("%w: %v", domain.ErrConcurrentUpdate, err)
	case pgErrUniqueViolation:
		return &domain.Error{Kind: domain.KindConflict, Message: domain.MsgRecordDuplicate, Err: err}
	case pgErrForeignKeyViolation:
		return &domain.Error{Kind: domain.KindConflict, Message: "record is referenced by orders", Err: err}
	}
	return err
}

// validID — строка является UUID; иначе строки в таблице заведомо нет.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
