package domain

import (
	"errors"
	"fmt"
)

// Kind — класс доменной ошибки; по нему транспорт выбирает код ответа.
type Kind string

const (
	KindNotFound          Kind = "NotFound"
	KindConflict          Kind = "Conflict"
	KindInsufficientStock Kind = "InsufficientStock"
	KindUnauthorized      Kind = "Unauthorized"
	KindBadRequest        Kind = "BadRequest"
	KindInternal          Kind = "InternalError"
)

// Сентинелы для errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrBadRequest        = errors.New("bad request")
	ErrInternal          = errors.New("internal error")
)

// ErrConcurrentUpdate — хранилище не смогло применить атомарную единицу из-за конкурентной записи
// (serialization failure, deadlock, расхождение версии). Единицу можно повторить.
var ErrConcurrentUpdate = errors.New("concurrent update")

// ErrInvalidMessage — сообщение из шины не парсится или не проходит проверку; повторять бессмысленно.
var ErrInvalidMessage = errors.New("invalid message")

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	case KindInsufficientStock:
		return ErrInsufficientStock
	case KindUnauthorized:
		return ErrUnauthorized
	case KindBadRequest:
		return ErrBadRequest
	default:
		return ErrInternal
	}
}

// Error — доменная ошибка с классом, сообщением и деталями.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is — ошибка совпадает с сентинелом своего класса.
func (e *Error) Is(target error) bool { return target == e.Kind.sentinel() }

// KindOf — класс ошибки; ошибки вне домена считаются внутренними.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	for _, k := range []Kind{KindNotFound, KindConflict, KindInsufficientStock, KindUnauthorized, KindBadRequest} {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return KindInternal
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(details map[string]any, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...), Details: details}
}

func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Internal — внутренняя ошибка, оборачивающая причину.
func Internal(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// InsufficientStock — на складе меньше, чем запрошено.
func InsufficientStock(requested, available int) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Message: MsgInsufficientStock,
		Details: map[string]any{"requested": requested, "available": available},
	}
}

// DuplicateRecord — позиция с такой тройкой (artist, album, format) уже есть.
func DuplicateRecord(key RecordKey) *Error {
	return Conflict(map[string]any{
		"artist": key.Artist,
		"album":  key.Album,
		"format": string(key.Format),
	}, MsgRecordDuplicate)
}
