package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Gunvolt24/record_shop/internal/domain"
)

// fulfillmentMessage — событие внешней системы исполнения заказов.
type fulfillmentMessage struct {
	OrderID string             `json:"order_id"`
	Status  domain.OrderStatus `json:"status"`
}

// ApplyFulfillmentMessage — применить событие исполнения, пришедшее из Kafka (raw JSON).
// Шаги:
//  1. строгий парсинг JSON (DisallowUnknownFields, без хвостовых данных);
//  2. проверка полей: order_id обязателен, status только completed|cancelled;
//  3. UpdateOrder от имени системного инициатора.
//
// Ошибки, которые не исправятся повтором (невалидное сообщение, заказа нет, недопустимый переход),
// оборачиваются в domain.ErrInvalidMessage.
func (s *OrderService) ApplyFulfillmentMessage(ctx context.Context, raw []byte) error {
	var msg fulfillmentMessage
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&msg); err != nil {
		s.log.Warnf(ctx, "invalid json err=%v", err)
		return fmt.Errorf("%w: invalid json: %v", domain.ErrInvalidMessage, err)
	}

	// Убеждаемся, что после объекта нет лишних данных.
	if err := dec.Decode(new(struct{})); err != io.EOF {
		s.log.Warnf(ctx, "invalid json: trailing data")
		return fmt.Errorf("%w: invalid json: trailing data", domain.ErrInvalidMessage)
	}

	msg.OrderID = strings.TrimSpace(msg.OrderID)
	if msg.OrderID == "" {
		return fmt.Errorf("%w: order_id is required", domain.ErrInvalidMessage)
	}
	if msg.Status != domain.OrderCompleted && msg.Status != domain.OrderCancelled {
		return fmt.Errorf("%w: unsupported status %q", domain.ErrInvalidMessage, msg.Status)
	}

	status := msg.Status
	_, err := s.UpdateOrder(ctx, domain.SystemRequester, msg.OrderID, domain.OrderPatch{Status: &status})
	if err == nil {
		s.log.Infof(ctx, "fulfillment applied order=%s status=%s", msg.OrderID, status)
		return nil
	}
	switch domain.KindOf(err) {
	case domain.KindNotFound, domain.KindBadRequest, domain.KindUnauthorized:
		return fmt.Errorf("%w: %v", domain.ErrInvalidMessage, err)
	default:
		return fmt.Errorf("apply fulfillment order=%s: %w", msg.OrderID, err)
	}
}
