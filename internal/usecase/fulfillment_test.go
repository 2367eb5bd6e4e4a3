package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Gunvolt24/record_shop/internal/domain"
)

func TestApplyFulfillmentMessage_Completes(t *testing.T) {
	env := newTestEnv(t)
	rec := env.addRecord(t, "Miles Davis", "Kind of Blue", "10.00", 5)
	o := env.order(t, alice, rec.ID, 2)

	msg := []byte(`{"order_id":"` + o.ID + `","status":"completed"}`)
	if err := env.orders.ApplyFulfillmentMessage(context.Background(), msg); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got, _ := env.orders.FindOrder(context.Background(), admin, o.ID)
	if got.Status != domain.OrderCompleted {
		t.Fatalf("status=%s", got.Status)
	}
	if env.stock(t, rec.ID) != 3 {
		t.Fatalf("completed order keeps stock reserved")
	}

	// повтор того же сообщения безопасен
	if err := env.orders.ApplyFulfillmentMessage(context.Background(), msg); err != nil {
		t.Fatalf("replay: %v", err)
	}
}

func TestApplyFulfillmentMessage_CancelReturnsStock(t *testing.T) {
	env := newTestEnv(t)
	rec := env.addRecord(t, "Miles Davis", "Kind of Blue", "10.00", 5)
	o := env.order(t, alice, rec.ID, 2)

	err := env.orders.ApplyFulfillmentMessage(context.Background(), []byte(`{"order_id":"`+o.ID+`","status":"cancelled"}`))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := env.stock(t, rec.ID); got != 5 {
		t.Fatalf("stock=%d, want 5", got)
	}
}

func TestApplyFulfillmentMessage_Invalid(t *testing.T) {
	env := newTestEnv(t)
	rec := env.addRecord(t, "Miles Davis", "Kind of Blue", "10.00", 5)
	o := env.order(t, alice, rec.ID, 1)
	if _, err := env.orders.UpdateOrder(context.Background(), admin, o.ID, domain.OrderPatch{Status: ptr(domain.OrderCompleted)}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	cases := map[string]string{
		"broken json":    `{`,
		"unknown field":  `{"order_id":"x","status":"completed","extra":1}`,
		"trailing data":  `{"order_id":"x","status":"completed"}{}`,
		"missing id":     `{"status":"completed"}`,
		"pending status": `{"order_id":"x","status":"pending"}`,
		"unknown order":  `{"order_id":"missing","status":"completed"}`,
		"terminal order": `{"order_id":"` + o.ID + `","status":"cancelled"}`,
	}
	for name, raw := range cases {
		err := env.orders.ApplyFulfillmentMessage(context.Background(), []byte(raw))
		if !errors.Is(err, domain.ErrInvalidMessage) {
			t.Fatalf("%s: want ErrInvalidMessage, got %v", name, err)
		}
	}
}

func TestApplyFulfillmentMessage_TemporaryErrorIsRetryable(t *testing.T) {
	svc, _, _ := newContendedOrders(t, 100)

	// ошибка хранилища (не бизнес-правило) не помечается как невалидное сообщение
	err := svc.ApplyFulfillmentMessage(context.Background(), []byte(`{"order_id":"o-1","status":"completed"}`))
	if err == nil || errors.Is(err, domain.ErrInvalidMessage) {
		t.Fatalf("unexpected invalid-message classification: %v", err)
	}
}
