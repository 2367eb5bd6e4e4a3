//go:build integration

package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func UniqSuffix() string { return randHex(6) }

// MakeRecord — валидная позиция каталога с уникальной тройкой (artist, album, format).
func MakeRecord(opts ...func(*domain.Record)) *domain.Record {
	now := time.Now().UTC().Truncate(time.Millisecond)
	r := &domain.Record{
		ID:           uuid.NewString(),
		Artist:       "Artist " + UniqSuffix(),
		Album:        "Album " + UniqSuffix(),
		Price:        decimal.RequireFromString("24.99"),
		Qty:          10,
		Format:       domain.FormatVinyl,
		Category:     domain.CategoryJazz,
		TrackList:    []domain.Track{{Title: "Side A", Duration: "20:00", Position: 1}},
		Created:      now,
		LastModified: now,
		Version:      1,
	}
	for _, fn := range opts {
		fn(r)
	}
	return r
}

func WithQty(qty int) func(*domain.Record) {
	return func(r *domain.Record) { r.Qty = qty }
}

func WithPrice(price string) func(*domain.Record) {
	return func(r *domain.Record) { r.Price = decimal.RequireFromString(price) }
}

func WithKey(artist, album string, format domain.Format) func(*domain.Record) {
	return func(r *domain.Record) {
		r.Artist, r.Album, r.Format = artist, album, format
	}
}

// MakeOrder — заказ в статусе pending на пластинку rec; итог считается по её текущей цене.
func MakeOrder(rec *domain.Record, qty int, email string) *domain.Order {
	now := time.Now().UTC().Truncate(time.Millisecond)
	o := &domain.Order{
		ID:           uuid.NewString(),
		RecordID:     rec.ID,
		Quantity:     qty,
		Status:       domain.OrderPending,
		Email:        email,
		Created:      now,
		LastModified: now,
	}
	o.Reprice(rec.Price)
	return o
}
