package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/ports"
)

// ValidateRecordFromJSON — валидация позиции каталога из JSON.
// Строковые поля обрезаются так же, как при создании через API.
func ValidateRecordFromJSON(ctx context.Context, validator ports.RecordValidator, raw []byte) (*domain.Record, error) {
	var rec domain.Record
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	// гарантируем отсутствие данных после объекта
	if err := dec.Decode(new(struct{})); err != io.EOF {
		return nil, fmt.Errorf("invalid json: trailing data")
	}
	rec.Artist = strings.TrimSpace(rec.Artist)
	rec.Album = strings.TrimSpace(rec.Album)
	rec.MBID = strings.TrimSpace(rec.MBID)
	if err := validator.Validate(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
