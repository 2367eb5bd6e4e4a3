package validate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/ports"
	"github.com/shopspring/decimal"
)

// Проверка, что RecordValidator удовлетворяет интерфейсу RecordValidator.
var _ ports.RecordValidator = (*RecordValidator)(nil)

// ErrInvalidRecord — базовая (sentinel error) ошибка валидации.
var ErrInvalidRecord = errors.New("record validation failed")

// Границы значений позиции каталога.
const (
	MaxTextLength = 200
	// MaxPatchQty и MaxPatchPrice — верхние границы при частичном изменении из админки.
	MaxPatchQty = 100
)

var (
	MinPrice      = decimal.RequireFromString("0.01")
	MaxPatchPrice = decimal.NewFromInt(10000)

	// mbidPattern — MusicBrainz ID имеет формат UUID.
	mbidPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// RecordValidator — структура для валидации позиций каталога.
type RecordValidator struct{}

// NewRecordValidator — конструктор RecordValidator.
// Возвращает ErrInvalidRecord (с обёрнутой причиной) при любой проблеме.
func NewRecordValidator() *RecordValidator { return &RecordValidator{} }

// Validate — проверяет корректность полей позиции.
func (v *RecordValidator) Validate(_ context.Context, rec *domain.Record) error {
	if rec == nil {
		return fmt.Errorf("%w: запись не может быть nil", ErrInvalidRecord)
	}
	if err := validateText("artist", rec.Artist); err != nil {
		return err
	}
	if err := validateText("album", rec.Album); err != nil {
		return err
	}
	if rec.Price.LessThan(MinPrice) {
		return fmt.Errorf("%w: price должен быть не меньше %s", ErrInvalidRecord, MinPrice)
	}
	if !rec.Price.Equal(rec.Price.Round(2)) {
		return fmt.Errorf("%w: price допускает не больше двух знаков после запятой", ErrInvalidRecord)
	}
	if rec.Qty < 0 {
		return fmt.Errorf("%w: qty должен быть неотрицательным", ErrInvalidRecord)
	}
	if !rec.Format.Valid() {
		return fmt.Errorf("%w: format %q не поддерживается", ErrInvalidRecord, rec.Format)
	}
	if !rec.Category.Valid() {
		return fmt.Errorf("%w: category %q не поддерживается", ErrInvalidRecord, rec.Category)
	}
	if rec.MBID != "" && !ValidMBID(rec.MBID) {
		return fmt.Errorf("%w: "+domain.MsgInvalidMBID, ErrInvalidRecord, rec.MBID)
	}
	return validateTracks(rec.TrackList)
}

// ValidatePatch — проверяет поля частичного изменения (включая верхние границы цены и остатка).
func (v *RecordValidator) ValidatePatch(_ context.Context, p *domain.RecordPatch) error {
	if p == nil {
		return fmt.Errorf("%w: патч не может быть nil", ErrInvalidRecord)
	}
	if p.Artist != nil {
		if err := validateText("artist", *p.Artist); err != nil {
			return err
		}
	}
	if p.Album != nil {
		if err := validateText("album", *p.Album); err != nil {
			return err
		}
	}
	if p.Price != nil && (p.Price.LessThan(MinPrice) || p.Price.GreaterThan(MaxPatchPrice)) {
		return fmt.Errorf("%w: price должен быть в диапазоне [%s, %s]", ErrInvalidRecord, MinPrice, MaxPatchPrice)
	}
	if p.Qty != nil && (*p.Qty < 0 || *p.Qty > MaxPatchQty) {
		return fmt.Errorf("%w: qty должен быть в диапазоне [0, %d]", ErrInvalidRecord, MaxPatchQty)
	}
	if p.Format != nil && !p.Format.Valid() {
		return fmt.Errorf("%w: format %q не поддерживается", ErrInvalidRecord, *p.Format)
	}
	if p.Category != nil && !p.Category.Valid() {
		return fmt.Errorf("%w: category %q не поддерживается", ErrInvalidRecord, *p.Category)
	}
	if p.MBID != nil && *p.MBID != "" && !ValidMBID(*p.MBID) {
		return fmt.Errorf("%w: "+domain.MsgInvalidMBID, ErrInvalidRecord, *p.MBID)
	}
	if p.TrackList != nil {
		return validateTracks(p.TrackList)
	}
	return nil
}

// ValidMBID — строка похожа на MusicBrainz ID.
func ValidMBID(s string) bool { return mbidPattern.MatchString(s) }

func validateText(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s обязателен", ErrInvalidRecord, field)
	}
	if utf8.RuneCountInString(value) > MaxTextLength {
		return fmt.Errorf("%w: %s длиннее %d символов", ErrInvalidRecord, field, MaxTextLength)
	}
	return nil
}

// Валидация треков
func validateTracks(tracks []domain.Track) error {
	for i := range tracks {
		if tracks[i].Title == "" {
			return fmt.Errorf("%w: trackList[%d].title обязателен", ErrInvalidRecord, i)
		}
		if tracks[i].Position <= 0 {
			return fmt.Errorf("%w: trackList[%d].position должен быть положительным", ErrInvalidRecord, i)
		}
	}
	return nil
}
