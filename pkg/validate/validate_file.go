package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/ports"
)

// InputFormat допустимые значения.
type InputFormat string

const (
	FormatAuto  InputFormat = "auto"
	FormatJSON  InputFormat = "json"
	FormatJSONL InputFormat = "jsonl"
)

// Summary — итог проверки файла.
type Summary struct {
	Valid    int
	Invalid  int
	Rejected []Rejection
}

// Rejection — отклонённая позиция: номер строки JSONL или элемента массива (с 1).
type Rejection struct {
	Index int
	Err   error
}

func (s Summary) String() string { return fmt.Sprintf("%d valid / %d invalid", s.Valid, s.Invalid) }

func (s *Summary) reject(index int, err error) {
	s.Invalid++
	s.Rejected = append(s.Rejected, Rejection{Index: index, Err: err})
}

// DetectFormat — формат по расширению; неизвестное расширение считается JSON.
func DetectFormat(filePath string) InputFormat {
	if strings.ToLower(filepath.Ext(filePath)) == ".jsonl" {
		return FormatJSONL
	}
	return FormatJSON
}

// ValidateFile — валидирует файл каталога и пишет валидные позиции в writer (по одной на строку).
// JSON может содержать один объект или массив объектов.
func ValidateFile(ctx context.Context, validator ports.RecordValidator, filePath string, format InputFormat, ow io.Writer) (Summary, error) {
	if format == FormatAuto {
		format = DetectFormat(filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return Summary{}, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return ValidateStream(ctx, validator, file, format, ow)
}

// ValidateStream — то же, что ValidateFile, но для произвольного reader'а.
func ValidateStream(ctx context.Context, validator ports.RecordValidator, ir io.Reader, format InputFormat, ow io.Writer) (Summary, error) {
	switch format {
	case FormatJSON:
		raw, err := io.ReadAll(ir)
		if err != nil {
			return Summary{}, fmt.Errorf("read input: %w", err)
		}
		return validateJSONDocument(ctx, validator, raw, ow)

	case FormatJSONL:
		return ValidateJSONLStream(ctx, validator, ir, ow)

	default:
		return Summary{}, fmt.Errorf("unsupported format: %s", format)
	}
}

// Документ с одним объектом: ошибка возвращается вызывающему.
// Массив: невалидные элементы только считаются.
func validateJSONDocument(ctx context.Context, validator ports.RecordValidator, raw []byte, ow io.Writer) (Summary, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		rec, err := ValidateRecordFromJSON(ctx, validator, trimmed)
		if err != nil {
			var sum Summary
			sum.reject(1, err)
			return sum, err
		}
		if err := writeRecord(ow, rec); err != nil {
			return Summary{}, err
		}
		return Summary{Valid: 1}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return Summary{}, fmt.Errorf("invalid json: %w", err)
	}
	var sum Summary
	for i, item := range items {
		rec, err := ValidateRecordFromJSON(ctx, validator, item)
		if err != nil {
			sum.reject(i+1, err)
			continue
		}
		if err := writeRecord(ow, rec); err != nil {
			return sum, err
		}
		sum.Valid++
	}
	return sum, nil
}

func writeRecord(ow io.Writer, rec *domain.Record) error {
	canonical, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := ow.Write(append(canonical, '\n')); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
