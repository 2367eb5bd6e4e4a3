package validate

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Gunvolt24/record_shop/internal/ports"
)

// maxLineBytes — верхняя граница строки JSONL (длинные списки треков).
const maxLineBytes = 10 << 20

// ValidateJSONLStream — построчная валидация JSONL. Валидные позиции пишутся в ow
// каноническим JSON, отклонённые попадают в Summary.Rejected с номером строки.
// Пустые строки пропускаются, но учитываются в нумерации.
func ValidateJSONLStream(ctx context.Context, validator ports.RecordValidator, ir io.Reader, ow io.Writer) (Summary, error) {
	var sum Summary

	scanner := bufio.NewScanner(ir)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		rec, err := ValidateRecordFromJSON(ctx, validator, line)
		if err != nil {
			sum.reject(lineNo, err)
			continue
		}
		if err := writeRecord(ow, rec); err != nil {
			return sum, err
		}
		sum.Valid++
	}
	if err := scanner.Err(); err != nil {
		return sum, fmt.Errorf("scan line %d: %w", lineNo+1, err)
	}
	return sum, nil
}
