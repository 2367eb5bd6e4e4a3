package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Gunvolt24/record_shop/pkg/validate"
)

// CLI-приложение для проверки файлов каталога (seed-данные, выгрузки).
func main() {
	inputPath := flag.String("in", "", "path to input (.json or .jsonl). If empty, reads from stdin.")
	formatStr := flag.String("format", "auto", "input format: auto|json|jsonl")
	flag.Parse()

	ctx := context.Background()
	validator := validate.NewRecordValidator()
	format := validate.InputFormat(*formatStr)

	var (
		summary validate.Summary
		err     error
	)
	if *inputPath == "" {
		// stdin: считаем, что jsonl
		if format == validate.FormatAuto {
			format = validate.FormatJSONL
		}
		summary, err = validate.ValidateStream(ctx, validator, os.Stdin, format, os.Stdout)
	} else {
		summary, err = validate.ValidateFile(ctx, validator, *inputPath, format, os.Stdout)
	}
	for _, r := range summary.Rejected {
		fmt.Fprintf(os.Stderr, "#%d: %v\n", r.Index, r.Err)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "validation: %v (%s)\n", err, summary)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "validation ok (%s)\n", summary)
}
