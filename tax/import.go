package tax

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// BRACKET IMPORT - Two columns: threshold, tax. Optional header row.
// =============================================================================

// ParseCSV reads brackets from comma or semicolon separated text.
func ParseCSV(r io.Reader) ([]Bracket, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if strings.Count(firstLine(string(data)), ";") > 0 {
		reader.Comma = ';'
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, generic.NewValidation("file", "csv: %v", err)
		}
		rows = append(rows, record)
	}
	return parseRows(rows)
}

// ParseXLSX reads brackets from the first worksheet of a workbook.
func ParseXLSX(r io.Reader) ([]Bracket, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, generic.NewValidation("file", "xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, generic.NewValidation("file", "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]Bracket, error) {
	var brackets []Bracket
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		if len(row) < 2 {
			return nil, generic.NewValidation("file", "row %d: expected threshold and tax", i+1)
		}
		threshold, errT := parseAmount(row[0])
		tax, errX := parseAmount(row[1])
		if errT != nil || errX != nil {
			// header row
			if i == 0 || len(brackets) == 0 {
				continue
			}
			return nil, generic.NewValidation("file", "row %d: %q, %q are not amounts", i+1, row[0], row[1])
		}
		brackets = append(brackets, Bracket{Threshold: threshold, Tax: tax})
	}
	if len(brackets) == 0 {
		return nil, generic.NewValidation("file", "no bracket rows found")
	}
	return brackets, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(s)
	v = strings.ReplaceAll(v, " ", "")
	v = strings.ReplaceAll(v, "\u00a0", "")
	v = strings.ReplaceAll(v, ",", ".")
	return decimal.NewFromString(v)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
