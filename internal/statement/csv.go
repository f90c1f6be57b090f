package statement

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hausledger/backend/internal/apperrors"
)

// Date layouts seen across provider exports, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2/1/2006",
	"02/01/2006",
}

// ReadCSV parses a statement export into logical rows using the given column
// mapping. An unreadable container is a validation failure; individual rows
// with missing or unparseable values come back as-is for the pipeline to
// filter.
func ReadCSV(r io.Reader, cm ColumnMap) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.Validation("could not read statement file: %v", err)
	}
	if len(records) <= cm.HeaderRows {
		return nil, apperrors.Validation("statement file contains no data rows")
	}

	var rows []Row
	for _, record := range records[cm.HeaderRows:] {
		rows = append(rows, rowFromRecord(record, cm))
	}
	return rows, nil
}

func rowFromRecord(record []string, cm ColumnMap) Row {
	row := Row{
		Merchant: strings.TrimSpace(field(record, cm.MerchantCol)),
	}
	if d, ok := parseDate(field(record, cm.DateCol)); ok {
		row.Date = d
	}
	if d, ok := parseDate(field(record, cm.BookingDateCol)); ok {
		row.BookingDate = &d
	}
	if a, ok := parseAmount(field(record, cm.AmountCol)); ok {
		row.Amount = &a
	}
	if b, ok := parseAmount(field(record, cm.BalanceCol)); ok {
		row.Balance = &b
	}
	return row
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	// European exports use a comma decimal separator and occasionally a
	// non-breaking space or U+2212 minus.
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "−", "-")
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
