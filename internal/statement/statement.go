// Package statement turns bank statement exports into the logical row model
// the ingestion pipeline consumes. Column layout and date conventions vary
// per provider, so the CSV reader takes an explicit mapping; the OFX reader
// speaks the standard format directly.
package statement

import "time"

// Row is one statement line as extracted from an export. Field values
// reflect the source verbatim: Date is the zero time when the source value
// did not parse, Amount is nil when unparseable and Merchant may be blank.
// The ingestion pipeline, not the parser, decides what to drop.
type Row struct {
	Date        time.Time
	BookingDate *time.Time
	Merchant    string
	Amount      *float64
	Balance     *float64
}

// ColumnMap describes where the logical columns live in a fixed-layout
// export. Indices are zero-based; a negative index means the column is
// absent. HeaderRows rows are skipped before data begins.
type ColumnMap struct {
	HeaderRows     int `json:"headerRows"`
	BookingDateCol int `json:"bookingDateCol"`
	DateCol        int `json:"dateCol"`
	MerchantCol    int `json:"merchantCol"`
	AmountCol      int `json:"amountCol"`
	BalanceCol     int `json:"balanceCol"`
}

// DefaultColumnMap matches the bank export this system was built around:
// nine header rows, then booking date, transaction date, merchant text,
// amount and balance.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		HeaderRows:     9,
		BookingDateCol: 0,
		DateCol:        1,
		MerchantCol:    2,
		AmountCol:      3,
		BalanceCol:     4,
	}
}
