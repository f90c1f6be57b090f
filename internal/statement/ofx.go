package statement

import (
	"io"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"

	"github.com/hausledger/backend/internal/apperrors"
)

// ReadOFX parses an OFX bank statement into logical rows. OFX transactions
// are always booked, so BookingDate mirrors the posted date.
func ReadOFX(r io.Reader) ([]Row, error) {
	resp, err := ofxgo.ParseResponse(r)
	if err != nil {
		return nil, apperrors.Validation("could not read OFX statement: %v", err)
	}
	if len(resp.Bank) == 0 {
		return nil, apperrors.Validation("OFX statement contains no bank messages")
	}
	stmt, ok := resp.Bank[0].(*ofxgo.StatementResponse)
	if !ok {
		return nil, apperrors.Validation("OFX statement has unexpected message type")
	}
	if stmt.BankTranList == nil {
		return nil, apperrors.Validation("OFX statement contains no transaction list")
	}

	var rows []Row
	for _, txn := range stmt.BankTranList.Transactions {
		date := txn.DtPosted.Time
		if date.IsZero() {
			date = txn.DtUser.Time
		}
		merchant := strings.TrimSpace(txn.Name.String())
		if merchant == "" {
			merchant = strings.TrimSpace(txn.Memo.String())
		}

		row := Row{Merchant: merchant}
		if !date.IsZero() {
			day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
			row.Date = day
			booked := day
			row.BookingDate = &booked
		}
		// Bank amounts carry two decimals; float64 represents them fine.
		amount, _ := txn.TrnAmt.Float64()
		row.Amount = &amount
		rows = append(rows, row)
	}
	return rows, nil
}
