// Package fingerprint computes the content-addressed identity of a
// transaction's original (date, amount, merchant) triple.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Compute returns the hex-encoded SHA-256 fingerprint of a transaction's
// original values. The input rendering is load-bearing: the date is rendered
// as "YYYY-MM-DD 00:00:00" at UTC and the amount with exactly two fractional
// digits, matching the text the database produces when casting the same
// values. Stored hashes were computed this way, so re-ingesting historical
// data deduplicates only if this stays byte-for-byte identical.
func Compute(date time.Time, amount float64, merchant string) string {
	day := date.UTC()
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	payload := fmt.Sprintf("%s|%.2f|%s", day.Format("2006-01-02 15:04:05"), amount, merchant)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
