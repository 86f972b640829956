// Package export renders compliance files (FEC, SAF-T, Factur-X) from ledger
// and invoice data. Renderers are read-only and must produce a valid,
// empty-bodied file for an empty period.
package export

import (
	"fmt"
	"time"
)

// fecAmount formats minor units with a comma decimal separator, per the FEC
// convention.
func fecAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d,%02d", sign, minor/100, minor%100)
}

// xmlAmount formats minor units with a dot decimal separator.
func xmlAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

func compactDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("20060102")
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
