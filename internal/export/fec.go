package export

import (
	"fmt"
	"strings"

	"github.com/comptaflow/comptaflow/internal/ledger"
)

// fecHeader is the fixed 18-column FEC header.
var fecHeader = []string{
	"JournalCode", "JournalLib", "EcritureNum", "EcritureDate",
	"CompteNum", "CompteLib", "CompAuxNum", "CompAuxLib",
	"PieceRef", "PieceDate", "EcritureLib", "Debit", "Credit",
	"EcritureLet", "DateLet", "ValidDate", "Montantdevise", "Idevise",
}

// FEC renders entries as pipe-delimited FEC text. Every journal entry yields
// one debit row and one credit row; an empty entry set yields the header
// alone, which is still a valid file.
func FEC(entries []ledger.JournalEntry, accounts []ledger.Account) string {
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.Code] = a.Name
	}

	var b strings.Builder
	b.WriteString(strings.Join(fecHeader, "|"))
	b.WriteByte('\n')
	for i, e := range entries {
		num := fmt.Sprintf("%d", i+1)
		units, _ := e.Amount.MinorUnits()
		date := compactDate(e.Date)
		row := func(account string, debit, credit int64) {
			cols := []string{
				e.JournalCode, e.JournalName, num, date,
				account, names[account], "", "",
				e.ReferenceID, date, e.Description,
				fecAmount(debit), fecAmount(credit),
				"", "", date, "", "",
			}
			b.WriteString(strings.Join(cols, "|"))
			b.WriteByte('\n')
		}
		row(e.DebitCode, units, 0)
		row(e.CreditCode, 0, units)
	}
	return b.String()
}
