package export

import (
	"encoding/xml"
	"sort"
	"time"

	"github.com/comptaflow/comptaflow/internal/ledger"
)

// SAF-T structural types. Field lists follow the OECD SAF-T layout: Header,
// MasterFiles (accounts, customers) and GeneralLedgerEntries grouped by
// journal.

type saftAuditFile struct {
	XMLName     xml.Name        `xml:"AuditFile"`
	Header      saftHeader      `xml:"Header"`
	MasterFiles saftMasterFiles `xml:"MasterFiles"`
	Entries     saftGLEntries   `xml:"GeneralLedgerEntries"`
}

type saftHeader struct {
	AuditFileVersion      string `xml:"AuditFileVersion"`
	CompanyName           string `xml:"CompanyName"`
	TaxRegistrationNumber string `xml:"TaxRegistrationNumber,omitempty"`
	CurrencyCode          string `xml:"CurrencyCode"`
	StartDate             string `xml:"SelectionCriteria>SelectionStartDate"`
	EndDate               string `xml:"SelectionCriteria>SelectionEndDate"`
	DateCreated           string `xml:"DateCreated"`
	SoftwareID            string `xml:"SoftwareID"`
}

type saftMasterFiles struct {
	Accounts  []saftAccount  `xml:"GeneralLedgerAccounts>Account"`
	Customers []saftCustomer `xml:"Customers>Customer"`
}

type saftAccount struct {
	AccountID          string `xml:"AccountID"`
	AccountDescription string `xml:"AccountDescription"`
	AccountType        string `xml:"AccountType"`
}

type saftCustomer struct {
	CustomerID  string `xml:"CustomerID"`
	CompanyName string `xml:"CompanyName"`
}

type saftGLEntries struct {
	NumberOfEntries int           `xml:"NumberOfEntries"`
	TotalDebit      string        `xml:"TotalDebit"`
	TotalCredit     string        `xml:"TotalCredit"`
	Journals        []saftJournal `xml:"Journal"`
}

type saftJournal struct {
	JournalID    string            `xml:"JournalID"`
	Description  string            `xml:"Description"`
	Transactions []saftTransaction `xml:"Transaction"`
}

type saftTransaction struct {
	TransactionID   string     `xml:"TransactionID"`
	TransactionDate string     `xml:"TransactionDate"`
	Description     string     `xml:"Description"`
	Lines           []saftLine `xml:"Lines>Line"`
}

type saftLine struct {
	RecordID     string `xml:"RecordID"`
	AccountID    string `xml:"AccountID"`
	DebitAmount  string `xml:"DebitAmount>Amount,omitempty"`
	CreditAmount string `xml:"CreditAmount>Amount,omitempty"`
}

// SAFT renders the company's ledger as a SAF-T XML document. Renders a valid
// empty-bodied file when the entry set is empty.
func SAFT(company ledger.Company, accounts []ledger.Account, entries []ledger.JournalEntry, invoices []ledger.Invoice, start, end time.Time) ([]byte, error) {
	af := saftAuditFile{
		Header: saftHeader{
			AuditFileVersion:      "1.0",
			CompanyName:           company.Name,
			TaxRegistrationNumber: company.VATNum,
			CurrencyCode:          company.Currency,
			StartDate:             isoDate(start),
			EndDate:               isoDate(end),
			DateCreated:           isoDate(time.Now().UTC()),
			SoftwareID:            "comptaflow",
		},
	}

	for _, a := range accounts {
		af.MasterFiles.Accounts = append(af.MasterFiles.Accounts, saftAccount{
			AccountID:          a.Code,
			AccountDescription: a.Name,
			AccountType:        string(a.Category),
		})
	}
	seen := make(map[string]bool)
	for _, inv := range invoices {
		if inv.ClientName == "" || seen[inv.ClientName] {
			continue
		}
		seen[inv.ClientName] = true
		af.MasterFiles.Customers = append(af.MasterFiles.Customers, saftCustomer{
			CustomerID:  inv.ClientName,
			CompanyName: inv.ClientName,
		})
	}

	byJournal := make(map[string]*saftJournal)
	var order []string
	var totalDebit, totalCredit int64
	for _, e := range entries {
		j, ok := byJournal[e.JournalCode]
		if !ok {
			j = &saftJournal{JournalID: e.JournalCode, Description: e.JournalName}
			byJournal[e.JournalCode] = j
			order = append(order, e.JournalCode)
		}
		units, _ := e.Amount.MinorUnits()
		totalDebit += units
		totalCredit += units
		j.Transactions = append(j.Transactions, saftTransaction{
			TransactionID:   e.ID.String(),
			TransactionDate: isoDate(e.Date),
			Description:     e.Description,
			Lines: []saftLine{
				{RecordID: "1", AccountID: e.DebitCode, DebitAmount: xmlAmount(units)},
				{RecordID: "2", AccountID: e.CreditCode, CreditAmount: xmlAmount(units)},
			},
		})
	}
	sort.Strings(order)
	for _, code := range order {
		af.Entries.Journals = append(af.Entries.Journals, *byJournal[code])
	}
	af.Entries.NumberOfEntries = len(entries)
	af.Entries.TotalDebit = xmlAmount(totalDebit)
	af.Entries.TotalCredit = xmlAmount(totalCredit)

	out, err := xml.MarshalIndent(af, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
