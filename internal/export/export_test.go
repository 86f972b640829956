package export

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/comptaflow/comptaflow/internal/ledger"
)

func mustAmount(t *testing.T, minor int64) money.Amount {
	t.Helper()
	a, err := money.NewAmountFromMinorUnits("EUR", minor)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func sampleEntry(t *testing.T) ledger.JournalEntry {
	return ledger.JournalEntry{
		ID:            uuid.New(),
		CompanyID:     uuid.New(),
		Date:          time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		DebitCode:     "411",
		CreditCode:    "701",
		Amount:        mustAmount(t, 144000),
		Description:   "Invoice INV-1",
		ReferenceType: ledger.RefInvoice,
		ReferenceID:   "INV-1",
		JournalCode:   "VE",
		JournalName:   "Journal des ventes",
	}
}

func sampleCompany() ledger.Company {
	return ledger.Company{
		ID:       uuid.New(),
		Name:     "Test SARL",
		Country:  ledger.CountryFR,
		Currency: "EUR",
		SIRET:    "73282932000074",
		VATNum:   "FR40303265045",
	}
}

func TestFEC_EmptyIsHeaderOnly(t *testing.T) {
	out := FEC(nil, nil)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("empty export has %d lines, want header only", len(lines))
	}
	if got := len(strings.Split(lines[0], "|")); got != 18 {
		t.Fatalf("header has %d columns, want 18", got)
	}
}

func TestFEC_TwoRowsPerEntry(t *testing.T) {
	e := sampleEntry(t)
	accounts := []ledger.Account{
		{Code: "411", Name: "Clients"},
		{Code: "701", Name: "Ventes"},
	}
	out := FEC([]ledger.JournalEntry{e}, accounts)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(lines))
	}
	debit := strings.Split(lines[1], "|")
	credit := strings.Split(lines[2], "|")
	if len(debit) != 18 || len(credit) != 18 {
		t.Fatalf("rows have %d/%d columns, want 18", len(debit), len(credit))
	}
	if debit[4] != "411" || debit[5] != "Clients" {
		t.Fatalf("debit row account: %s/%s", debit[4], debit[5])
	}
	// Comma decimal separator, debit column filled, credit zero.
	if debit[11] != "1440,00" || debit[12] != "0,00" {
		t.Fatalf("debit amounts: %s / %s", debit[11], debit[12])
	}
	if credit[11] != "0,00" || credit[12] != "1440,00" {
		t.Fatalf("credit amounts: %s / %s", credit[11], credit[12])
	}
	if debit[3] != "20260310" {
		t.Fatalf("date format: %s", debit[3])
	}
}

func TestSAFT_Structure(t *testing.T) {
	company := sampleCompany()
	e := sampleEntry(t)
	accounts := []ledger.Account{{Code: "411", Name: "Clients", Category: ledger.CategoryAsset}}
	invoices := []ledger.Invoice{
		{ID: uuid.New(), ClientName: "ACME", Reference: "INV-1"},
		{ID: uuid.New(), ClientName: "ACME", Reference: "INV-2"}, // dedup
	}
	out, err := SAFT(company, accounts, []ledger.JournalEntry{e}, invoices, e.Date.AddDate(0, -1, 0), e.Date.AddDate(0, 1, 0))
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	for _, want := range []string{
		"<AuditFile>", "<Header>", "<CompanyName>Test SARL</CompanyName>",
		"<MasterFiles>", "<AccountID>411</AccountID>",
		"<GeneralLedgerEntries>", "<NumberOfEntries>1</NumberOfEntries>",
		"<TotalDebit>1440.00</TotalDebit>", "<JournalID>VE</JournalID>",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %s", want)
		}
	}
	if strings.Count(s, "<CustomerID>ACME</CustomerID>") != 1 {
		t.Error("customers not deduplicated")
	}
}

func TestSAFT_EmptyIsValid(t *testing.T) {
	out, err := SAFT(sampleCompany(), nil, nil, nil, time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, "<NumberOfEntries>0</NumberOfEntries>") {
		t.Error("empty export should declare zero entries")
	}
}

func TestFacturX_Profiles(t *testing.T) {
	company := sampleCompany()
	inv := ledger.Invoice{
		ID: uuid.New(), Reference: "INV-1", ClientName: "ACME",
		Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		TotalHT: 120000, TotalTTC: 144000,
	}
	cases := map[string]string{
		ProfileMinimum: "urn:factur-x.eu:1p0:minimum",
		ProfileBasic:   "urn:factur-x.eu:1p0:basic",
		ProfileEN16931: "urn:cen.eu:en16931:2017",
	}
	for profile, urn := range cases {
		out, err := FacturX(company, inv, profile)
		if err != nil {
			t.Fatalf("%s: %v", profile, err)
		}
		s := string(out)
		if !strings.Contains(s, urn) {
			t.Errorf("%s: missing URN %s", profile, urn)
		}
		for _, want := range []string{
			"rsm:CrossIndustryInvoice",
			"<ram:ID>INV-1</ram:ID>",
			"<ram:TypeCode>380</ram:TypeCode>",
			`format="102"`, ">20260310<",
			"<ram:Name>ACME</ram:Name>",
			"<ram:GrandTotalAmount>1440.00</ram:GrandTotalAmount>",
			"<ram:TaxTotalAmount>240.00</ram:TaxTotalAmount>",
			"<ram:RateApplicablePercent>20.00</ram:RateApplicablePercent>",
			`schemeID="VA"`,
		} {
			if !strings.Contains(s, want) {
				t.Errorf("%s: missing %s", profile, want)
			}
		}
	}
}

func TestFacturX_UnknownProfile(t *testing.T) {
	_, err := FacturX(sampleCompany(), ledger.Invoice{}, "premium")
	if err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestAmountFormatting(t *testing.T) {
	if got := fecAmount(-8990); got != "-89,90" {
		t.Errorf("fecAmount(-8990) = %s", got)
	}
	if got := fecAmount(5); got != "0,05" {
		t.Errorf("fecAmount(5) = %s", got)
	}
	if got := xmlAmount(144000); got != "1440.00" {
		t.Errorf("xmlAmount(144000) = %s", got)
	}
}
