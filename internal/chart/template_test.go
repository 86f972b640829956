package chart

import (
	"testing"

	"github.com/comptaflow/comptaflow/internal/ledger"
)

func TestLoadTemplate_AllCountries(t *testing.T) {
	for _, country := range []ledger.Country{ledger.CountryFR, ledger.CountryBE, ledger.CountryOHADA} {
		tpl, err := LoadTemplate(country)
		if err != nil {
			t.Fatalf("%s: %v", country, err)
		}
		if tpl.Country != country {
			t.Fatalf("%s: template declares country %s", country, tpl.Country)
		}
		if len(tpl.Journals) == 0 {
			t.Fatalf("%s: no journals", country)
		}
		// Every semantic role the writer can request must be bound.
		byRole := make(map[ledger.Role]string)
		for _, a := range tpl.Accounts {
			if a.Role != "" {
				byRole[a.Role] = a.Code
			}
		}
		for _, r := range requiredRoles {
			if byRole[r] == "" {
				t.Errorf("%s: role %s unbound", country, r)
			}
		}
	}
}

func TestLoadTemplate_UnknownCountry(t *testing.T) {
	if _, err := LoadTemplate("XX"); err == nil {
		t.Fatal("expected error for unknown country")
	}
}

func TestJournalFor(t *testing.T) {
	tpl, err := LoadTemplate(ledger.CountryFR)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		ref  ledger.ReferenceType
		code string
	}{
		{ledger.RefInvoice, "VE"},
		{ledger.RefExpense, "AC"},
		{ledger.RefSupplierInvoice, "AC"},
		{ledger.RefPayment, "BQ"},
		{ledger.RefManual, "OD"},
		{ledger.RefOpeningBalance, "OD"},
	}
	for _, c := range cases {
		code, name := tpl.JournalFor(c.ref)
		if code != c.code {
			t.Errorf("%s: journal %s, want %s", c.ref, code, c.code)
		}
		if name == "" {
			t.Errorf("%s: empty journal name", c.ref)
		}
	}
}
