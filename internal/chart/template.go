// Package chart holds the chart-of-accounts registry: per-country account
// templates and the resolution of semantic roles to account codes.
package chart

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/comptaflow/comptaflow/internal/ledger"
)

//go:embed templates/*.yaml
var templateFS embed.FS

// Journal is a journal book declared by a template (sales, purchases, bank...).
type Journal struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// TemplateAccount is one account of a country template.
type TemplateAccount struct {
	Code     string                 `yaml:"code"`
	Name     string                 `yaml:"name"`
	Category ledger.AccountCategory `yaml:"category"`
	Role     ledger.Role            `yaml:"role"`
}

// Template is the explicit chart-of-accounts value for one country. Templates
// are loaded from embedded YAML at startup; business logic never hardcodes
// country-specific codes.
type Template struct {
	Country  ledger.Country    `yaml:"country"`
	Currency string            `yaml:"currency"`
	Journals []Journal         `yaml:"journals"`
	Accounts []TemplateAccount `yaml:"accounts"`
}

// requiredRoles is the set of semantic roles the ledger writer can request.
// Every template must bind all of them.
var requiredRoles = []ledger.Role{
	ledger.RoleBank,
	ledger.RoleReceivable,
	ledger.RolePayable,
	ledger.RoleEquity,
	ledger.RoleLoan,
	ledger.RoleFixedAsset,
	ledger.RoleVATOutput,
	ledger.RoleVATInput,
	ledger.RoleSales,
	ledger.RoleExpense,
}

// LoadTemplate parses the embedded template for a country.
func LoadTemplate(country ledger.Country) (Template, error) {
	name := "templates/" + strings.ToLower(string(country)) + ".yaml"
	b, err := templateFS.ReadFile(name)
	if err != nil {
		return Template{}, fmt.Errorf("no chart template for country %q", country)
	}
	var t Template
	if err := yaml.Unmarshal(b, &t); err != nil {
		return Template{}, fmt.Errorf("parse chart template %s: %w", name, err)
	}
	if err := t.validate(); err != nil {
		return Template{}, fmt.Errorf("chart template %s: %w", name, err)
	}
	return t, nil
}

func (t Template) validate() error {
	byRole := make(map[ledger.Role]bool, len(t.Accounts))
	byCode := make(map[string]bool, len(t.Accounts))
	for _, a := range t.Accounts {
		if a.Code == "" || a.Name == "" {
			return fmt.Errorf("account with empty code or name")
		}
		if byCode[a.Code] {
			return fmt.Errorf("duplicate account code %s", a.Code)
		}
		byCode[a.Code] = true
		if a.Role != "" {
			if byRole[a.Role] {
				return fmt.Errorf("duplicate role %s", a.Role)
			}
			byRole[a.Role] = true
		}
	}
	for _, r := range requiredRoles {
		if !byRole[r] {
			return fmt.Errorf("role %s is not bound", r)
		}
	}
	if len(t.Journals) == 0 {
		return fmt.Errorf("no journals declared")
	}
	return nil
}

// JournalFor returns the journal code and name for a reference type.
// Journal code conventions differ between templates (VE vs VEN, BQ vs FIN),
// so selection is positional: sales, purchases, bank, misc.
func (t Template) JournalFor(ref ledger.ReferenceType) (code, name string) {
	i := 3
	switch ref {
	case ledger.RefInvoice:
		i = 0
	case ledger.RefExpense, ledger.RefSupplierInvoice:
		i = 1
	case ledger.RefPayment:
		i = 2
	}
	if i >= len(t.Journals) {
		i = len(t.Journals) - 1
	}
	j := t.Journals[i]
	return j.Code, j.Name
}
