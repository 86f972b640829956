package export

import (
	"encoding/xml"
	"fmt"

	"github.com/comptaflow/comptaflow/internal/errs"
	"github.com/comptaflow/comptaflow/internal/ledger"
)

// Factur-X profile URNs.
const (
	ProfileMinimum = "minimum"
	ProfileBasic   = "basic"
	ProfileEN16931 = "en16931"
)

var profileURN = map[string]string{
	ProfileMinimum: "urn:factur-x.eu:1p0:minimum",
	ProfileBasic:   "urn:factur-x.eu:1p0:basic",
	ProfileEN16931: "urn:cen.eu:en16931:2017",
}

// CII structural types for the Factur-X cross-industry invoice.

type ciiInvoice struct {
	XMLName  xml.Name `xml:"rsm:CrossIndustryInvoice"`
	XmlnsRsm string   `xml:"xmlns:rsm,attr"`
	XmlnsRam string   `xml:"xmlns:ram,attr"`
	XmlnsUdt string   `xml:"xmlns:udt,attr"`

	Context     ciiContext     `xml:"rsm:ExchangedDocumentContext"`
	Document    ciiDocument    `xml:"rsm:ExchangedDocument"`
	Transaction ciiTransaction `xml:"rsm:SupplyChainTradeTransaction"`
}

type ciiContext struct {
	GuidelineID string `xml:"ram:GuidelineSpecifiedDocumentContextParameter>ram:ID"`
}

type ciiDocument struct {
	ID        string      `xml:"ram:ID"`
	TypeCode  string      `xml:"ram:TypeCode"`
	IssueDate ciiDateTime `xml:"ram:IssueDateTime"`
}

type ciiDateTime struct {
	DateTimeString ciiDateString `xml:"udt:DateTimeString"`
}

type ciiDateString struct {
	Format string `xml:"format,attr"`
	Value  string `xml:",chardata"`
}

type ciiTransaction struct {
	Agreement  ciiAgreement  `xml:"ram:ApplicableHeaderTradeAgreement"`
	Delivery   struct{}      `xml:"ram:ApplicableHeaderTradeDelivery"`
	Settlement ciiSettlement `xml:"ram:ApplicableHeaderTradeSettlement"`
}

type ciiAgreement struct {
	Seller ciiParty `xml:"ram:SellerTradeParty"`
	Buyer  ciiParty `xml:"ram:BuyerTradeParty"`
}

type ciiParty struct {
	Name   string     `xml:"ram:Name"`
	TaxReg *ciiTaxReg `xml:"ram:SpecifiedTaxRegistration,omitempty"`
}

type ciiTaxReg struct {
	ID ciiSchemeID `xml:"ram:ID"`
}

type ciiSchemeID struct {
	SchemeID string `xml:"schemeID,attr"`
	Value    string `xml:",chardata"`
}

type ciiSettlement struct {
	CurrencyCode string       `xml:"ram:InvoiceCurrencyCode"`
	TradeTax     ciiTradeTax  `xml:"ram:ApplicableTradeTax"`
	PaymentTerms string       `xml:"ram:SpecifiedTradePaymentTerms>ram:Description"`
	Summation    ciiSummation `xml:"ram:SpecifiedTradeSettlementHeaderMonetarySummation"`
}

type ciiTradeTax struct {
	CalculatedAmount string `xml:"ram:CalculatedAmount"`
	TypeCode         string `xml:"ram:TypeCode"`
	BasisAmount      string `xml:"ram:BasisAmount"`
	RatePercent      string `xml:"ram:RateApplicablePercent"`
}

type ciiSummation struct {
	LineTotal     string `xml:"ram:LineTotalAmount"`
	TaxBasisTotal string `xml:"ram:TaxBasisTotalAmount"`
	TaxTotal      string `xml:"ram:TaxTotalAmount"`
	GrandTotal    string `xml:"ram:GrandTotalAmount"`
	DuePayable    string `xml:"ram:DuePayableAmount"`
}

// FacturX renders one invoice as a Factur-X CII document for the given
// profile (minimum, basic or en16931).
func FacturX(company ledger.Company, inv ledger.Invoice, profile string) ([]byte, error) {
	urn, ok := profileURN[profile]
	if !ok {
		return nil, fmt.Errorf("unknown factur-x profile %q: %w", profile, errs.ErrInvalid)
	}
	vat := inv.TotalTTC - inv.TotalHT
	doc := ciiInvoice{
		XmlnsRsm: "urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100",
		XmlnsRam: "urn:un:unece:uncefact:data:standard:ReusableAggregateBusinessInformationEntity:100",
		XmlnsUdt: "urn:un:unece:uncefact:data:standard:UnqualifiedDataType:100",
		Context:  ciiContext{GuidelineID: urn},
		Document: ciiDocument{
			ID:        inv.Reference,
			TypeCode:  "380",
			IssueDate: ciiDateTime{DateTimeString: ciiDateString{Format: "102", Value: compactDate(inv.Date)}},
		},
		Transaction: ciiTransaction{
			Agreement: ciiAgreement{
				Seller: ciiParty{Name: company.Name, TaxReg: sellerTaxReg(company)},
				Buyer:  ciiParty{Name: inv.ClientName},
			},
			Settlement: ciiSettlement{
				CurrencyCode: company.Currency,
				TradeTax: ciiTradeTax{
					CalculatedAmount: xmlAmount(vat),
					TypeCode:         "VAT",
					BasisAmount:      xmlAmount(inv.TotalHT),
					RatePercent:      vatRate(inv.TotalHT, vat),
				},
				PaymentTerms: "Payable within 30 days",
				Summation: ciiSummation{
					LineTotal:     xmlAmount(inv.TotalHT),
					TaxBasisTotal: xmlAmount(inv.TotalHT),
					TaxTotal:      xmlAmount(vat),
					GrandTotal:    xmlAmount(inv.TotalTTC),
					DuePayable:    xmlAmount(inv.TotalTTC),
				},
			},
		},
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func sellerTaxReg(company ledger.Company) *ciiTaxReg {
	if company.VATNum == "" {
		return nil
	}
	return &ciiTaxReg{ID: ciiSchemeID{SchemeID: "VA", Value: company.VATNum}}
}

// vatRate derives the percentage from the HT and VAT amounts, rendered with
// two decimals. Computed in basis points so rounding is exact.
func vatRate(htMinor, vatMinor int64) string {
	if htMinor <= 0 || vatMinor <= 0 {
		return "0.00"
	}
	bp := (vatMinor*10000 + htMinor/2) / htMinor
	return fmt.Sprintf("%d.%02d", bp/100, bp%100)
}
