// Package fallback holds the offline GSTIN table consulted when the upstream
// registry cannot be reached or is not configured. The table is built once and
// never mutated; lookups return copies.
package fallback

import (
	"sort"

	"turia/internal/verification/models"
)

// Table is an immutable identifier -> record lookup.
type Table struct {
	records map[string]models.Result
}

// New returns the built-in table of known test identifiers.
func New() *Table {
	return NewFromRecords(defaultRecords())
}

// NewFromRecords builds a table from the given records, keyed by GSTIN. Each
// record is stamped as a verified fallback result.
func NewFromRecords(records []models.Result) *Table {
	t := &Table{records: make(map[string]models.Result, len(records))}
	for _, r := range records {
		r.Verified = true
		r.Source = models.SourceFallback
		r.Raw = nil
		t.records[r.GSTIN] = r
	}
	return t
}

// Resolve looks up id by exact match. A miss is reported through ok, not an error.
func (t *Table) Resolve(id string) (models.Result, bool) {
	r, ok := t.records[id]
	return r, ok
}

// IDs lists the identifiers in the table in sorted order.
func (t *Table) IDs() []string {
	ids := make([]string, 0, len(t.records))
	for id := range t.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

func defaultRecords() []models.Result {
	return []models.Result{
		{
			GSTIN:     "29AAICT1443M1ZX",
			LegalName: "ICICI BANK LIMITED",
			TradeName: "ICICI BANK LIMITED",
			Address: models.AddressFragments{
				BuildingNumber: "1",
				BuildingName:   "ICICI Bank Towers",
				Street:         "Commissariat Road",
				Location:       "Ashok Nagar",
				District:       "Bengaluru Urban",
				StateCode:      "Karnataka",
				Pincode:        "560025",
			}.Format(),
			StateCode:         "Karnataka",
			Pincode:           "560025",
			RegistrationDate:  "01/07/2017",
			Status:            "Active",
			TaxpayerType:      "Regular",
			Constitution:      "Public Limited Company",
			StateJurisdiction: "Bangalore Central",
		},
		{
			GSTIN:     "27AAACT4481M1ZV",
			LegalName: "AMAZON SELLER SERVICES PRIVATE LIMITED",
			TradeName: "AMAZON SELLER SERVICES PRIVATE LIMITED",
			Address: models.AddressFragments{
				BuildingName: "Kalpataru Square",
				Floor:        "8th Floor",
				Street:       "Kondivita Lane",
				Location:     "Andheri East",
				District:     "Mumbai Suburban",
				StateCode:    "Maharashtra",
				Pincode:      "400059",
			}.Format(),
			StateCode:         "Maharashtra",
			Pincode:           "400059",
			RegistrationDate:  "01/07/2017",
			Status:            "Active",
			TaxpayerType:      "Regular",
			Constitution:      "Private Limited Company",
			StateJurisdiction: "Mumbai East",
		},
		{
			GSTIN:     "29AABCT2727Q1ZG",
			LegalName: "TATA CONSULTANCY SERVICES LIMITED",
			TradeName: "TATA CONSULTANCY SERVICES",
			Address: models.AddressFragments{
				BuildingNumber: "42",
				BuildingName:   "Think Campus",
				Street:         "Electronic City Phase II",
				Location:       "Electronic City",
				District:       "Bengaluru Urban",
				StateCode:      "Karnataka",
				Pincode:        "560100",
			}.Format(),
			StateCode:         "Karnataka",
			Pincode:           "560100",
			RegistrationDate:  "01/07/2017",
			Status:            "Active",
			TaxpayerType:      "Regular",
			Constitution:      "Public Limited Company",
			StateJurisdiction: "Bangalore South",
		},
	}
}
