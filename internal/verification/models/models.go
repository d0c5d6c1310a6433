package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Source records which tier produced a verification result.
type Source string

const (
	SourceUpstream Source = "upstream"
	SourceFallback Source = "fallback"
)

// Result is the canonical outcome of a successful GSTIN verification. Every
// Result handed out by the verification service has Verified set and a Source.
type Result struct {
	GSTIN             string          `json:"gstin"`
	LegalName         string          `json:"legal_name"`
	TradeName         string          `json:"trade_name"`
	Address           string          `json:"address"`
	StateCode         string          `json:"state_code"`
	Pincode           string          `json:"pincode"`
	RegistrationDate  string          `json:"registration_date"`
	Status            string          `json:"status"`
	TaxpayerType      string          `json:"taxpayer_type"`
	Constitution      string          `json:"constitution"`
	StateJurisdiction string          `json:"state_jurisdiction"`
	Verified          bool            `json:"verified"`
	Source            Source          `json:"source"`
	Raw               json.RawMessage `json:"raw,omitempty"`
}

// AddressSeparator joins address fragments.
const AddressSeparator = ", "

// AddressFragments is the upstream's principal-place-of-business address.
// Every field is optional and may arrive as a string, a number or null.
type AddressFragments struct {
	BuildingNumber LooseString `json:"bno"`
	BuildingName   LooseString `json:"bnm"`
	Floor          LooseString `json:"flno"`
	Street         LooseString `json:"st"`
	Location       LooseString `json:"loc"`
	Locality       LooseString `json:"locality"`
	District       LooseString `json:"dst"`
	StateCode      LooseString `json:"stcd"`
	Pincode        LooseString `json:"pncd"`
}

// Format joins the present fragments in fixed order. Empty fragments are
// skipped, so the result never has doubled, leading or trailing separators.
func (a AddressFragments) Format() string {
	parts := []LooseString{
		a.BuildingNumber,
		a.BuildingName,
		a.Floor,
		a.Street,
		a.Location,
		a.Locality,
		a.District,
		a.StateCode,
		a.Pincode,
	}
	present := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(string(p)); s != "" {
			present = append(present, s)
		}
	}
	return strings.Join(present, AddressSeparator)
}

// IsZero reports whether no fragment is present.
func (a AddressFragments) IsZero() bool {
	return a.Format() == ""
}

// LooseString decodes JSON strings, numbers and booleans into a string.
// null, objects and arrays decode to "".
type LooseString string

func (s *LooseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*s = ""
		return nil
	}
	switch b[0] {
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = LooseString(v)
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = LooseString(strconv.FormatBool(v))
	case 'n', '{', '[':
		*s = ""
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*s = LooseString(n.String())
	}
	return nil
}

func (s LooseString) String() string {
	return string(s)
}
