package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressFragments_Format(t *testing.T) {
	t.Run("skips absent fragments without doubled separators", func(t *testing.T) {
		a := AddressFragments{BuildingNumber: "12", Street: "MG Road", Pincode: "560001"}
		assert.Equal(t, "12, MG Road, 560001", a.Format())
	})

	t.Run("keeps fixed order across all fragments", func(t *testing.T) {
		a := AddressFragments{
			Pincode:        "400051",
			StateCode:      "Maharashtra",
			District:       "Mumbai Suburban",
			Locality:       "Bandra Kurla Complex",
			Location:       "Bandra East",
			Street:         "G Block",
			Floor:          "4th Floor",
			BuildingName:   "ICICI Bank Towers",
			BuildingNumber: "C-66",
		}
		assert.Equal(t,
			"C-66, ICICI Bank Towers, 4th Floor, G Block, Bandra East, Bandra Kurla Complex, Mumbai Suburban, Maharashtra, 400051",
			a.Format())
	})

	t.Run("whitespace only fragments count as absent", func(t *testing.T) {
		a := AddressFragments{BuildingNumber: "  ", Street: "Ring Road", District: ""}
		assert.Equal(t, "Ring Road", a.Format())
	})

	t.Run("empty address formats to empty string", func(t *testing.T) {
		assert.Equal(t, "", AddressFragments{}.Format())
		assert.True(t, AddressFragments{}.IsZero())
	})
}

func TestAddressFragments_DecodeLooselyTyped(t *testing.T) {
	body := []byte(`{
		"bno": 12,
		"bnm": null,
		"flno": "",
		"st": "MG Road",
		"locality": {"unexpected": true},
		"pncd": 560001
	}`)

	var a AddressFragments
	require.NoError(t, json.Unmarshal(body, &a))

	assert.Equal(t, LooseString("12"), a.BuildingNumber)
	assert.Equal(t, LooseString(""), a.BuildingName)
	assert.Equal(t, LooseString(""), a.Locality)
	assert.Equal(t, "12, MG Road, 560001", a.Format())
}

func TestLooseString_Unmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want LooseString
	}{
		{`"abc"`, "abc"},
		{`42`, "42"},
		{`4.5`, "4.5"},
		{`true`, "true"},
		{`null`, ""},
		{`[]`, ""},
	}
	for _, tt := range tests {
		var s LooseString
		require.NoError(t, json.Unmarshal([]byte(tt.in), &s), tt.in)
		assert.Equal(t, tt.want, s, tt.in)
	}
}
