package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turia/internal/verification/models"
)

func TestTable_Resolve(t *testing.T) {
	table := New()

	known := map[string]string{
		"29AAICT1443M1ZX": "ICICI BANK LIMITED",
		"27AAACT4481M1ZV": "AMAZON SELLER SERVICES PRIVATE LIMITED",
		"29AABCT2727Q1ZG": "TATA CONSULTANCY SERVICES LIMITED",
	}
	for id, name := range known {
		t.Run(id, func(t *testing.T) {
			r, ok := table.Resolve(id)
			require.True(t, ok)
			assert.Equal(t, id, r.GSTIN)
			assert.Equal(t, name, r.LegalName)
			assert.Equal(t, models.SourceFallback, r.Source)
			assert.True(t, r.Verified)
			assert.NotEmpty(t, r.Address)
			assert.NotEmpty(t, r.StateCode)
			assert.Len(t, r.Pincode, 6)
			assert.Contains(t, r.Address, r.Pincode)
			assert.Nil(t, r.Raw)
		})
	}

	t.Run("miss is not an error", func(t *testing.T) {
		_, ok := table.Resolve("27ABCDE1234F1Z5")
		assert.False(t, ok)
	})

	t.Run("match is exact", func(t *testing.T) {
		_, ok := table.Resolve("29aaict1443m1zx")
		assert.False(t, ok)
		_, ok = table.Resolve(" 29AAICT1443M1ZX")
		assert.False(t, ok)
	})
}

func TestTable_ResolveReturnsCopies(t *testing.T) {
	table := New()

	r, ok := table.Resolve("29AAICT1443M1ZX")
	require.True(t, ok)
	r.LegalName = "MUTATED"

	again, _ := table.Resolve("29AAICT1443M1ZX")
	assert.Equal(t, "ICICI BANK LIMITED", again.LegalName)
}

func TestNewFromRecords_StampsFallbackSource(t *testing.T) {
	table := NewFromRecords([]models.Result{
		{GSTIN: "27ABCDE1234F1Z5", LegalName: "ACME TRADERS", Source: models.SourceUpstream, Raw: []byte(`{}`)},
	})

	r, ok := table.Resolve("27ABCDE1234F1Z5")
	require.True(t, ok)
	assert.Equal(t, models.SourceFallback, r.Source)
	assert.True(t, r.Verified)
	assert.Nil(t, r.Raw)
	assert.Equal(t, []string{"27ABCDE1234F1Z5"}, table.IDs())
	assert.Equal(t, 1, table.Len())
}

func TestTable_IDsSorted(t *testing.T) {
	assert.Equal(t, []string{"27AAACT4481M1ZV", "29AABCT2727Q1ZG", "29AAICT1443M1ZX"}, New().IDs())
}
