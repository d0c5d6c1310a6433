package app

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turia/internal/verification"
	"turia/internal/verification/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MASTERGST_CLIENT_ID", "")
	t.Setenv("MASTERGST_CLIENT_SECRET", "")

	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidate(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		out, err := run(t, "validate", "29AAICT1443M1ZX")
		require.NoError(t, err)

		var got validateOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.True(t, got.Valid)
		assert.Equal(t, "29", got.StateCode)
		assert.Equal(t, "AAICT1443M", got.PAN)
	})

	t.Run("malformed", func(t *testing.T) {
		out, err := run(t, "validate", "29aaict1443m1zx")
		require.Error(t, err)
		assert.True(t, verification.IsCategory(err, verification.CategoryMalformedIdentifier))

		var got validateOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.False(t, got.Valid)
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := run(t, "validate")
		require.Error(t, err)
	})
}

func TestVerifyWithoutCredentials(t *testing.T) {
	t.Run("served from the offline table", func(t *testing.T) {
		out, err := run(t, "verify", "29AAICT1443M1ZX")
		require.NoError(t, err)

		var got models.Result
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "ICICI BANK LIMITED", got.LegalName)
		assert.Equal(t, models.SourceFallback, got.Source)
		assert.True(t, got.Verified)
	})

	t.Run("identifier missing from the table reports not found", func(t *testing.T) {
		out, err := run(t, "verify", "27ABCDE1234F1Z5")
		require.Error(t, err)
		assert.Contains(t, err.Error(), string(verification.CategoryNotFound))

		var got failureOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, verification.CategoryNotFound, got.Category)
		assert.Equal(t, verification.MsgNotFound, got.Message)
	})

	t.Run("malformed identifier", func(t *testing.T) {
		out, err := run(t, "verify", "not-a-gstin")
		require.Error(t, err)

		var got failureOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, verification.CategoryMalformedIdentifier, got.Category)
	})
}

func TestTestConnectionWithoutCredentials(t *testing.T) {
	out, err := run(t, "test-connection")
	require.NoError(t, err)

	var got struct {
		Configured  bool     `json:"configured"`
		FallbackIDs []string `json:"fallback_ids"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.False(t, got.Configured)
	assert.Contains(t, got.FallbackIDs, "29AAICT1443M1ZX")
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := run(t, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
