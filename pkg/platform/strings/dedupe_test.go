package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"single", "k1:9092", []string{"k1:9092"}},
		{"trailing separator", "k1:9092, k2:9092,", []string{"k1:9092", "k2:9092"}},
		{"duplicates", "k1:9092,k1:9092 , k2:9092", []string{"k1:9092", "k2:9092"}},
		{"only separators", ", ,", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.input, ","))
		})
	}
}

func TestDedupeAndTrim(t *testing.T) {
	assert.Nil(t, DedupeAndTrim(nil))
	assert.Equal(t, []string{}, DedupeAndTrim([]string{}))
	assert.Equal(t, []string{"foo", "bar"}, DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "}))
}
