package gstin

import (
	"testing"
	"unicode/utf8"
)

// FuzzValid checks that the grammar check is total: it never panics, only
// accepts 15-byte ASCII input, and agrees with Parse.
func FuzzValid(f *testing.F) {
	f.Add("")
	f.Add("29AAICT1443M1ZX")
	f.Add("29aaict1443m1zx")
	f.Add("29AAICT1443M1ZX\x00")
	f.Add("'; DROP TABLE clients;--")
	f.Add("２９AAICT1443M1ZX")

	f.Fuzz(func(t *testing.T, input string) {
		ok := Valid(input)

		if ok && len(input) != Length {
			t.Errorf("accepted input of length %d", len(input))
		}
		if ok && utf8.RuneCountInString(input) != Length {
			t.Error("accepted multi-byte input")
		}

		_, err := Parse(input)
		if ok != (err == nil) {
			t.Errorf("Valid=%v but Parse err=%v", ok, err)
		}
	})
}
