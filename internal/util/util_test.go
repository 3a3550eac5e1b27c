package util

import (
	"testing"
	"unicode"
)

func TestFoldDiacritics(t *testing.T) {
	cases := map[string]string{
		"Tecnólogo":       "Tecnologo",
		"SUPERVÍSOR":      "SUPERVISOR",
		"año":             "ano",
		"plain":           "plain",
		"":                "",
		"Cédula (Número)": "Cedula (Numero)",
	}
	for in, want := range cases {
		if got := FoldDiacritics(in); got != want {
			t.Errorf("FoldDiacritics(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWipeBytes(t *testing.T) {
	b := []byte("Secret12")
	WipeBytes(b)
	for i, c := range b {
		if c != 0 {
			t.Fatalf("byte %d not wiped: %v", i, c)
		}
	}
	// Should not panic.
	WipeBytes(nil)
}

func TestRandomChars(t *testing.T) {
	s, err := RandomChars(12)
	if err != nil {
		t.Fatalf("RandomChars failed: %v", err)
	}
	if len(s) != 12 {
		t.Fatalf("expected 12 chars, got %d", len(s))
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			t.Errorf("unexpected character %q", r)
		}
	}
}

func TestPasswordHash(t *testing.T) {
	params := Argon2idParams{Time: 1, MemoryKiB: 8 * 1024, Parallelism: 1, KeyLen: 32}
	h, err := HashPassword("Temporal1", params)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !h.Matches("Temporal1") {
		t.Error("expected password to match")
	}
	if h.Matches("temporal1") {
		t.Error("expected different password to be rejected")
	}
	if (PasswordHash{}).Matches("") {
		t.Error("zero hash must never match")
	}
}
