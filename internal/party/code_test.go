// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package party

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenerateCode_ProducesValidCodes(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode failed: %v", err)
		}
		if !ValidateCode(code) {
			t.Errorf("generated code %q does not validate", code)
		}
	}
}

func TestGenerateCodeFrom_Deterministic(t *testing.T) {
	// Bytes below 36 map directly onto the alphabet.
	src := bytes.NewReader([]byte{0, 1, 2, 25, 26, 35})
	code, err := GenerateCodeFrom(src)
	if err != nil {
		t.Fatalf("GenerateCodeFrom failed: %v", err)
	}
	if code != "ABCZA9" {
		t.Errorf("expected ABCZA9, got %q", code)
	}
}

func TestGenerateCodeFrom_RejectionSampling(t *testing.T) {
	// Bytes >= 252 must be discarded, not folded with modulo.
	src := bytes.NewReader([]byte{252, 253, 254, 255, 0, 0, 0, 0, 0, 0})
	code, err := GenerateCodeFrom(src)
	if err != nil {
		t.Fatalf("GenerateCodeFrom failed: %v", err)
	}
	if code != "AAAAAA" {
		t.Errorf("expected AAAAAA after discarding out-of-range bytes, got %q", code)
	}
}

func TestGenerateCodeFrom_EntropyExhausted(t *testing.T) {
	src := bytes.NewReader([]byte{0, 1})
	if _, err := GenerateCodeFrom(src); err == nil {
		t.Error("expected error when entropy source runs dry")
	}
}

func TestValidateCode(t *testing.T) {
	valid := []string{"ABC123", "ZZZZZZ", "000000", "A1B2C3"}
	for _, code := range valid {
		if !ValidateCode(code) {
			t.Errorf("expected %q to be valid", code)
		}
	}

	invalid := []string{
		"",
		"abc123",      // lowercase
		"ABC12",       // 5 chars
		"ABC1234",     // 7 chars
		"ABC-12",      // punctuation
		"ABC 12",      // whitespace
		"ÀBC123",      // non-ASCII
		"abcdef",      // all lowercase
		strings.Repeat("A", 36),
	}
	for _, code := range invalid {
		if ValidateCode(code) {
			t.Errorf("expected %q to be invalid", code)
		}
	}
}
