// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package party

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
)

// Join codes are 6 characters drawn uniformly from a 36-symbol alphabet,
// giving 36^6 (~2.2 billion) possible codes. Collision handling is the
// store's responsibility; the generator does not check uniqueness.
const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// GenerateCode draws a fresh join code from the process CSPRNG.
func GenerateCode() (string, error) {
	return GenerateCodeFrom(rand.Reader)
}

// GenerateCodeFrom draws a join code from the provided entropy source.
// Injecting the reader keeps code generation deterministic under test.
//
// Rejection sampling keeps the draw uniform: bytes >= 252 (the largest
// multiple of 36 below 256) are discarded instead of folded with modulo.
func GenerateCodeFrom(r io.Reader) (string, error) {
	const limit = byte(252) // 7 * 36
	code := make([]byte, 0, codeLength)
	buf := make([]byte, 1)
	for len(code) < codeLength {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("reading entropy for join code: %w", err)
		}
		if buf[0] >= limit {
			continue
		}
		code = append(code, codeAlphabet[buf[0]%36])
	}
	return string(code), nil
}

// ValidateCode reports whether s is a well-formed join code: exactly six
// uppercase alphanumeric characters, case-sensitively. Used to vet both
// generator output and user-typed codes before a store lookup.
func ValidateCode(s string) bool {
	return codePattern.MatchString(s)
}
