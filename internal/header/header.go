// Package header normalizes CSV and table header names and fingerprints
// header rows so a raw export layout can be matched to its source format.
package header

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FingerprintPrefix is prepended to every fingerprint.
const FingerprintPrefix = "sha256:"

// Normalize trims s, lowercases it and collapses whitespace runs to a single space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Fingerprint returns "sha256:<hex>" over the normalized, pipe-joined headers.
// Case and surrounding whitespace do not change the result; the header set and
// order do.
func Fingerprint(headers []string) string {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = Normalize(h)
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return FingerprintPrefix + hex.EncodeToString(sum[:])
}

// CanonicalFingerprint lowercases fp and adds the prefix if it is missing.
// "ABCD..." -> "sha256:abcd..."
func CanonicalFingerprint(fp string) string {
	fp = strings.ToLower(strings.TrimSpace(fp))
	if fp == "" {
		return ""
	}
	if !strings.HasPrefix(fp, FingerprintPrefix) {
		fp = FingerprintPrefix + fp
	}
	return fp
}

// Index maps each normalized header to its first column position.
func Index(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		key := Normalize(h)
		if _, ok := idx[key]; ok {
			continue
		}
		idx[key] = i
	}
	return idx
}

// Find returns the position of name in headers or -1.
func Find(headers []string, name string) int {
	target := Normalize(name)
	for i, h := range headers {
		if Normalize(h) == target {
			return i
		}
	}
	return -1
}

// Missing returns the entries of required that are absent from headers, in
// the order given.
func Missing(headers, required []string) []string {
	idx := Index(headers)
	var missing []string
	for _, r := range required {
		if _, ok := idx[Normalize(r)]; !ok {
			missing = append(missing, r)
		}
	}
	return missing
}
