// Package depparse provides dependency-parse providers for the slot-mapping
// engine: a client for an HTTP parse service, a CoNLL-U treebank lookup and
// a Redis-backed caching decorator.  Every provider satisfies
// slotmap.DependencyParser.
package depparse

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize returns sentence in NFC with runs of whitespace collapsed to a
// single space and the ends trimmed.
func Normalize(sentence string) string {
	return strings.Join(strings.Fields(norm.NFC.String(sentence)), " ")
}

// CacheKey derives the cache key of a sentence parsed by provider.
func CacheKey(provider, sentence string) string {
	sum := sha256.Sum256([]byte(Normalize(sentence)))
	return "parse:" + provider + ":" + hex.EncodeToString(sum[:])
}
