package tryon

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// CacheKey builds the content-addressable key for a try-on render: a
// lowercase hex SHA-256 over the user's render fingerprint followed by
// the item IDs sorted and deduplicated. Sorting makes the key
// insensitive to selection order, dedup makes {a,a,b} the same
// selection as {a,b}; including the fingerprint means any profile
// change that affects rendering produces a different key.
func CacheKey(fingerprint []string, itemIDs []string) string {
	ids := make([]string, len(itemIDs))
	copy(ids, itemIDs)
	sort.Strings(ids)
	ids = uniqueStrings(ids)

	h := sha256.New()
	for _, f := range fingerprint {
		h.Write([]byte(f))
		h.Write([]byte{0}) // field separator so "ab"+"c" != "a"+"bc"
	}
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
