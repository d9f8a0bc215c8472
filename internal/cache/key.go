package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Key derives a cache key from a parameter set. Parameter order does not
// matter; callers canonicalize list values with CanonicalList first.
func Key(namespace string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, k := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}

	hash := sha256.Sum256([]byte(b.String()))
	return namespace + ":" + hex.EncodeToString(hash[:])
}

// CanonicalList lowercases, trims, dedups and sorts values and joins them
// with commas, so logically equal lists render identically.
func CanonicalList(values []string) string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}
