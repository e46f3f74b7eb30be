package store

import (
	"strings"
)

// Prefix namespaces LevelDB keys. Parts are joined with slashes.
type Prefix string

func (p Prefix) Key(parts ...string) []byte {
	k := strings.Join(append([]string{string(p)}, parts...), "/")
	return []byte(k)
}

// Trim returns key without the prefix and its separator.
func (p Prefix) Trim(key []byte) string {
	return strings.TrimPrefix(string(key), string(p)+"/")
}
