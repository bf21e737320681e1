package storage

import "strings"

// PublicURL resolves a stored object key to its public URL. Keys that are
// already absolute URLs pass through unchanged; an empty key resolves to an
// empty URL.
func PublicURL(baseURL, key string) string {
	if key == "" {
		return ""
	}

	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}

	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(key, "/")
}
