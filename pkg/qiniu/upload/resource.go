package upload

import "strings"

// ResourcePath joins the configured domain and the stored key.
// With no domain the bare key is returned.
func ResourcePath(domain, key string) string {
	if domain == "" {
		return key
	}
	return strings.TrimSuffix(domain, "/") + "/" + strings.TrimPrefix(key, "/")
}
