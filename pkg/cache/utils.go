package cache

import "fmt"

// GenerateKey joins a prefix and identifier into a namespaced cache key,
// e.g. "forecast:latest:dengue".
func GenerateKey(prefix string, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}

// GenerateKeyWithParams builds a key from a prefix and arbitrary parts.
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key = fmt.Sprintf("%s:%v", key, param)
	}
	return key
}

// BuildPattern turns a key prefix into a Redis glob for DeleteByPattern.
func BuildPattern(prefix string) string {
	return fmt.Sprintf("%s*", prefix)
}
