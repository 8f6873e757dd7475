package anthropic

// CachedSystem returns a single system block marked for prompt caching. The
// extraction prompt is identical across documents, so every call after the
// first reads it from cache.
func CachedSystem(text, ttl string) []SystemBlock {
	return []SystemBlock{{Text: text, CacheControl: &CacheControl{TTL: ttl}}}
}
