package models

// CacheEntry is the single remembered input/output pair.
type CacheEntry struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// CacheStats reports cache performance metrics.
type CacheStats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}
