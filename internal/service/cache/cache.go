package cache

import "time"

// BytesCache stores rendered payloads (CSV exports, report bodies) for a short TTL.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool)
	SetBytes(key string, value []byte, ttl time.Duration)
	Delete(key string)
}
