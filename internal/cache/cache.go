// Package cache stores synthesized audio keyed by the exact text spoken,
// so repeated replies are not resynthesized.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
)

// AudioCache is a best-effort layer: a miss or a failed store only costs a
// resynthesis, never a user-visible error.
type AudioCache interface {
	Lookup(ctx context.Context, text string) (audio []byte, ok bool)
	Store(ctx context.Context, text string, audio []byte)
}

// Fingerprint derives the cache key for a text string.
func Fingerprint(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
