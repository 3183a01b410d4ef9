package util

import (
	"fmt"
	"math/rand"
	"time"
)

// GenerateTimestampWithPrefix builds a human-traceable identifier such as
// FF-20240131093045-4821 for records that are keyed separately from their
// idempotency token.
func GenerateTimestampWithPrefix(prefix string) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, time.Now().UTC().Format("20060102150405"), rand.Intn(10000))
}
