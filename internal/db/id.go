package db

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// GenerateMessageID returns a store-assigned message id that sorts
// lexically by creation time, with a random suffix to disambiguate
// same-instant messages.
func GenerateMessageID(t time.Time) string {
	suffix := make([]byte, 4)
	rand.Read(suffix)
	return t.UTC().Format("20060102T150405.000000000Z") + "-" + hex.EncodeToString(suffix)
}
