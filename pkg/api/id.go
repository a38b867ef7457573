package api

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewID returns a time-ordered UUIDv7. If the generator fails it falls back
// to a base36 timestamp plus random suffix, which is still unique per session.
func NewID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	ts := strconv.FormatInt(time.Now().UnixNano(), 36)
	var buf [6]byte
	_, _ = rand.Read(buf[:])
	return ts + "-" + hex.EncodeToString(buf[:])
}
