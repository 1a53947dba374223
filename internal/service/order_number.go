package service

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// maxNumberAttempts bounds retries when a generated order number collides.
const maxNumberAttempts = 5

// NewOrderNumber returns ORD-YYYYMMDD-XXXXXX: the UTC date plus six random
// hex digits.  Uniqueness is enforced by the database, not assumed here.
func NewOrderNumber(t time.Time) (string, error) {
	var b [3]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return "ORD-" + t.UTC().Format("20060102") + "-" + strings.ToUpper(hex.EncodeToString(b[:])), nil
}
