// Package idhash derives deterministic synthetic JSCalendar ids from
// the canonical iCal textual form of a property (spec §3 "Identifiers",
// §9 "SHA-1 identity fallback"). Used whenever a property carries no
// X-JMAP-ID.
package idhash

import (
	"crypto/sha1"
	"encoding/hex"
)

// FromString returns the lower-hex SHA-1 digest of s. Callers must pass
// the exact bytes of the property's canonical iCal stringification
// (including parameter ordering) — hashing anything else makes the id
// drift across round-trips (spec §9).
func FromString(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
