// Package tzutil resolves Olson TZIDs to *time.Location, treating
// "UTC" and "Etc/UTC" as the UTC singleton explicitly (spec §6:
// "must handle Etc/UTC/UTC as the UTC singleton explicitly").
package tzutil

import (
	"fmt"
	"strings"
	"time"
)

// Load resolves tzid to a *time.Location. An empty tzid means
// floating time and is rejected — callers must special-case that
// before calling Load.
func Load(tzid string) (*time.Location, error) {
	if tzid == "" {
		return nil, fmt.Errorf("tzutil: empty TZID")
	}
	if IsUTC(tzid) {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tzid)
	if err != nil {
		return nil, fmt.Errorf("tzutil: unknown TZID %q: %w", tzid, err)
	}
	return loc, nil
}

// IsUTC reports whether tzid names the UTC singleton under any of its
// conventional spellings.
func IsUTC(tzid string) bool {
	switch strings.ToUpper(tzid) {
	case "UTC", "ETC/UTC", "GMT", "ETC/GMT", "Z":
		return true
	default:
		return false
	}
}

// CanonicalName returns the name to store as a JSCalendar timeZone
// value for the given *time.Location. The UTC singleton and a nil
// location both map to the literal "UTC"; any other location maps to
// its own name.
func CanonicalName(loc *time.Location) string {
	if loc == nil || loc == time.UTC {
		return "UTC"
	}
	return loc.String()
}
