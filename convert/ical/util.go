package ical

import (
	"time"
)

// parseUTCStamp parses a CREATED/DTSTAMP/LAST-MODIFIED-shaped value
// ("20060102T150405Z"), the only form those properties take once
// written by writeCoreProps/writeEvent.
func parseUTCStamp(value string) (time.Time, bool) {
	t, err := time.Parse("20060102T150405Z", value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
