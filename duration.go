package jscal

import (
	"fmt"
	"strings"
	"time"
)

// ParseISO8601Duration parses an ISO 8601 duration string
// (e.g. "PT1H", "P1DT2H30M", "-PT15M") into a time.Duration.
func ParseISO8601Duration(duration string) (time.Duration, error) {
	if duration == "" {
		return 0, fmt.Errorf("invalid ISO 8601 duration: empty string")
	}

	negative := false
	if strings.HasPrefix(duration, "-") {
		negative = true
		duration = duration[1:]
	}

	if !strings.HasPrefix(duration, "P") {
		return 0, fmt.Errorf("invalid ISO 8601 duration: must start with P")
	}

	duration = duration[1:]
	if duration == "" {
		return 0, nil
	}

	var result time.Duration

	timeIndex := strings.Index(duration, "T")
	var datePart, timePart string
	if timeIndex >= 0 {
		datePart = duration[:timeIndex]
		timePart = duration[timeIndex+1:]
	} else {
		datePart = duration
	}

	if datePart != "" {
		remaining := datePart

		if idx := strings.Index(remaining, "Y"); idx >= 0 {
			var years float64
			if n, err := fmt.Sscanf(remaining[:idx], "%f", &years); n == 1 && err == nil {
				result += time.Duration(years * 365 * 24 * float64(time.Hour))
			}
			remaining = remaining[idx+1:]
		}

		if idx := strings.Index(remaining, "M"); idx >= 0 {
			var months float64
			if n, err := fmt.Sscanf(remaining[:idx], "%f", &months); n == 1 && err == nil {
				result += time.Duration(months * 30 * 24 * float64(time.Hour))
			}
			remaining = remaining[idx+1:]
		}

		if idx := strings.Index(remaining, "W"); idx >= 0 {
			var weeks float64
			if n, err := fmt.Sscanf(remaining[:idx], "%f", &weeks); n == 1 && err == nil {
				result += time.Duration(weeks * 7 * 24 * float64(time.Hour))
			}
			remaining = remaining[idx+1:]
		}

		if idx := strings.Index(remaining, "D"); idx >= 0 {
			var days float64
			if n, err := fmt.Sscanf(remaining[:idx], "%f", &days); n == 1 && err == nil {
				result += time.Duration(days * 24 * float64(time.Hour))
			}
		}
	}

	if timePart != "" {
		remaining := timePart

		if idx := strings.Index(remaining, "H"); idx >= 0 {
			var hours float64
			if n, err := fmt.Sscanf(remaining[:idx], "%f", &hours); n == 1 && err == nil {
				result += time.Duration(hours * float64(time.Hour))
			}
			remaining = remaining[idx+1:]
		}

		if idx := strings.Index(remaining, "M"); idx >= 0 {
			var minutes float64
			if n, err := fmt.Sscanf(remaining[:idx], "%f", &minutes); n == 1 && err == nil {
				result += time.Duration(minutes * float64(time.Minute))
			}
			remaining = remaining[idx+1:]
		}

		if idx := strings.Index(remaining, "S"); idx >= 0 {
			var seconds float64
			if n, err := fmt.Sscanf(remaining[:idx], "%f", &seconds); n == 1 && err == nil {
				result += time.Duration(seconds * float64(time.Second))
			}
		}
	}

	if negative {
		result = -result
	}

	return result, nil
}

// FormatISO8601Duration formats a non-negative time.Duration as an
// ISO 8601 duration string using only day/hour/minute/second
// components, per spec §4.2 ("a positive ISO-8601 duration"). A
// negative or zero duration formats as "PT0S".
func FormatISO8601Duration(d time.Duration) string {
	if d <= 0 {
		return "PT0S"
	}
	return formatISO8601DurationMagnitude(d)
}

// FormatISO8601DurationSigned formats a time.Duration (which may be
// negative) with a leading "-" when negative, and returns its
// unsigned magnitude separately. Used by the alerts translator, which
// must derive both the TRIGGER sign and the unsigned `offset` string
// (spec §4.6).
func FormatISO8601DurationSigned(d time.Duration) (trigger string, unsignedOffset string) {
	if d < 0 {
		return "-" + formatISO8601DurationMagnitude(-d), formatISO8601DurationMagnitude(-d)
	}
	return formatISO8601DurationMagnitude(d), formatISO8601DurationMagnitude(d)
}

func formatISO8601DurationMagnitude(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	if d == 0 {
		return "PT0S"
	}

	result := "P"

	days := int(d.Hours() / 24)
	if days > 0 {
		result += fmt.Sprintf("%dD", days)
		d -= time.Duration(days) * 24 * time.Hour
	}

	if d > 0 {
		result += "T"

		hours := int(d.Hours())
		if hours > 0 {
			result += fmt.Sprintf("%dH", hours)
			d -= time.Duration(hours) * time.Hour
		}

		minutes := int(d.Minutes())
		if minutes > 0 {
			result += fmt.Sprintf("%dM", minutes)
			d -= time.Duration(minutes) * time.Minute
		}

		seconds := d.Seconds()
		if seconds > 0 {
			result += fmt.Sprintf("%.0fS", seconds)
		}
	}

	if result == "P" {
		return "PT0S"
	}

	return result
}
