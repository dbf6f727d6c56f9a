// Package logging builds the zerolog.Logger used by cmd/jscal to
// report non-fatal property errors (conversion warnings that did not
// abort translation) instead of silently dropping them.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a logger at the given level. When pretty is true (local/
// dev use) output goes through zerolog's console writer; otherwise
// plain JSON lines are written to stdout, suited to production
// log collection.
func New(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var w io.Writer = os.Stdout
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}
