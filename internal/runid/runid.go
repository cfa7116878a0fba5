// Package runid builds the identifiers that key audit logs.
package runid

import (
	"strings"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"
)

const layout = "20060102T150405"

// New returns "<target>_<short timestamp>_<suffix>" for a run started now.
func New(target string) string {
	return At(target, time.Now())
}

// At is New with an explicit start time.
// The four character suffix keeps same-second runs of one target apart.
func At(target string, t time.Time) string {
	id := ulid.Make().String()
	return Sanitize(target) + "_" + t.UTC().Format(layout) + "_" + strings.ToLower(id[len(id)-4:])
}

// Sanitize maps target to a file and key safe token.
func Sanitize(target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return "run"
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.' {
			return r
		}
		return '_'
	}, target)
}
