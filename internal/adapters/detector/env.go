// Package detector picks the log format for the current environment.
package detector

import (
	"os"
	"strings"

	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// LogFormat is the rendering of log records.
type LogFormat int

const (
	// FormatAuto selects a format from the environment.
	FormatAuto LogFormat = iota
	// FormatPretty renders colored single-line records.
	FormatPretty
	// FormatJSON renders one JSON object per record.
	FormatJSON
)

func (f LogFormat) String() string {
	switch f {
	case FormatPretty:
		return "pretty"
	case FormatJSON:
		return "json"
	default:
		return "auto"
	}
}

// ParseFormat parses a --log-format value. Empty means auto.
func ParseFormat(s string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "pretty", "text":
		return FormatPretty, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatAuto, zerr.With(zerr.New(domain.ErrUnknownFormat.Error()), "format", s)
	}
}

// Environment is what detection looks at.
type Environment struct {
	IsTTY bool
	CI    string
}

// Current inspects stderr and the CI variable of the running process.
func Current() Environment {
	return Environment{
		IsTTY: term.IsTerminal(int(os.Stderr.Fd())), //nolint:gosec // fd fits in int
		CI:    os.Getenv("CI"),
	}
}

// Resolve turns requested into a concrete format. Auto selects JSON only for
// non-interactive CI runs.
func Resolve(requested LogFormat, env Environment) LogFormat {
	if requested != FormatAuto {
		return requested
	}
	if isTruthy(env.CI) && !env.IsTTY {
		return FormatJSON
	}
	return FormatPretty
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
