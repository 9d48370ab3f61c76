package buildinfo

import (
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time via -ldflags -X.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// DisplayVersion returns the version shown in the navbar and by `aihelper version`.
// Numeric versions get a "v" prefix; an unset version falls back to the module
// version embedded by `go install`.
func DisplayVersion() string {
	v := strings.TrimSpace(Version)
	if v == "" || v == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			if mv := strings.TrimSpace(bi.Main.Version); mv != "" && mv != "(devel)" {
				v = mv
			}
		}
	}
	if v == "" || v == "dev" || v == "(devel)" {
		return "dev"
	}
	if v[0] >= '0' && v[0] <= '9' {
		return "v" + v
	}
	return v
}

// UserAgent is sent with every backend and identity request.
func UserAgent() string {
	return "aihelper/" + DisplayVersion()
}

// ShortCommit trims the commit hash to seven characters, or "" when unknown.
func ShortCommit() string {
	c := strings.TrimSpace(Commit)
	if c == "" || c == "none" {
		return ""
	}
	if len(c) <= 7 {
		return c
	}
	return c[:7]
}

// BuildDay returns the calendar day of Date, or "" when it is unset.
func BuildDay() string {
	d := strings.TrimSpace(Date)
	if d == "" || d == "unknown" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, d); err == nil {
		return t.UTC().Format(time.DateOnly)
	}
	if len(d) > len(time.DateOnly) {
		return d[:len(time.DateOnly)]
	}
	return d
}

// Summary joins the known parts of the build, e.g. "v1.2.0 (abc1234, 2026-10-01)".
func Summary() string {
	var extra []string
	if c := ShortCommit(); c != "" {
		extra = append(extra, c)
	}
	if d := BuildDay(); d != "" {
		extra = append(extra, d)
	}
	if len(extra) == 0 {
		return DisplayVersion()
	}
	return DisplayVersion() + " (" + strings.Join(extra, ", ") + ")"
}
