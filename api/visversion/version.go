// Package visversion defines the closed set of VIS releases the SDK knows
// about and their total ordering.
package visversion

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VisVersion is a known VIS release, encoded as "3-4a", "3-5a", ... "3-9a".
type VisVersion string

const (
	V3_4a VisVersion = "3-4a"
	V3_5a VisVersion = "3-5a"
	V3_6a VisVersion = "3-6a"
	V3_7a VisVersion = "3-7a"
	V3_7b VisVersion = "3-7b"
	V3_8a VisVersion = "3-8a"
	V3_9a VisVersion = "3-9a"
)

// Latest is the newest known VIS release.
const Latest = V3_9a

// All lists every known VIS release in ascending order.
var All = []VisVersion{V3_4a, V3_5a, V3_6a, V3_7a, V3_7b, V3_8a, V3_9a}

var ErrUnknownVersion = fmt.Errorf("unknown VIS version")

// String renders the bare form, e.g. "3-4a".
func (v VisVersion) String() string {
	return string(v)
}

// WithPrefix renders the "vis-" prefixed form used inside LocalId strings.
func (v VisVersion) WithPrefix() string {
	return "vis-" + string(v)
}

// IsValid reports whether v is one of the known releases.
func (v VisVersion) IsValid() bool {
	for _, known := range All {
		if known == v {
			return true
		}
	}

	return false
}

// semverForm rewrites "3-4a" into the semver-parseable "v3.4.0-a" so that
// ordering can be delegated to Masterminds/semver rather than hand-rolled.
func (v VisVersion) semverForm() (*semver.Version, error) {
	s := string(v)

	dash := strings.IndexByte(s, '-')
	if dash < 0 {
		return nil, fmt.Errorf("parsing VIS version %q: %w", s, ErrUnknownVersion)
	}

	major := s[:dash]
	rest := s[dash+1:]

	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}

	if i == 0 {
		return nil, fmt.Errorf("parsing VIS version %q: %w", s, ErrUnknownVersion)
	}

	minor := rest[:i]
	suffix := rest[i:]

	semStr := fmt.Sprintf("v%s.%s.0", major, minor)
	if suffix != "" {
		semStr += "-" + suffix
	}

	ver, err := semver.NewVersion(semStr)
	if err != nil {
		return nil, fmt.Errorf("parsing VIS version %q: %w", s, err)
	}

	return ver, nil
}

// Parse validates s against the known release set and returns the typed
// VisVersion, accepting both the bare ("3-4a") and "vis-" prefixed forms.
func Parse(s string) (VisVersion, error) {
	s = strings.TrimPrefix(s, "vis-")

	v := VisVersion(s)
	if !v.IsValid() {
		return "", fmt.Errorf("parsing VIS version %q: %w", s, ErrUnknownVersion)
	}

	return v, nil
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// other, using semver ordering over the rewritten form.
func (v VisVersion) Compare(other VisVersion) int {
	a, errA := v.semverForm()
	b, errB := other.semverForm()
	if errA != nil || errB != nil {
		return strings.Compare(string(v), string(other))
	}

	return a.Compare(b)
}

// LessThan reports whether v sorts before other.
func (v VisVersion) LessThan(other VisVersion) bool {
	return v.Compare(other) < 0
}

// Next returns the immediately following known version and true, or the
// zero value and false if v is the latest or unknown.
func Next(v VisVersion) (VisVersion, bool) {
	for i, known := range All {
		if known == v && i+1 < len(All) {
			return All[i+1], true
		}
	}

	return "", false
}
