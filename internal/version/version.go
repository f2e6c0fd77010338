// Package version parses and orders PlatformIO Core versions.
package version

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/conn-castle/pio-layer/internal/messages"
)

// pep440Suffix matches Python-style pre-release suffixes such as "3.4.1a6",
// "3.4.1.dev5" or "6.1.0rc1", which PlatformIO Core reports for dev builds.
var pep440Suffix = regexp.MustCompile(`^(\d+\.\d+\.\d+)\.?(a|b|rc|dev)\.?(\d+)$`)

// embedded finds a version inside command output like "PlatformIO Core, version 6.1.11".
var embedded = regexp.MustCompile(`\d+\.\d+\.\d+(?:[-.]?[0-9A-Za-z]+(?:\.[0-9A-Za-z]+)*)?`)

// IsDev reports whether raw refers to an unversioned development build.
func IsDev(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "dev")
}

// Parse converts raw into a semantic version.
// A leading "v" and PEP 440 pre-release suffixes are accepted.
func Parse(raw string) (*semver.Version, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "v")
	if trimmed == "" {
		return nil, fmt.Errorf(messages.VersionRequired)
	}
	if m := pep440Suffix.FindStringSubmatch(trimmed); m != nil {
		trimmed = m[1] + "-" + m[2] + "." + m[3]
	}
	v, err := semver.NewVersion(trimmed)
	if err != nil {
		return nil, fmt.Errorf(messages.VersionInvalidFmt, raw, err)
	}
	return v, nil
}

// Normalize returns raw in canonical X.Y.Z[-pre] form.
func Normalize(raw string) (string, error) {
	v, err := Parse(raw)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Extract returns the first version-looking token in output.
func Extract(output string) (string, bool) {
	found := embedded.FindString(output)
	if found == "" {
		return "", false
	}
	return found, true
}

// Compare orders a and b. It returns -1 if a < b, 0 if a == b, and 1 if a > b.
// A pre-release sorts before its release: 3.4.1-a.6 < 3.4.1.
func Compare(a string, b string) (int, error) {
	av, err := Parse(a)
	if err != nil {
		return 0, fmt.Errorf(messages.VersionCompareFmt, a, b, err)
	}
	bv, err := Parse(b)
	if err != nil {
		return 0, fmt.Errorf(messages.VersionCompareFmt, a, b, err)
	}
	return av.Compare(bv), nil
}

// AtLeast reports whether installed >= minimum.
func AtLeast(installed string, minimum string) (bool, error) {
	cmp, err := Compare(installed, minimum)
	if err != nil {
		return false, err
	}
	return cmp >= 0, nil
}
