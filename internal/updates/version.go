package updates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Add-on versions are often written without a patch component ("1.2") and
// sometimes carry a fourth revision number ("1.2.3.4"). Missing numeric
// components default to zero.
var semverRe = regexp.MustCompile(`^(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:\.(\d+))?(?:-([0-9A-Za-z.-]+))?(?:\+([0-9A-Za-z.-]+))?$`)

// Version represents a semantic version
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Revision   int
	Prerelease string
	Build      string
}

// ParseVersion parses a version string into a Version struct
func ParseVersion(versionStr string) (*Version, error) {
	versionStr = strings.TrimPrefix(strings.TrimSpace(versionStr), "v")

	matches := semverRe.FindStringSubmatch(versionStr)
	if len(matches) == 0 {
		return nil, fmt.Errorf("invalid version format: %q", versionStr)
	}

	major, _ := strconv.Atoi(matches[1])
	minor, _ := strconv.Atoi(matches[2])
	patch, _ := strconv.Atoi(matches[3])
	revision, _ := strconv.Atoi(matches[4])

	return &Version{
		Major:      major,
		Minor:      minor,
		Patch:      patch,
		Revision:   revision,
		Prerelease: matches[5],
		Build:      matches[6],
	}, nil
}

// String returns the string representation of the version
func (v *Version) String() string {
	version := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Revision != 0 {
		version += fmt.Sprintf(".%d", v.Revision)
	}
	if v.Prerelease != "" {
		version += "-" + v.Prerelease
	}
	if v.Build != "" {
		version += "+" + v.Build
	}
	return version
}

// Compare compares two versions using semantic version precedence. Build
// metadata is ignored.
// Returns:
//
//	-1 if v < other
//	 0 if v == other
//	 1 if v > other
func (v *Version) Compare(other *Version) int {
	if v.Major != other.Major {
		return compareInts(v.Major, other.Major)
	}
	if v.Minor != other.Minor {
		return compareInts(v.Minor, other.Minor)
	}
	if v.Patch != other.Patch {
		return compareInts(v.Patch, other.Patch)
	}
	if v.Revision != other.Revision {
		return compareInts(v.Revision, other.Revision)
	}

	if v.Prerelease == "" && other.Prerelease != "" {
		return 1 // v is release, other is prerelease
	}
	if v.Prerelease != "" && other.Prerelease == "" {
		return -1 // v is prerelease, other is release
	}
	return comparePrerelease(v.Prerelease, other.Prerelease)
}

// IsNewerThan returns true if v is newer than other
func (v *Version) IsNewerThan(other *Version) bool {
	return v.Compare(other) > 0
}

// IsNewer reports whether candidate is strictly newer than installed. Either
// side failing to parse yields false.
func IsNewer(candidate, installed string) (bool, error) {
	c, err := ParseVersion(candidate)
	if err != nil {
		return false, err
	}
	i, err := ParseVersion(installed)
	if err != nil {
		return false, err
	}
	return c.IsNewerThan(i), nil
}

func comparePrerelease(a, b string) int {
	if a == b {
		return 0
	}
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")
	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		if c := compareIdentifier(aParts[i], bParts[i]); c != 0 {
			return c
		}
	}
	return compareInts(len(aParts), len(bParts))
}

// Numeric identifiers sort below alphanumeric ones.
func compareIdentifier(a, b string) int {
	aNum, aErr := strconv.Atoi(a)
	bNum, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return compareInts(aNum, bNum)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func compareInts(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
