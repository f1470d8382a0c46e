package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version is an SDK version. Only major and minor take part in compatibility.
type Version struct {
	Major    int
	Minor    int
	Build    int
	Revision int
}

// versionRegexp matches "major.minor[.build][vendor][r<revision>]". Vendor
// suffixes start with "_" or "-" (e.g. "_Ubuntu", "_rpmfusion").
var versionRegexp = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?(?:[_-]\S*?)?(?:r(\d+))?$`)

// ParseVersion parses versions like "7.1", "7.1.4", "7.1.4r165100" or
// "6.1.38_Ubuntur153438". Vendor suffixes are ignored, only a trailing
// "r<digits>" is taken as the revision.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "v"))
	if s == "" {
		return Version{}, fmt.Errorf("version cannot be empty: %w", ErrNotValid)
	}

	match := versionRegexp.FindStringSubmatch(s)
	if match == nil {
		return Version{}, fmt.Errorf("invalid version %q, expected 'major.minor[.build][r<revision>]': %w", s, ErrNotValid)
	}

	nums := make([]int, 4)
	for i, p := range match[1:] {
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version component %q: %w", p, ErrNotValid)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Build: nums[2], Revision: nums[3]}, nil
}

// VersionFromPacked decodes the SDK packed version number (major*1000000 + minor*1000 + build).
func VersionFromPacked(packed uint32) Version {
	return Version{
		Major: int(packed / 1_000_000),
		Minor: int((packed / 1_000) % 1_000),
		Build: int(packed % 1_000),
	}
}

// Packed returns the SDK packed version number.
func (v Version) Packed() uint32 {
	return uint32(v.Major)*1_000_000 + uint32(v.Minor)*1_000 + uint32(v.Build)
}

// Compatible returns true when both versions belong to the same major.minor line.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major && v.Minor == other.Minor
}

// MajorMinor returns the "major.minor" representation.
func (v Version) MajorMinor() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
	if v.Revision > 0 {
		s += "r" + strconv.Itoa(v.Revision)
	}
	return s
}
