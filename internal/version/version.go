// Package version converts between version text and domain.Version.
// Parse is the only place version strings are parsed. Format delegates to
// domain.Version.String, the single formatter every branch, tag and manifest
// value is rendered with.
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
)

// Components is the number of dot-separated numeric components a version carries.
const Components = 3

// Parse converts a dotted numeric triple such as "1.2.3" into a domain.Version.
// Pre-release and build metadata suffixes, a leading "v", leading zeros and any
// arity other than three are rejected with domain.ErrInvalidVersionFormat.
func Parse(text string) (domain.Version, error) {
	v, err := semver.StrictNewVersion(text)
	if err != nil {
		return domain.Version{}, fmt.Errorf(
			"%w: version should have %d numeric components, found %q: %w",
			domain.ErrInvalidVersionFormat, Components, text, err,
		)
	}

	if v.Prerelease() != "" || v.Metadata() != "" {
		return domain.Version{}, fmt.Errorf(
			"%w: version should have %d numeric components, found %q",
			domain.ErrInvalidVersionFormat, Components, text,
		)
	}

	return domain.Version{
		Major: v.Major(),
		Minor: v.Minor(),
		Patch: v.Patch(),
	}, nil
}

// Format renders v as a dotted numeric triple.
func Format(v domain.Version) string {
	return v.String()
}
