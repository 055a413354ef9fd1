package domain

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// revisionHeader matches the revision marker kept on the first lines of the
// tracked activity file.
var revisionHeader = regexp.MustCompile(`(?m)^<!--\s*revision:\s*(v?\S+)\s*-->\s*$`)

// Revision is the semantic version stamped into the tracked file on every
// run. It wraps semver.Version.
type Revision struct {
	*semver.Version
}

// InitialRevision is the revision of a file that has never been written.
func InitialRevision() *Revision {
	return &Revision{semver.New(0, 0, 0, "", "")}
}

// NewRevision parses s, with or without the v prefix.
func NewRevision(s string) (*Revision, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid revision %q: %w", s, err)
	}
	return &Revision{v}, nil
}

// RevisionFromContent reads the revision marker from file content. Content
// without a marker yields InitialRevision.
func RevisionFromContent(content string) (*Revision, error) {
	match := revisionHeader.FindStringSubmatch(content)
	if match == nil {
		return InitialRevision(), nil
	}
	return NewRevision(match[1])
}

// RevisionMarker renders the marker line for r.
func RevisionMarker(r *Revision) string {
	return fmt.Sprintf("<!-- revision: %s -->", r)
}

// BumpMajor increments the major version.
func (r *Revision) BumpMajor() *Revision {
	next := r.IncMajor()
	return &Revision{&next}
}

// BumpMinor increments the minor version.
func (r *Revision) BumpMinor() *Revision {
	next := r.IncMinor()
	return &Revision{&next}
}

// BumpPatch increments the patch version.
func (r *Revision) BumpPatch() *Revision {
	next := r.IncPatch()
	return &Revision{&next}
}

// Compare compares two revisions.
func (r *Revision) Compare(other *Revision) int {
	return r.Version.Compare(other.Version)
}

// String returns the revision with a v prefix.
func (r *Revision) String() string {
	return "v" + r.Version.String()
}
