// Package screen defines the core data model for generated app screens.
//
// A screen is one independently addressable HTML fragment representing a
// single view of the generated application. Screens carry an author-assigned
// logical grid position used purely for canvas placement, and exactly one
// screen per project is the root (the view shown when no fragment state is
// present).
//
// Screen identifiers are derived deterministically from the human-readable
// name, so the same name always maps to the same id regardless of when or
// where it is derived.
package screen

import (
	"strings"

	"github.com/screenloom/screenloom/pkg/errors"
)

// IDPrefix is the namespace token prepended to every derived screen id.
// It keeps fragment identifiers from colliding with ids inside screen bodies.
const IDPrefix = "screen-"

// Record is one generated screen.
//
// Body is immutable once the record is finalized - an edit replaces the whole
// record rather than patching it. SortOrder is assigned at finalization time
// and provides a stable fallback ordering for composition.
type Record struct {
	Name       string `json:"name" bson:"name"`
	ID         string `json:"id" bson:"id"`
	GridColumn int    `json:"grid_column" bson:"grid_column"`
	GridRow    int    `json:"grid_row" bson:"grid_row"`
	IsRoot     bool   `json:"is_root" bson:"is_root"`
	Body       string `json:"body" bson:"body"`
	SortOrder  int    `json:"sort_order" bson:"sort_order"`
}

// DeriveID derives the stable screen id from a human-readable name.
//
// The name is lowercased, runs of non-alphanumeric characters collapse to a
// single hyphen, leading and trailing hyphens are trimmed, and the result is
// prefixed with [IDPrefix]. Deriving twice from the same name always yields
// the same id:
//
//	DeriveID("Home")          == "screen-home"
//	DeriveID("User Settings") == "screen-user-settings"
//	DeriveID("  Login!! ")    == "screen-login"
func DeriveID(name string) string {
	var b strings.Builder
	b.Grow(len(IDPrefix) + len(name))
	b.WriteString(IDPrefix)

	pendingSep := false
	wrote := false
	for _, r := range strings.ToLower(name) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingSep = wrote
			continue
		}
		if pendingSep {
			b.WriteByte('-')
			pendingSep = false
		}
		b.WriteRune(r)
		wrote = true
	}
	return b.String()
}

// NormalizeTarget converts a navigation target (as written in markup) into a
// screen id. Targets that already carry the id prefix are returned as-is;
// anything else is treated as a screen name and run through [DeriveID].
func NormalizeTarget(target string) string {
	target = strings.TrimPrefix(strings.TrimSpace(target), "#")
	if strings.HasPrefix(target, IDPrefix) {
		return target
	}
	return DeriveID(target)
}

// Platform identifies the fixed viewport profile screens are authored for.
// The set is closed: documents are generated for exactly one of these, they
// are not responsive.
type Platform string

// Supported platforms.
const (
	PlatformMobile  Platform = "mobile"
	PlatformDesktop Platform = "desktop"
)

// Profile holds the fixed pixel dimensions for a platform: the grid cell a
// screen occupies on the canvas (which doubles as the document viewport) and
// the gaps between neighbouring cells.
type Profile struct {
	CellWidth  float64
	CellHeight float64
	GapX       float64
	GapY       float64
}

var profiles = map[Platform]Profile{
	PlatformMobile:  {CellWidth: 390, CellHeight: 844, GapX: 120, GapY: 160},
	PlatformDesktop: {CellWidth: 1280, CellHeight: 800, GapX: 200, GapY: 240},
}

// ParsePlatform validates a platform string.
// Returns ErrCodeInvalidPlatform for anything outside the closed set.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := profiles[p]; !ok {
		return "", errors.New(errors.ErrCodeInvalidPlatform, "invalid platform: %q (must be mobile or desktop)", s)
	}
	return p, nil
}

// ProfileFor returns the fixed dimensions for a platform.
// Unknown platforms fall back to the mobile profile; use [ParsePlatform] to
// validate input first.
func ProfileFor(p Platform) Profile {
	if prof, ok := profiles[p]; ok {
		return prof
	}
	return profiles[PlatformMobile]
}
