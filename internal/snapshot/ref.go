package snapshot

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spotsnap/spotsnap/internal/shared"
)

// Ref is a parsed resource reference.
type Ref struct {
	Type ResourceType
	ID   string
}

// Spotify IDs are 22 base62 characters.
const idLength = 22

var (
	uriPattern = regexp.MustCompile(`^spotify:(track|episode|playlist|album|artist|user|show):([0-9A-Za-z]+)$`)
	urlPattern = regexp.MustCompile(`^(?:https?://)?open\.spotify\.com/(?:intl-[a-z]{2}(?:-[A-Z]{2})?/)?(track|episode|playlist|album|artist|user|show)/([0-9A-Za-z]+)`)
	idPattern  = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)
)

// ParseRef normalizes a user-supplied reference into a [Ref]. It attempts,
// in priority order: a typed Spotify URI, a typed open.spotify.com URL, and
// a bare 22-character ID (whose type stays [TypeUnknown]). Pure function:
// no side effects, no network access.
func ParseRef(raw string) (Ref, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Ref{}, fmt.Errorf("%w: empty reference", shared.ErrInvalidReference)
	}

	if m := uriPattern.FindStringSubmatch(trimmed); m != nil {
		return Ref{Type: ResourceType(m[1]), ID: m[2]}, nil
	}

	if m := urlPattern.FindStringSubmatch(trimmed); m != nil {
		return Ref{Type: ResourceType(m[1]), ID: m[2]}, nil
	}

	if idPattern.MatchString(trimmed) {
		return Ref{Type: TypeUnknown, ID: trimmed}, nil
	}

	return Ref{}, fmt.Errorf("%w: %q is not a Spotify URI, URL, or ID", shared.ErrInvalidReference, raw)
}

// String renders the reference in URI form, or the bare ID when untyped.
func (r Ref) String() string {
	if r.Type == TypeUnknown {
		return r.ID
	}
	return fmt.Sprintf("spotify:%s:%s", r.Type, r.ID)
}
