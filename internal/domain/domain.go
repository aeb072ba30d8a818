package domain

import "strings"

// TrackRef describes a track as known on one catalog. ExternalID is
// catalog-specific and is never compared across catalogs.
type TrackRef struct {
	Title      string   `json:"name"`
	Artist     string   `json:"artist"`
	Artists    []string `json:"artists,omitempty"`
	Album      string   `json:"album"`
	ExternalID string   `json:"external_id,omitempty"`
	DurationMs int      `json:"duration_ms,omitempty"`
}

// PrimaryArtist returns the canonical artist used for matching: the first
// listed artist, or the first segment of a joined artist string.
func (t TrackRef) PrimaryArtist() string {
	for _, a := range t.Artists {
		if a = strings.TrimSpace(a); a != "" {
			return a
		}
	}
	artist := t.Artist
	if i := strings.Index(artist, ","); i >= 0 {
		artist = artist[:i]
	}
	return strings.TrimSpace(artist)
}

// AllArtists returns every artist credited on the track.
func (t TrackRef) AllArtists() []string {
	if len(t.Artists) > 0 {
		return t.Artists
	}
	var out []string
	for _, a := range strings.Split(t.Artist, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// MatchCandidate is a destination track scored against a source track.
type MatchCandidate struct {
	Track           TrackRef `json:"track"`
	ConfidenceScore float64  `json:"confidence_score"`
}

// Playlist represents a collection of tracks from a streaming provider.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	OwnerName   string `json:"owner_name,omitempty"`
	TrackCount  int    `json:"track_count"`
}

// TrackPage is one page of a playlist's tracks.
type TrackPage struct {
	Tracks  []TrackRef `json:"tracks"`
	HasMore bool       `json:"has_more"`
}

// LikedPage is one offset-addressed page of a user's liked tracks.
// NextOffset is the offset of the following page; it can run ahead of
// len(Tracks) when the provider returned items that are not tracks.
type LikedPage struct {
	Tracks     []TrackRef `json:"tracks"`
	Total      int        `json:"total"`
	HasMore    bool       `json:"has_more"`
	NextOffset int        `json:"next_offset"`
}

// TargetKind selects where matched tracks are written.
type TargetKind string

const (
	TargetFavorites        TargetKind = "favorites"
	TargetNewPlaylist      TargetKind = "new_playlist"
	TargetExistingPlaylist TargetKind = "existing_playlist"
)

// DestinationTarget is the write location of a migration. Name is used by
// TargetNewPlaylist, ID by TargetExistingPlaylist.
type DestinationTarget struct {
	Kind TargetKind `json:"type" binding:"required"`
	Name string     `json:"name,omitempty"`
	ID   string     `json:"id,omitempty"`
}

// Favorites returns a target that writes to the user's liked tracks.
func Favorites() DestinationTarget {
	return DestinationTarget{Kind: TargetFavorites}
}

// NewPlaylist returns a target that creates a playlist with the given name.
func NewPlaylist(name string) DestinationTarget {
	return DestinationTarget{Kind: TargetNewPlaylist, Name: name}
}

// ExistingPlaylist returns a target that appends to an existing playlist.
func ExistingPlaylist(id string) DestinationTarget {
	return DestinationTarget{Kind: TargetExistingPlaylist, ID: id}
}

// Validate reports whether the target carries the field its kind needs.
func (d DestinationTarget) Validate() error {
	switch d.Kind {
	case TargetFavorites:
		return nil
	case TargetNewPlaylist:
		if strings.TrimSpace(d.Name) == "" {
			return invalidRequest("new_playlist target requires a name")
		}
		return nil
	case TargetExistingPlaylist:
		if strings.TrimSpace(d.ID) == "" {
			return invalidRequest("existing_playlist target requires an id")
		}
		return nil
	default:
		return invalidRequest("unknown target type %q", d.Kind)
	}
}

// Credential identifies the provider and the caller-supplied token used to
// build a catalog adapter for one job.
type Credential struct {
	Provider string
	Token    string
}
