package app

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jpp0ca/tunebridge/internal/domain"
	"github.com/jpp0ca/tunebridge/internal/ports"
)

const (
	scoreExact      = 1.0
	scorePartial    = 0.7
	scoreArtistOnly = 0.3

	// DefaultMinConfidence is the score a candidate must exceed.
	DefaultMinConfidence = 0.3

	// durationTolerance decides ties between equally scored candidates.
	durationTolerance = 3000
)

// ErrMissingMetadata is returned by Match for a track without a usable title
// or artist. No search is made for it.
var ErrMissingMetadata = errors.New("missing title or artist")

var (
	bracketed   = regexp.MustCompile(`[\(\[][^\)\]]*[\)\]]`)
	featuring   = regexp.MustCompile(`\s(feat\.?|ft\.?|featuring)\s.*$`)
	dashVersion = regexp.MustCompile(`\s-\s.*(remaster|version|live|edit|mix|mono|stereo|acoustic).*$`)
)

// Matcher resolves a source track to its best counterpart on a destination
// catalog. It only ever calls Catalog.Search.
type Matcher struct {
	MinConfidence float64
}

// NewMatcher returns a Matcher accepting candidates scoring above
// minConfidence.
func NewMatcher(minConfidence float64) *Matcher {
	return &Matcher{MinConfidence: minConfidence}
}

// Match searches dest for src and returns the best accepted candidate, or nil
// when nothing scores above the threshold. Tracks without a title or an
// artist are not searched and yield ErrMissingMetadata.
func (m *Matcher) Match(ctx context.Context, dest ports.Catalog, src domain.TrackRef) (*domain.MatchCandidate, error) {
	title := normalize(src.Title)
	artist := normalize(src.PrimaryArtist())
	if title == "" || artist == "" {
		return nil, ErrMissingMetadata
	}

	candidates, err := dest.Search(ctx, src)
	if err != nil {
		return nil, err
	}

	var best *domain.MatchCandidate
	for _, c := range candidates {
		score := scoreNormalized(title, artist, c)
		if score <= m.MinConfidence {
			continue
		}
		switch {
		case best == nil || score > best.ConfidenceScore:
			best = &domain.MatchCandidate{Track: c, ConfidenceScore: score}
		case score == best.ConfidenceScore && !durationClose(src, best.Track) && durationClose(src, c):
			best = &domain.MatchCandidate{Track: c, ConfidenceScore: score}
		}
	}
	return best, nil
}

// Score rates how well candidate matches src: 1.0 for equal title and
// artist, 0.7 when one title contains the other and the artist matches, 0.3
// for an artist match alone and 0 otherwise.
func Score(src, candidate domain.TrackRef) float64 {
	return scoreNormalized(normalize(src.Title), normalize(src.PrimaryArtist()), candidate)
}

func scoreNormalized(title, artist string, c domain.TrackRef) float64 {
	artistMatch := false
	for _, a := range c.AllArtists() {
		if normalize(a) == artist {
			artistMatch = true
			break
		}
	}
	if !artistMatch {
		return 0
	}

	ct := normalize(c.Title)
	switch {
	case ct == title:
		return scoreExact
	case ct != "" && title != "" && (strings.Contains(ct, title) || strings.Contains(title, ct)):
		return scorePartial
	default:
		return scoreArtistOnly
	}
}

func durationClose(a, b domain.TrackRef) bool {
	if a.DurationMs <= 0 || b.DurationMs <= 0 {
		return false
	}
	d := a.DurationMs - b.DurationMs
	if d < 0 {
		d = -d
	}
	return d <= durationTolerance
}

// normalize folds s to a comparable form: accents stripped, case folded,
// bracketed qualifiers, featured artists and version suffixes dropped,
// punctuation removed and whitespace collapsed.
func normalize(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	s = cases.Fold().String(s)

	s = bracketed.ReplaceAllString(s, " ")
	s = featuring.ReplaceAllString(s, "")
	s = dashVersion.ReplaceAllString(s, "")

	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == '\'' || r == '’':
			return -1
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
