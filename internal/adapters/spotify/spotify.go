package spotify

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"

	"github.com/jpp0ca/tunebridge/internal/adapters/httpx"
	"github.com/jpp0ca/tunebridge/internal/adapters/idset"
	"github.com/jpp0ca/tunebridge/internal/domain"
	"github.com/jpp0ca/tunebridge/internal/ports"
)

const (
	name        = "spotify"
	maxPerPage  = 50
	tracksPage  = 50
	searchLimit = 10
	maxBatch    = 100
	likesBatch  = 50
	likesKey    = "likes"
)

// Config holds the Spotify endpoint override and the HTTP policy applied to
// every opened catalog.
type Config struct {
	// BaseURL overrides the Web API root, e.g. for a local fake.
	BaseURL string
	HTTP    httpx.Options
	Logger  *log.Logger
}

// Provider implements ports.Provider for Spotify using the Web API.
type Provider struct {
	cfg Config
}

// NewProvider creates a new Spotify provider.
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL != "" && !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) Name() string {
	return name
}

// Open checks the token against the current user endpoint and returns a
// catalog bound to that user.
func (p *Provider) Open(ctx context.Context, token string) (ports.Catalog, error) {
	opts := p.cfg.HTTP
	opts.Provider = name
	opts.Token = token
	if opts.Logger == nil {
		opts.Logger = p.cfg.Logger
	}

	var clientOpts []spotify.ClientOption
	if p.cfg.BaseURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(p.cfg.BaseURL))
	}
	client := spotify.New(httpx.NewClient(opts), clientOpts...)

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify: failed to get current user: %w", mapError(err))
	}

	return &Catalog{
		client:  client,
		userID:  user.ID,
		present: idset.NewRegistry(),
		logger:  p.cfg.Logger.With("provider", name),
	}, nil
}

// Catalog is a Spotify session bound to one user's token.
type Catalog struct {
	client  *spotify.Client
	userID  string
	present *idset.Registry
	logger  *log.Logger
}

func (c *Catalog) Name() string {
	return name
}

func (c *Catalog) BatchSize() int {
	return maxBatch
}

// -- Catalog implementation --------------------------------------------------

func (c *Catalog) FetchPlaylists(ctx context.Context) ([]domain.Playlist, error) {
	var playlists []domain.Playlist

	for offset := 0; ; offset += maxPerPage {
		page, err := c.client.CurrentUsersPlaylists(ctx, spotify.Limit(maxPerPage), spotify.Offset(offset))
		if err != nil {
			return nil, fmt.Errorf("spotify: failed to get playlists: %w", mapError(err))
		}

		for _, item := range page.Playlists {
			playlists = append(playlists, domain.Playlist{
				ID:          string(item.ID),
				Name:        item.Name,
				Description: item.Description,
				OwnerName:   item.Owner.DisplayName,
				TrackCount:  int(item.Tracks.Total),
			})
		}

		if page.Next == "" || len(page.Playlists) == 0 {
			break
		}
	}

	return playlists, nil
}

func (c *Catalog) FetchTracks(ctx context.Context, playlistID string, page int) (domain.TrackPage, error) {
	if page < 0 {
		page = 0
	}

	items, err := c.client.GetPlaylistTracks(ctx, spotify.ID(playlistID),
		spotify.Offset(page*tracksPage), spotify.Limit(tracksPage))
	if err != nil {
		return domain.TrackPage{}, fmt.Errorf("spotify: failed to get playlist tracks: %w", mapError(err))
	}

	tracks := make([]domain.TrackRef, 0, len(items.Tracks))
	for _, item := range items.Tracks {
		if item.IsLocal || item.Track.ID == "" {
			continue // skip local or unavailable tracks
		}
		tracks = append(tracks, toTrack(item.Track))
	}

	return domain.TrackPage{Tracks: tracks, HasMore: items.Next != ""}, nil
}

func (c *Catalog) FetchLiked(ctx context.Context, limit, offset int) (domain.LikedPage, error) {
	if limit <= 0 || limit > maxPerPage {
		limit = maxPerPage
	}
	if offset < 0 {
		offset = 0
	}

	saved, err := c.client.CurrentUsersTracks(ctx, spotify.Limit(limit), spotify.Offset(offset))
	if err != nil {
		return domain.LikedPage{}, fmt.Errorf("spotify: failed to get saved tracks: %w", mapError(err))
	}

	tracks := make([]domain.TrackRef, 0, len(saved.Tracks))
	for _, item := range saved.Tracks {
		tracks = append(tracks, toTrack(item.FullTrack))
	}

	return domain.LikedPage{
		Tracks:     tracks,
		Total:      int(saved.Total),
		HasMore:    saved.Next != "",
		NextOffset: offset + len(saved.Tracks),
	}, nil
}

func (c *Catalog) Search(ctx context.Context, query domain.TrackRef) ([]domain.TrackRef, error) {
	q := searchQuery(query)
	if q == "" {
		return []domain.TrackRef{}, nil
	}

	result, err := c.client.Search(ctx, q, spotify.SearchTypeTrack, spotify.Limit(searchLimit))
	if err != nil {
		return nil, fmt.Errorf("spotify: search failed: %w", mapError(err))
	}
	if result.Tracks == nil {
		return []domain.TrackRef{}, nil
	}

	out := make([]domain.TrackRef, 0, len(result.Tracks.Tracks))
	for _, t := range result.Tracks.Tracks {
		out = append(out, toTrack(t))
	}
	return out, nil
}

func (c *Catalog) CreatePlaylist(ctx context.Context, title, description string) (string, error) {
	playlist, err := c.client.CreatePlaylistForUser(ctx, c.userID, title, description, false, false)
	if err != nil {
		return "", &domain.WriteError{Op: "spotify: create playlist", Err: mapError(err)}
	}

	id := string(playlist.ID)
	c.present.For(id, emptyLoader)
	return id, nil
}

func (c *Catalog) AddTracks(ctx context.Context, playlistID string, trackIDs []string) (int, error) {
	set := c.present.For(playlistID, c.playlistTrackIDs(playlistID))
	missing, err := set.Missing(ctx, trackIDs)
	if err != nil {
		return 0, fmt.Errorf("spotify: failed to read playlist %s: %w", playlistID, err)
	}

	added := 0
	for start := 0; start < len(missing); start += maxBatch {
		chunk := missing[start:min(start+maxBatch, len(missing))]

		if _, err := c.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), toIDs(chunk)...); err != nil {
			return added, &domain.WriteError{Op: "spotify: add tracks to playlist", Err: mapError(err), Pending: missing[start:]}
		}
		set.Add(chunk...)
		added += len(chunk)
	}

	return added, nil
}

// AddToLikes saves tracks to the user's library. Tracks the library already
// holds are filtered out with a contains check before each save.
func (c *Catalog) AddToLikes(ctx context.Context, trackIDs []string) (int, error) {
	set := c.present.For(likesKey, emptyLoader)
	missing, err := set.Missing(ctx, trackIDs)
	if err != nil {
		return 0, err
	}

	added := 0
	for start := 0; start < len(missing); start += likesBatch {
		chunk := missing[start:min(start+likesBatch, len(missing))]

		has, err := c.client.UserHasTracks(ctx, toIDs(chunk)...)
		if err != nil {
			return added, &domain.WriteError{Op: "spotify: check saved tracks", Err: mapError(err), Pending: missing[start:]}
		}

		var fresh []string
		for i, id := range chunk {
			if i < len(has) && has[i] {
				set.Add(id)
				continue
			}
			fresh = append(fresh, id)
		}
		if len(fresh) == 0 {
			continue
		}

		if err := c.client.AddTracksToLibrary(ctx, toIDs(fresh)...); err != nil {
			pending := slices.Concat(fresh, missing[start+len(chunk):])
			return added, &domain.WriteError{Op: "spotify: save tracks", Err: mapError(err), Pending: pending}
		}
		set.Add(fresh...)
		added += len(fresh)
	}

	return added, nil
}

// DeletePlaylist unfollows the playlist, which is how the Web API deletes a
// playlist the user owns.
func (c *Catalog) DeletePlaylist(ctx context.Context, playlistID string) error {
	if err := c.client.UnfollowPlaylist(ctx, spotify.ID(playlistID)); err != nil {
		return fmt.Errorf("spotify: failed to delete playlist %s: %w", playlistID, mapError(err))
	}
	c.present.Forget(playlistID)
	return nil
}

func emptyLoader(context.Context) ([]string, error) { return nil, nil }

func (c *Catalog) playlistTrackIDs(playlistID string) idset.Loader {
	return func(ctx context.Context) ([]string, error) {
		var ids []string
		for page := 0; ; page++ {
			p, err := c.FetchTracks(ctx, playlistID, page)
			if err != nil {
				return nil, err
			}
			for _, t := range p.Tracks {
				ids = append(ids, t.ExternalID)
			}
			if !p.HasMore {
				return ids, nil
			}
		}
	}
}

// -- Helpers -----------------------------------------------------------------

// mapError converts errors returned by the Web API client into provider
// errors carrying a domain.ErrorKind.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	var se spotify.Error
	if errors.As(err, &se) {
		return domain.NewProviderError(name, se.Status, se.Message)
	}
	return httpx.WrapTransportError(name, err)
}

func searchQuery(t domain.TrackRef) string {
	title := strings.TrimSpace(t.Title)
	artist := t.PrimaryArtist()
	switch {
	case title != "" && artist != "":
		return fmt.Sprintf("track:%s artist:%s", title, artist)
	case title != "":
		return "track:" + title
	case artist != "":
		return "artist:" + artist
	default:
		return ""
	}
}

func toIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}

func toTrack(t spotify.FullTrack) domain.TrackRef {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	return domain.TrackRef{
		Title:      t.Name,
		Artist:     strings.Join(artists, ", "),
		Artists:    artists,
		Album:      t.Album.Name,
		ExternalID: string(t.ID),
		DurationMs: int(t.Duration),
	}
}
