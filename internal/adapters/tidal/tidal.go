package tidal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/jpp0ca/tunebridge/internal/adapters/httpx"
	"github.com/jpp0ca/tunebridge/internal/adapters/idset"
	"github.com/jpp0ca/tunebridge/internal/domain"
	"github.com/jpp0ca/tunebridge/internal/ports"
)

const (
	name               = "tidal"
	defaultBaseURL     = "https://api.tidal.com/v1"
	defaultCountryCode = "US"
	pageSize           = 50
	searchLimit        = 10
	maxBatch           = 100
	likesKey           = "likes"
)

// Config holds the Tidal endpoint settings and the HTTP policy applied to
// every opened catalog.
type Config struct {
	BaseURL     string
	CountryCode string
	HTTP        httpx.Options
	Logger      *log.Logger
}

// Provider implements ports.Provider for Tidal using the v1 REST API.
type Provider struct {
	cfg Config
}

// NewProvider creates a Tidal provider. Zero config values fall back to the
// public API defaults.
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.CountryCode == "" {
		cfg.CountryCode = defaultCountryCode
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) Name() string {
	return name
}

// Open resolves the session behind token. An invalid token fails here with
// domain.ErrUnauthorized, before any write is attempted.
func (p *Provider) Open(ctx context.Context, token string) (ports.Catalog, error) {
	opts := p.cfg.HTTP
	opts.Provider = name
	opts.Token = token
	if opts.Logger == nil {
		opts.Logger = p.cfg.Logger
	}

	c := &Catalog{
		client:      httpx.NewClient(opts),
		baseURL:     p.cfg.BaseURL,
		countryCode: p.cfg.CountryCode,
		present:     idset.NewRegistry(),
		logger:      p.cfg.Logger.With("provider", name),
	}

	var sess sessionResponse
	if err := c.getJSON(ctx, "/sessions", nil, &sess); err != nil {
		return nil, fmt.Errorf("tidal: failed to resolve session: %w", err)
	}
	if sess.UserID == 0 {
		return nil, &domain.ProviderError{Provider: name, Kind: domain.KindUnauthorized, Message: "session has no user"}
	}
	c.userID = strconv.FormatInt(sess.UserID, 10)
	if sess.CountryCode != "" {
		c.countryCode = sess.CountryCode
	}
	return c, nil
}

// Catalog is a Tidal session bound to one user's token.
type Catalog struct {
	client      *http.Client
	baseURL     string
	countryCode string
	userID      string
	present     *idset.Registry
	logger      *log.Logger
}

func (c *Catalog) Name() string {
	return name
}

func (c *Catalog) BatchSize() int {
	return maxBatch
}

// -- API response types (internal) ------------------------------------------

type sessionResponse struct {
	SessionID   string `json:"sessionId"`
	UserID      int64  `json:"userId"`
	CountryCode string `json:"countryCode"`
}

type artistData struct {
	Name string `json:"name"`
}

type albumData struct {
	Title string `json:"title"`
}

type trackData struct {
	ID       int64        `json:"id"`
	Title    string       `json:"title"`
	Version  *string      `json:"version"`
	Duration int          `json:"duration"`
	Artist   *artistData  `json:"artist"`
	Artists  []artistData `json:"artists"`
	Album    albumData    `json:"album"`
}

type playlistData struct {
	UUID           string `json:"uuid"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	NumberOfTracks int    `json:"numberOfTracks"`
	Creator        struct {
		Name string `json:"name"`
	} `json:"creator"`
}

type playlistsResponse struct {
	Items              []playlistData `json:"items"`
	TotalNumberOfItems int            `json:"totalNumberOfItems"`
}

type itemsResponse struct {
	Items []struct {
		Type string    `json:"type"`
		Item trackData `json:"item"`
	} `json:"items"`
	TotalNumberOfItems int `json:"totalNumberOfItems"`
}

type tracksResponse struct {
	Items              []trackData `json:"items"`
	TotalNumberOfItems int         `json:"totalNumberOfItems"`
}

// -- Catalog implementation --------------------------------------------------

func (c *Catalog) FetchPlaylists(ctx context.Context) ([]domain.Playlist, error) {
	var playlists []domain.Playlist
	for offset := 0; ; offset += pageSize {
		var resp playlistsResponse
		q := pageQuery(pageSize, offset)
		if err := c.getJSON(ctx, "/users/"+c.userID+"/playlists", q, &resp); err != nil {
			return nil, fmt.Errorf("tidal: failed to get playlists: %w", err)
		}

		for _, item := range resp.Items {
			playlists = append(playlists, domain.Playlist{
				ID:          item.UUID,
				Name:        item.Title,
				Description: item.Description,
				OwnerName:   item.Creator.Name,
				TrackCount:  item.NumberOfTracks,
			})
		}

		if len(resp.Items) == 0 || offset+len(resp.Items) >= resp.TotalNumberOfItems {
			break
		}
	}
	return playlists, nil
}

func (c *Catalog) FetchTracks(ctx context.Context, playlistID string, page int) (domain.TrackPage, error) {
	if page < 0 {
		page = 0
	}
	offset := page * pageSize

	var resp itemsResponse
	q := pageQuery(pageSize, offset)
	if err := c.getJSON(ctx, "/playlists/"+url.PathEscape(playlistID)+"/items", q, &resp); err != nil {
		return domain.TrackPage{}, fmt.Errorf("tidal: failed to get playlist items: %w", err)
	}

	tracks := make([]domain.TrackRef, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Type != "" && item.Type != "track" {
			continue // videos share the items endpoint
		}
		tracks = append(tracks, toTrack(item.Item))
	}

	return domain.TrackPage{
		Tracks:  tracks,
		HasMore: len(resp.Items) > 0 && offset+len(resp.Items) < resp.TotalNumberOfItems,
	}, nil
}

func (c *Catalog) FetchLiked(ctx context.Context, limit, offset int) (domain.LikedPage, error) {
	if limit <= 0 || limit > pageSize {
		limit = pageSize
	}
	if offset < 0 {
		offset = 0
	}

	var resp itemsResponse
	q := pageQuery(limit, offset)
	q.Set("order", "DATE")
	q.Set("orderDirection", "DESC")
	if err := c.getJSON(ctx, "/users/"+c.userID+"/favorites/tracks", q, &resp); err != nil {
		return domain.LikedPage{}, fmt.Errorf("tidal: failed to get favorite tracks: %w", err)
	}

	tracks := make([]domain.TrackRef, 0, len(resp.Items))
	for _, item := range resp.Items {
		tracks = append(tracks, toTrack(item.Item))
	}

	return domain.LikedPage{
		Tracks:     tracks,
		Total:      resp.TotalNumberOfItems,
		HasMore:    len(resp.Items) > 0 && offset+len(resp.Items) < resp.TotalNumberOfItems,
		NextOffset: offset + len(resp.Items),
	}, nil
}

func (c *Catalog) Search(ctx context.Context, query domain.TrackRef) ([]domain.TrackRef, error) {
	terms := strings.TrimSpace(query.Title + " " + query.PrimaryArtist())
	if terms == "" {
		return []domain.TrackRef{}, nil
	}

	q := url.Values{}
	q.Set("query", terms)
	q.Set("limit", strconv.Itoa(searchLimit))

	var resp tracksResponse
	if err := c.getJSON(ctx, "/search/tracks", q, &resp); err != nil {
		return nil, fmt.Errorf("tidal: search failed: %w", err)
	}

	out := make([]domain.TrackRef, 0, len(resp.Items))
	for _, t := range resp.Items {
		out = append(out, toTrack(t))
	}
	return out, nil
}

func (c *Catalog) CreatePlaylist(ctx context.Context, title, description string) (string, error) {
	form := url.Values{}
	form.Set("title", title)
	form.Set("description", description)

	var resp playlistData
	if _, err := c.postForm(ctx, "/users/"+c.userID+"/playlists", form, "", &resp); err != nil {
		return "", &domain.WriteError{Op: "tidal: create playlist", Err: err}
	}
	if resp.UUID == "" {
		return "", &domain.WriteError{Op: "tidal: create playlist", Err: fmt.Errorf("response has no playlist id")}
	}

	c.present.For(resp.UUID, emptyLoader).Add()
	return resp.UUID, nil
}

func (c *Catalog) AddTracks(ctx context.Context, playlistID string, trackIDs []string) (int, error) {
	set := c.present.For(playlistID, c.playlistTrackIDs(playlistID))
	missing, err := set.Missing(ctx, trackIDs)
	if err != nil {
		return 0, fmt.Errorf("tidal: failed to read playlist %s: %w", playlistID, err)
	}

	added := 0
	for start := 0; start < len(missing); start += maxBatch {
		end := min(start+maxBatch, len(missing))
		chunk := missing[start:end]

		etag, err := c.playlistETag(ctx, playlistID)
		if err != nil {
			return added, &domain.WriteError{Op: "tidal: add tracks", Err: err, Pending: missing[start:]}
		}

		form := url.Values{}
		form.Set("trackIds", strings.Join(chunk, ","))
		form.Set("onDupes", "SKIP")
		form.Set("onArtifactNotFound", "SKIP")

		if _, err := c.postForm(ctx, "/playlists/"+url.PathEscape(playlistID)+"/items", form, etag, nil); err != nil {
			return added, &domain.WriteError{Op: "tidal: add tracks", Err: err, Pending: missing[start:]}
		}
		set.Add(chunk...)
		added += len(chunk)
	}
	return added, nil
}

func (c *Catalog) AddToLikes(ctx context.Context, trackIDs []string) (int, error) {
	set := c.present.For(likesKey, c.likedTrackIDs)
	missing, err := set.Missing(ctx, trackIDs)
	if err != nil {
		return 0, fmt.Errorf("tidal: failed to read favorites: %w", err)
	}

	added := 0
	for start := 0; start < len(missing); start += maxBatch {
		end := min(start+maxBatch, len(missing))
		chunk := missing[start:end]

		form := url.Values{}
		form.Set("trackIds", strings.Join(chunk, ","))
		form.Set("onArtifactNotFound", "SKIP")

		if _, err := c.postForm(ctx, "/users/"+c.userID+"/favorites/tracks", form, "", nil); err != nil {
			return added, &domain.WriteError{Op: "tidal: add favorites", Err: err, Pending: missing[start:]}
		}
		set.Add(chunk...)
		added += len(chunk)
	}
	return added, nil
}

func (c *Catalog) DeletePlaylist(ctx context.Context, playlistID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint("/playlists/"+url.PathEscape(playlistID), nil), nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return httpx.WrapTransportError(name, err)
	}
	defer resp.Body.Close()

	if err := httpx.CheckResponse(name, resp); err != nil {
		return fmt.Errorf("tidal: failed to delete playlist %s: %w", playlistID, err)
	}
	c.present.Forget(playlistID)
	return nil
}

// -- Dedup loaders -----------------------------------------------------------

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

func (c *Catalog) likedTrackIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for offset := 0; ; {
		p, err := c.FetchLiked(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, t := range p.Tracks {
			ids = append(ids, t.ExternalID)
		}
		if !p.HasMore || p.NextOffset <= offset {
			return ids, nil
		}
		offset = p.NextOffset
	}
}

// -- HTTP helpers ------------------------------------------------------------

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return q
}

func (c *Catalog) endpoint(path string, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	q.Set("countryCode", c.countryCode)
	return c.baseURL + path + "?" + q.Encode()
}

func (c *Catalog) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, q), nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return httpx.WrapTransportError(name, err)
	}
	defer resp.Body.Close()

	if err := httpx.CheckResponse(name, resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Catalog) postForm(ctx context.Context, path string, form url.Values, etag string, out any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, httpx.WrapTransportError(name, err)
	}
	defer resp.Body.Close()

	if err := httpx.CheckResponse(name, resp); err != nil {
		return nil, err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.Header, nil
	}
	return resp.Header, json.NewDecoder(resp.Body).Decode(out)
}

// playlistETag reads the playlist's current ETag, required by Tidal for
// every playlist mutation.
func (c *Catalog) playlistETag(ctx context.Context, playlistID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/playlists/"+url.PathEscape(playlistID), nil), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", httpx.WrapTransportError(name, err)
	}
	defer resp.Body.Close()

	if err := httpx.CheckResponse(name, resp); err != nil {
		return "", err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Header.Get("ETag"), nil
}

// -- Helpers -----------------------------------------------------------------

func toTrack(t trackData) domain.TrackRef {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	if len(artists) == 0 && t.Artist != nil {
		artists = append(artists, t.Artist.Name)
	}

	title := t.Title
	if t.Version != nil && *t.Version != "" && !strings.Contains(title, *t.Version) {
		title = fmt.Sprintf("%s (%s)", title, *t.Version)
	}

	return domain.TrackRef{
		Title:      title,
		Artist:     strings.Join(artists, ", "),
		Artists:    artists,
		Album:      t.Album.Title,
		ExternalID: strconv.FormatInt(t.ID, 10),
		DurationMs: t.Duration * 1000,
	}
}
