package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/jpp0ca/tunebridge/internal/adapters/httpx"
	"github.com/jpp0ca/tunebridge/internal/adapters/idset"
	"github.com/jpp0ca/tunebridge/internal/domain"
	"github.com/jpp0ca/tunebridge/internal/ports"
)

const (
	name           = "youtube"
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	maxResults     = 50
	searchLimit    = 10
	// Inserts are one request per video.
	maxBatch = 1
	// likedPlaylist is the system playlist holding the user's liked videos.
	likedPlaylist = "LL"
	likesKey      = "likes"
)

// Config holds the YouTube endpoint settings and the HTTP policy applied to
// every opened catalog.
type Config struct {
	BaseURL string
	HTTP    httpx.Options
	Logger  *log.Logger
}

// Provider implements ports.Provider for YouTube using the Data API v3.
type Provider struct {
	cfg Config
}

// NewProvider creates a new YouTube provider.
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) Name() string {
	return name
}

// Open checks that the token belongs to a user with a channel.
func (p *Provider) Open(ctx context.Context, token string) (ports.Catalog, error) {
	opts := p.cfg.HTTP
	opts.Provider = name
	opts.Token = token
	if opts.Logger == nil {
		opts.Logger = p.cfg.Logger
	}

	c := &Catalog{
		client:     httpx.NewClient(opts),
		baseURL:    p.cfg.BaseURL,
		present:    idset.NewRegistry(),
		pageTokens: make(map[string][]string),
		logger:     p.cfg.Logger.With("provider", name),
	}

	var resp channelListResponse
	if err := c.doGet(ctx, "/channels", url.Values{"part": {"id"}, "mine": {"true"}}, &resp); err != nil {
		return nil, fmt.Errorf("youtube: failed to get channel: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, &domain.ProviderError{Provider: name, Kind: domain.KindUnauthorized, Message: "token has no channel"}
	}
	c.channelID = resp.Items[0].ID
	return c, nil
}

// Catalog is a YouTube session bound to one user's token.
type Catalog struct {
	client    *http.Client
	baseURL   string
	channelID string
	present   *idset.Registry
	logger    *log.Logger

	// pageTokens[playlistID][n] is the token of page n; page 0 has "".
	mu         sync.Mutex
	pageTokens map[string][]string
}

func (c *Catalog) Name() string {
	return name
}

func (c *Catalog) BatchSize() int {
	return maxBatch
}

// -- API response types (internal) ------------------------------------------

type channelListResponse struct {
	Items []struct {
		ID string `json:"id"`
	} `json:"items"`
}

type pageInfo struct {
	TotalResults int `json:"totalResults"`
}

type playlistListResponse struct {
	Items         []playlistResource `json:"items"`
	NextPageToken string             `json:"nextPageToken"`
}

type playlistResource struct {
	ID             string          `json:"id"`
	Snippet        playlistSnippet `json:"snippet"`
	ContentDetails struct {
		ItemCount int `json:"itemCount"`
	} `json:"contentDetails"`
}

type playlistSnippet struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle"`
}

type playlistItemsResponse struct {
	Items         []playlistItemResource `json:"items"`
	NextPageToken string                 `json:"nextPageToken"`
	PageInfo      pageInfo               `json:"pageInfo"`
}

type playlistItemResource struct {
	Snippet playlistItemSnippet `json:"snippet"`
}

type playlistItemSnippet struct {
	Title                  string     `json:"title"`
	VideoOwnerChannelTitle string     `json:"videoOwnerChannelTitle"`
	ResourceID             resourceID `json:"resourceId"`
}

type resourceID struct {
	Kind    string `json:"kind,omitempty"`
	VideoID string `json:"videoId"`
}

type searchListResponse struct {
	Items []searchResult `json:"items"`
}

type searchResult struct {
	ID      searchResultID `json:"id"`
	Snippet searchSnippet  `json:"snippet"`
}

type searchResultID struct {
	VideoID string `json:"videoId"`
}

type searchSnippet struct {
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
}

// -- Catalog implementation --------------------------------------------------

func (c *Catalog) FetchPlaylists(ctx context.Context) ([]domain.Playlist, error) {
	var playlists []domain.Playlist
	pageToken := ""

	for {
		q := url.Values{
			"part":       {"snippet,contentDetails"},
			"mine":       {"true"},
			"maxResults": {strconv.Itoa(maxResults)},
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var resp playlistListResponse
		if err := c.doGet(ctx, "/playlists", q, &resp); err != nil {
			return nil, fmt.Errorf("youtube: failed to get playlists: %w", err)
		}

		for _, item := range resp.Items {
			playlists = append(playlists, domain.Playlist{
				ID:          item.ID,
				Name:        item.Snippet.Title,
				Description: item.Snippet.Description,
				OwnerName:   item.Snippet.ChannelTitle,
				TrackCount:  item.ContentDetails.ItemCount,
			})
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return playlists, nil
}

// FetchTracks returns page n of a playlist. The Data API only pages by
// token, so earlier pages are walked once and their tokens remembered.
func (c *Catalog) FetchTracks(ctx context.Context, playlistID string, page int) (domain.TrackPage, error) {
	if page < 0 {
		page = 0
	}

	token, ok, err := c.pageToken(ctx, playlistID, page)
	if err != nil {
		return domain.TrackPage{}, err
	}
	if !ok {
		return domain.TrackPage{Tracks: []domain.TrackRef{}}, nil
	}

	resp, err := c.fetchItems(ctx, playlistID, token, maxResults)
	if err != nil {
		return domain.TrackPage{}, err
	}
	c.rememberToken(playlistID, page+1, resp.NextPageToken)

	return domain.TrackPage{
		Tracks:  toTracks(resp.Items),
		HasMore: resp.NextPageToken != "",
	}, nil
}

// FetchLiked reads the liked-videos playlist. Offsets are resolved by
// walking pages from the start.
func (c *Catalog) FetchLiked(ctx context.Context, limit, offset int) (domain.LikedPage, error) {
	if limit <= 0 || limit > maxResults {
		limit = maxResults
	}
	if offset < 0 {
		offset = 0
	}

	var (
		all       []domain.TrackRef
		total     int
		token     string
		exhausted bool
	)
	for len(all) < offset+limit {
		resp, err := c.fetchItems(ctx, likedPlaylist, token, maxResults)
		if err != nil {
			return domain.LikedPage{}, err
		}
		total = resp.PageInfo.TotalResults
		all = append(all, toTracks(resp.Items)...)
		if resp.NextPageToken == "" {
			exhausted = true
			break
		}
		token = resp.NextPageToken
	}

	if offset >= len(all) {
		return domain.LikedPage{Tracks: []domain.TrackRef{}, Total: total, NextOffset: offset}, nil
	}
	end := min(offset+limit, len(all))
	return domain.LikedPage{
		Tracks:     all[offset:end],
		Total:      total,
		HasMore:    end < len(all) || !exhausted,
		NextOffset: end,
	}, nil
}

func (c *Catalog) Search(ctx context.Context, query domain.TrackRef) ([]domain.TrackRef, error) {
	terms := strings.TrimSpace(query.Title + " " + query.PrimaryArtist())
	if terms == "" {
		return []domain.TrackRef{}, nil
	}

	q := url.Values{
		"part":            {"snippet"},
		"type":            {"video"},
		"videoCategoryId": {"10"},
		"maxResults":      {strconv.Itoa(searchLimit)},
		"q":               {terms},
	}

	var resp searchListResponse
	if err := c.doGet(ctx, "/search", q, &resp); err != nil {
		return nil, fmt.Errorf("youtube: search failed: %w", err)
	}

	out := make([]domain.TrackRef, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		out = append(out, videoTrack(item.ID.VideoID, item.Snippet.Title, item.Snippet.ChannelTitle))
	}
	return out, nil
}

func (c *Catalog) CreatePlaylist(ctx context.Context, title, description string) (string, error) {
	payload := map[string]any{
		"snippet": map[string]string{
			"title":       title,
			"description": description,
		},
		"status": map[string]string{
			"privacyStatus": "private",
		},
	}

	var resp struct {
		ID string `json:"id"`
	}
	q := url.Values{"part": {"snippet,status"}}
	if err := c.doSend(ctx, http.MethodPost, "/playlists", q, payload, &resp); err != nil {
		return "", &domain.WriteError{Op: "youtube: create playlist", Err: err}
	}

	c.present.For(resp.ID, emptyLoader)
	return resp.ID, nil
}

// AddTracks inserts videos one at a time via playlistItems.insert.
func (c *Catalog) AddTracks(ctx context.Context, playlistID string, trackIDs []string) (int, error) {
	set := c.present.For(playlistID, c.playlistVideoIDs(playlistID))
	missing, err := set.Missing(ctx, trackIDs)
	if err != nil {
		return 0, fmt.Errorf("youtube: failed to read playlist %s: %w", playlistID, err)
	}

	added := 0
	for i, videoID := range missing {
		payload := map[string]any{
			"snippet": map[string]any{
				"playlistId": playlistID,
				"resourceId": resourceID{Kind: "youtube#video", VideoID: videoID},
			},
		}

		q := url.Values{"part": {"snippet"}}
		if err := c.doSend(ctx, http.MethodPost, "/playlistItems", q, payload, nil); err != nil {
			return added, &domain.WriteError{Op: "youtube: add video " + videoID, Err: err, Pending: missing[i:]}
		}
		set.Add(videoID)
		added++
	}

	return added, nil
}

// AddToLikes rates each video as liked.
func (c *Catalog) AddToLikes(ctx context.Context, trackIDs []string) (int, error) {
	set := c.present.For(likesKey, c.playlistVideoIDs(likedPlaylist))
	missing, err := set.Missing(ctx, trackIDs)
	if err != nil {
		return 0, fmt.Errorf("youtube: failed to read liked videos: %w", err)
	}

	added := 0
	for i, videoID := range missing {
		q := url.Values{"id": {videoID}, "rating": {"like"}}
		if err := c.doSend(ctx, http.MethodPost, "/videos/rate", q, nil, nil); err != nil {
			return added, &domain.WriteError{Op: "youtube: like video " + videoID, Err: err, Pending: missing[i:]}
		}
		set.Add(videoID)
		added++
	}

	return added, nil
}

func (c *Catalog) DeletePlaylist(ctx context.Context, playlistID string) error {
	if err := c.doSend(ctx, http.MethodDelete, "/playlists", url.Values{"id": {playlistID}}, nil, nil); err != nil {
		return fmt.Errorf("youtube: failed to delete playlist %s: %w", playlistID, err)
	}
	c.present.Forget(playlistID)

	c.mu.Lock()
	delete(c.pageTokens, playlistID)
	c.mu.Unlock()
	return nil
}

// -- Paging ------------------------------------------------------------------

func (c *Catalog) fetchItems(ctx context.Context, playlistID, pageToken string, size int) (*playlistItemsResponse, error) {
	q := url.Values{
		"part":       {"snippet"},
		"playlistId": {playlistID},
		"maxResults": {strconv.Itoa(size)},
	}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	var resp playlistItemsResponse
	if err := c.doGet(ctx, "/playlistItems", q, &resp); err != nil {
		return nil, fmt.Errorf("youtube: failed to get playlist items: %w", err)
	}
	return &resp, nil
}

// pageToken returns the token of page n, walking forward from the last
// known page. ok is false when the playlist has fewer pages.
func (c *Catalog) pageToken(ctx context.Context, playlistID string, page int) (string, bool, error) {
	if page == 0 {
		return "", true, nil
	}

	for {
		c.mu.Lock()
		tokens := c.pageTokens[playlistID]
		c.mu.Unlock()

		if page < len(tokens) {
			return tokens[page], tokens[page] != "", nil
		}
		last := len(tokens) - 1
		if last < 0 {
			last = 0
			tokens = []string{""}
		}
		if last > 0 && tokens[last] == "" {
			return "", false, nil
		}

		resp, err := c.fetchItems(ctx, playlistID, tokens[last], maxResults)
		if err != nil {
			return "", false, err
		}
		c.rememberToken(playlistID, last+1, resp.NextPageToken)
		if resp.NextPageToken == "" {
			return "", false, nil
		}
	}
}

func (c *Catalog) rememberToken(playlistID string, page int, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tokens := c.pageTokens[playlistID]
	if len(tokens) == 0 {
		tokens = []string{""}
	}
	if page == len(tokens) {
		tokens = append(tokens, token)
	}
	c.pageTokens[playlistID] = tokens
}

func emptyLoader(context.Context) ([]string, error) { return nil, nil }

func (c *Catalog) playlistVideoIDs(playlistID string) idset.Loader {
	return func(ctx context.Context) ([]string, error) {
		var ids []string
		token := ""
		for {
			resp, err := c.fetchItems(ctx, playlistID, token, maxResults)
			if err != nil {
				return nil, err
			}
			for _, item := range resp.Items {
				ids = append(ids, item.Snippet.ResourceID.VideoID)
			}
			if resp.NextPageToken == "" {
				return ids, nil
			}
			token = resp.NextPageToken
		}
	}
}

// -- HTTP helpers ------------------------------------------------------------

func (c *Catalog) endpoint(path string, q url.Values) string {
	if len(q) == 0 {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + q.Encode()
}

func (c *Catalog) doGet(ctx context.Context, path string, q url.Values, out any) error {
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

func (c *Catalog) doSend(ctx context.Context, method, path string, q url.Values, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return httpx.WrapTransportError(name, err)
	}
	defer resp.Body.Close()

	if err := httpx.CheckResponse(name, resp); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// -- Helpers -----------------------------------------------------------------

func toTracks(items []playlistItemResource) []domain.TrackRef {
	tracks := make([]domain.TrackRef, 0, len(items))
	for _, item := range items {
		if item.Snippet.ResourceID.VideoID == "" {
			continue
		}
		tracks = append(tracks, videoTrack(item.Snippet.ResourceID.VideoID, item.Snippet.Title, item.Snippet.VideoOwnerChannelTitle))
	}
	return tracks
}

// videoTrack builds a TrackRef from video metadata. Playlist items and
// search results only carry a title and channel, so the track name and
// artist are parsed from the title heuristically.
func videoTrack(videoID, title, channel string) domain.TrackRef {
	name, artist := parseVideoTitle(title)
	if name == "" {
		name = title
	}
	if artist == "" {
		artist = strings.TrimSpace(strings.TrimSuffix(channel, " - Topic"))
	}

	var artists []string
	if artist != "" {
		artists = []string{artist}
	}
	return domain.TrackRef{
		Title:      name,
		Artist:     artist,
		Artists:    artists,
		ExternalID: videoID,
	}
}

// parseVideoTitle attempts to split a YouTube video title into track name and
// artist. Common formats: "Artist - Track", "Artist - Track (Official Video)".
func parseVideoTitle(title string) (name, artist string) {
	suffixes := []string{
		"(Official Video)", "(Official Music Video)", "(Official Audio)",
		"(Lyric Video)", "(Lyrics)", "(Audio)", "[Official Video]",
		"[Official Music Video]", "[Official Audio]", "(HD)", "(HQ)",
	}
	cleaned := title
	for _, suffix := range suffixes {
		cleaned = strings.TrimSpace(strings.Replace(cleaned, suffix, "", 1))
	}

	parts := strings.SplitN(cleaned, " - ", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[0])
	}

	return cleaned, ""
}
