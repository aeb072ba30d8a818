package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpp0ca/tunebridge/internal/domain"
)

// fakeYouTube serves playlist items in pages of two.
type fakeYouTube struct {
	mu       sync.Mutex
	items    map[string][]string
	inserted []string
	rated    []string
	deleted  []string
	reads    int
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeYouTube) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /channels", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]any{"error": map[string]any{"code": 401, "message": "Invalid Credentials"}})
			return
		}
		writeJSON(w, map[string]any{"items": []map[string]any{{"id": "UC1"}}})
	})

	mux.HandleFunc("GET /playlists", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"items": []map[string]any{{
			"id":             "PL1",
			"snippet":        map[string]any{"title": "Mix", "channelTitle": "Me"},
			"contentDetails": map[string]any{"itemCount": 3},
		}}})
	})

	mux.HandleFunc("GET /playlistItems", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.reads++
		ids := f.items[r.URL.Query().Get("playlistId")]
		f.mu.Unlock()

		start := 0
		if tok := r.URL.Query().Get("pageToken"); tok != "" {
			_, _ = fmt.Sscanf(tok, "p%d", &start)
		}
		end := min(start+2, len(ids))
		var items []map[string]any
		for _, id := range ids[start:end] {
			items = append(items, map[string]any{"snippet": map[string]any{
				"title":                  "Artist " + id + " - Song " + id + " (Official Video)",
				"videoOwnerChannelTitle": "Channel",
				"resourceId":             map[string]any{"kind": "youtube#video", "videoId": id},
			}})
		}
		resp := map[string]any{"items": items, "pageInfo": map[string]any{"totalResults": len(ids)}}
		if end < len(ids) {
			resp["nextPageToken"] = fmt.Sprintf("p%d", end)
		}
		writeJSON(w, resp)
	})

	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"items": []map[string]any{
			{"id": map[string]any{"videoId": "v1"}, "snippet": map[string]any{"title": "Hey Jude", "channelTitle": "The Beatles - Topic"}},
			{"id": map[string]any{"channelId": "c"}, "snippet": map[string]any{"title": "channel"}},
		}})
	})

	mux.HandleFunc("POST /playlists", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "PLNEW"})
	})

	mux.HandleFunc("POST /playlistItems", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Snippet struct {
				PlaylistID string     `json:"playlistId"`
				ResourceID resourceID `json:"resourceId"`
			} `json:"snippet"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		if body.Snippet.ResourceID.VideoID == "bad" {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]any{"error": map[string]any{"code": 404, "message": "Video not found."}})
			return
		}
		f.inserted = append(f.inserted, body.Snippet.ResourceID.VideoID)
		writeJSON(w, map[string]any{"id": "item"})
	})

	mux.HandleFunc("POST /videos/rate", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.rated = append(f.rated, r.URL.Query().Get("id"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("DELETE /playlists", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.deleted = append(f.deleted, r.URL.Query().Get("id"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func setup(t *testing.T) (*fakeYouTube, *Catalog) {
	t.Helper()
	f := &fakeYouTube{items: map[string][]string{
		"PL1": {"a", "b", "c"},
		"LL":  {"x"},
	}}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	c, err := NewProvider(Config{BaseURL: srv.URL}).Open(context.Background(), "good")
	require.NoError(t, err)
	return f, c.(*Catalog)
}

func TestOpen_InvalidToken(t *testing.T) {
	srv := httptest.NewServer((&fakeYouTube{}).handler())
	defer srv.Close()

	_, err := NewProvider(Config{BaseURL: srv.URL}).Open(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Contains(t, err.Error(), "Invalid Credentials")
}

func TestFetchPlaylists(t *testing.T) {
	_, c := setup(t)

	playlists, err := c.FetchPlaylists(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Playlist{{ID: "PL1", Name: "Mix", OwnerName: "Me", TrackCount: 3}}, playlists)
}

func TestFetchTracks_PagesByToken(t *testing.T) {
	f, c := setup(t)

	first, err := c.FetchTracks(context.Background(), "PL1", 0)
	require.NoError(t, err)
	assert.True(t, first.HasMore)
	require.Len(t, first.Tracks, 2)
	assert.Equal(t, domain.TrackRef{Title: "Song a", Artist: "Artist a", Artists: []string{"Artist a"}, ExternalID: "a"}, first.Tracks[0])

	second, err := c.FetchTracks(context.Background(), "PL1", 1)
	require.NoError(t, err)
	assert.False(t, second.HasMore)
	require.Len(t, second.Tracks, 1)
	assert.Equal(t, "c", second.Tracks[0].ExternalID)
	assert.Equal(t, 2, f.reads, "page 1 token is reused from page 0")

	past, err := c.FetchTracks(context.Background(), "PL1", 5)
	require.NoError(t, err)
	assert.Empty(t, past.Tracks)
	assert.False(t, past.HasMore)
}

func TestFetchTracks_ColdPageWalksForward(t *testing.T) {
	_, c := setup(t)

	page, err := c.FetchTracks(context.Background(), "PL1", 1)
	require.NoError(t, err)
	require.Len(t, page.Tracks, 1)
	assert.Equal(t, "c", page.Tracks[0].ExternalID)
}

func TestFetchLiked_Offset(t *testing.T) {
	f, c := setup(t)
	f.items["LL"] = []string{"l1", "l2", "l3", "l4", "l5"}

	page, err := c.FetchLiked(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Tracks, 2)
	assert.Equal(t, "l2", page.Tracks[0].ExternalID)
	assert.Equal(t, "l3", page.Tracks[1].ExternalID)

	page, err = c.FetchLiked(context.Background(), 50, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Tracks)
	assert.False(t, page.HasMore)
}

func TestSearch_TrimsTopicChannel(t *testing.T) {
	_, c := setup(t)

	got, err := c.Search(context.Background(), domain.TrackRef{Title: "Hey Jude", Artist: "The Beatles"})
	require.NoError(t, err)
	require.Len(t, got, 1, "non-video results are dropped")
	assert.Equal(t, "Hey Jude", got[0].Title)
	assert.Equal(t, "The Beatles", got[0].Artist)
	assert.Equal(t, "v1", got[0].ExternalID)
}

func TestAddTracks_SkipsExistingAndStopsOnFailure(t *testing.T) {
	f, c := setup(t)

	added, err := c.AddTracks(context.Background(), "PL1", []string{"a", "d", "bad", "e"})
	require.Error(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"d"}, f.inserted)

	var we *domain.WriteError
	require.ErrorAs(t, err, &we)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, []string{"bad", "e"}, we.Pending)
	assert.Equal(t, 1, c.BatchSize())
}

func TestCreatePlaylist(t *testing.T) {
	f, c := setup(t)

	id, err := c.CreatePlaylist(context.Background(), "New", "desc")
	require.NoError(t, err)
	assert.Equal(t, "PLNEW", id)

	added, err := c.AddTracks(context.Background(), id, []string{"z"})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"z"}, f.inserted)
}

func TestAddToLikes(t *testing.T) {
	f, c := setup(t)

	added, err := c.AddToLikes(context.Background(), []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"y"}, f.rated)
}

func TestDeletePlaylist(t *testing.T) {
	f, c := setup(t)

	require.NoError(t, c.DeletePlaylist(context.Background(), "PL1"))
	assert.Equal(t, []string{"PL1"}, f.deleted)
}

func TestParseVideoTitle(t *testing.T) {
	tests := []struct {
		title      string
		wantName   string
		wantArtist string
	}{
		{"Queen - Bohemian Rhapsody (Official Video)", "Bohemian Rhapsody", "Queen"},
		{"Daft Punk - Get Lucky [Official Audio]", "Get Lucky", "Daft Punk"},
		{"Just A Title (HD)", "Just A Title", ""},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			name, artist := parseVideoTitle(tt.title)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArtist, artist)
		})
	}
}
