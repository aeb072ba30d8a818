package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpp0ca/tunebridge/internal/adapters"
	"github.com/jpp0ca/tunebridge/internal/domain"
	"github.com/jpp0ca/tunebridge/internal/ports"
)

// -- Mock catalog ------------------------------------------------------------

// mockCatalog is an in-memory catalog. Playlist pages hold two tracks, writes
// skip IDs already present and every mutation is recorded.
type mockCatalog struct {
	name      string
	batchSize int

	mu            sync.Mutex
	playlists     map[string][]domain.TrackRef
	liked         []domain.TrackRef
	searchResults map[string][]domain.TrackRef
	searchErrs    map[string]error
	searchDelay   time.Duration
	createErr     error
	deleteErr     error
	addErrs       map[int]error // by 1-based AddTracks/AddToLikes call
	// partialAdds writes the first n IDs of a failing call before its error.
	partialAdds map[int]int
	// onAdd runs at the start of every AddTracks/AddToLikes call.
	onAdd func()
	// gapPages inserts an empty page with HasMore set at the given index,
	// as adapters return when every item of a page was filtered out.
	gapPages map[string]int
	// likedVideos is a count of non-track items ahead of liked.
	likedVideos int

	searchCount int
	addCalls    int
	mutations   []string
	created     int

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newMockCatalog(name string) *mockCatalog {
	return &mockCatalog{
		name:          name,
		batchSize:     100,
		playlists:     map[string][]domain.TrackRef{},
		searchResults: map[string][]domain.TrackRef{},
		searchErrs:    map[string]error{},
		addErrs:       map[int]error{},
		partialAdds:   map[int]int{},
		gapPages:      map[string]int{},
	}
}

func key(title, artist string) string { return title + "|" + artist }

// offer makes track findable by a search for src.
func (m *mockCatalog) offer(src domain.TrackRef, track domain.TrackRef) {
	k := key(src.Title, src.Artist)
	m.searchResults[k] = append(m.searchResults[k], track)
}

func (m *mockCatalog) Name() string   { return m.name }
func (m *mockCatalog) BatchSize() int { return m.batchSize }

func (m *mockCatalog) FetchPlaylists(_ context.Context) ([]domain.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Playlist
	for id, tracks := range m.playlists {
		out = append(out, domain.Playlist{ID: id, Name: id, TrackCount: len(tracks)})
	}
	slices.SortFunc(out, func(a, b domain.Playlist) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *mockCatalog) FetchTracks(_ context.Context, playlistID string, page int) (domain.TrackPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tracks, ok := m.playlists[playlistID]
	if !ok {
		return domain.TrackPage{}, &domain.ProviderError{Provider: m.name, Kind: domain.KindNotFound, StatusCode: 404}
	}
	if gap, ok := m.gapPages[playlistID]; ok {
		switch {
		case page == gap:
			return domain.TrackPage{Tracks: []domain.TrackRef{}, HasMore: true}, nil
		case page > gap:
			page--
		}
	}
	start := min(page*2, len(tracks))
	end := min(start+2, len(tracks))
	return domain.TrackPage{Tracks: slices.Clone(tracks[start:end]), HasMore: end < len(tracks)}, nil
}

func (m *mockCatalog) FetchLiked(_ context.Context, limit, offset int) (domain.LikedPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw := m.likedVideos + len(m.liked)
	start := min(offset, raw)
	end := min(start+limit, raw)
	return domain.LikedPage{
		Tracks:     slices.Clone(m.liked[max(start-m.likedVideos, 0):max(end-m.likedVideos, 0)]),
		Total:      raw,
		HasMore:    end < raw,
		NextOffset: end,
	}, nil
}

func (m *mockCatalog) Search(ctx context.Context, q domain.TrackRef) ([]domain.TrackRef, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		cur := m.maxInFlight.Load()
		if n <= cur || m.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if m.searchDelay > 0 {
		select {
		case <-time.After(m.searchDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCount++
	if err, ok := m.searchErrs[q.Title]; ok {
		return nil, err
	}
	return slices.Clone(m.searchResults[key(q.Title, q.Artist)]), nil
}

func (m *mockCatalog) CreatePlaylist(_ context.Context, name, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	m.created++
	id := fmt.Sprintf("new-%d", m.created)
	m.playlists[id] = []domain.TrackRef{}
	m.mutations = append(m.mutations, "create:"+name)
	return id, nil
}

func (m *mockCatalog) add(existing []domain.TrackRef, ids []string) ([]domain.TrackRef, int) {
	added := 0
	for _, id := range ids {
		if slices.ContainsFunc(existing, func(t domain.TrackRef) bool { return t.ExternalID == id }) {
			continue
		}
		existing = append(existing, domain.TrackRef{ExternalID: id})
		added++
	}
	return existing, added
}

// write applies one add call to dest. A configured failure may first write a
// prefix of ids and then reports the rest as pending.
func (m *mockCatalog) write(ctx context.Context, dest *[]domain.TrackRef, ids []string) (int, error) {
	if m.onAdd != nil {
		m.onAdd()
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addCalls++
	if err := m.addErrs[m.addCalls]; err != nil {
		k, ok := m.partialAdds[m.addCalls]
		if !ok {
			return 0, err
		}
		var n int
		*dest, n = m.add(*dest, ids[:k])
		return n, &domain.WriteError{Op: "add", Err: err, Pending: ids[k:]}
	}
	var n int
	*dest, n = m.add(*dest, ids)
	return n, nil
}

func (m *mockCatalog) AddTracks(ctx context.Context, playlistID string, ids []string) (int, error) {
	m.mu.Lock()
	m.mutations = append(m.mutations, fmt.Sprintf("add:%s:%d", playlistID, len(ids)))
	tracks := m.playlists[playlistID]
	m.mu.Unlock()

	n, err := m.write(ctx, &tracks, ids)
	m.mu.Lock()
	m.playlists[playlistID] = tracks
	m.mu.Unlock()
	return n, err
}

func (m *mockCatalog) AddToLikes(ctx context.Context, ids []string) (int, error) {
	m.mu.Lock()
	m.mutations = append(m.mutations, fmt.Sprintf("like:%d", len(ids)))
	liked := m.liked
	m.mu.Unlock()

	n, err := m.write(ctx, &liked, ids)
	m.mu.Lock()
	m.liked = liked
	m.mu.Unlock()
	return n, err
}

func (m *mockCatalog) DeletePlaylist(_ context.Context, playlistID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutations = append(m.mutations, "delete:"+playlistID)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.playlists, playlistID)
	return nil
}

func (m *mockCatalog) playlistIDs(playlistID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, t := range m.playlists[playlistID] {
		ids = append(ids, t.ExternalID)
	}
	return ids
}

// mockProvider opens its catalog for any token except a configured error.
type mockProvider struct {
	catalog *mockCatalog
	openErr error
}

func (p *mockProvider) Name() string { return p.catalog.name }

func (p *mockProvider) Open(_ context.Context, _ string) (ports.Catalog, error) {
	if p.openErr != nil {
		return nil, p.openErr
	}
	return p.catalog, nil
}

// memStore is a JobStore kept in a map.
type memStore struct {
	mu   sync.Mutex
	jobs map[string]domain.JobRecord
	err  error
}

func (s *memStore) Save(_ context.Context, rec domain.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.jobs[rec.ID] = rec
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (*domain.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

type fixture struct {
	svc    *Service
	source *mockCatalog
	dest   *mockCatalog
	srcP   *mockProvider
	destP  *mockProvider
	store  *memStore
}

func newFixture(t *testing.T, workers int) *fixture {
	t.Helper()
	f := &fixture{
		source: newMockCatalog("source"),
		dest:   newMockCatalog("dest"),
		store:  &memStore{jobs: map[string]domain.JobRecord{}},
	}
	f.srcP = &mockProvider{catalog: f.source}
	f.destP = &mockProvider{catalog: f.dest}

	registry := adapters.NewProviderRegistry()
	registry.Register(f.srcP)
	registry.Register(f.destP)
	f.svc = NewService(registry, Options{
		Workers:       workers,
		MinConfidence: DefaultMinConfidence,
		Store:         f.store,
	})
	return f
}

func creds() domain.MigrationRequest {
	return domain.MigrationRequest{
		SourceProvider: "source", SourceToken: "src-token",
		DestProvider: "dest", DestToken: "dest-token",
	}
}

// exactMatch makes src findable on dest under id.
func (f *fixture) exactMatch(src domain.TrackRef, id string) {
	f.dest.offer(src, domain.TrackRef{Title: src.Title, Artist: src.Artist, ExternalID: id})
}

// assertCounts checks the counting invariants every result must hold.
func assertCounts(t *testing.T, res *domain.MigrationResult) {
	t.Helper()
	require.NotNil(t, res)
	assert.Equal(t, res.TotalTracks, res.Migrated+res.NotFound+res.WriteFailed)
	assert.Len(t, res.TrackResults, res.TotalTracks)
	assert.Len(t, res.NotFoundTracks, res.NotFound)
	assert.Equal(t, res.Migrated > 0, res.Success, "success iff something was written")
}

// -- Tests -------------------------------------------------------------------

func TestMigratePlaylist_AllMatched(t *testing.T) {
	f := newFixture(t, 2)
	tracks := []domain.TrackRef{
		{Title: "Bohemian Rhapsody", Artist: "Queen", ExternalID: "s1"},
		{Title: "Stairway to Heaven", Artist: "Led Zeppelin", ExternalID: "s2"},
		{Title: "Hotel California", Artist: "Eagles", ExternalID: "s3"},
	}
	f.source.playlists["pl-1"] = tracks
	for i, tr := range tracks {
		f.exactMatch(tr, fmt.Sprintf("d%d", i+1))
	}

	res, err := f.svc.MigratePlaylist(context.Background(), domain.MigratePlaylistRequest{
		MigrationRequest: creds(),
		PlaylistID:       "pl-1",
		PlaylistName:     "Road Trip",
	})
	require.NoError(t, err)
	assertCounts(t, res)

	assert.Equal(t, domain.JobCompleted, res.Status)
	assert.Equal(t, 3, res.TotalTracks)
	assert.Equal(t, 3, res.Migrated)
	assert.Empty(t, res.NotFoundTracks)
	assert.Equal(t, "new-1", res.DestinationPlaylistID)
	assert.Equal(t, "Road Trip", res.DestinationPlaylistName)
	assert.Equal(t, []string{"d1", "d2", "d3"}, f.dest.playlistIDs("new-1"))

	for i, o := range res.TrackResults {
		assert.Equal(t, tracks[i], o.Source, "outcomes keep source order")
		assert.Equal(t, 1.0, o.ConfidenceScore)
	}
}

func TestMigratePlaylist_DefaultName(t *testing.T) {
	f := newFixture(t, 1)
	src := domain.TrackRef{Title: "Song", Artist: "Band"}
	f.source.playlists["pl"] = []domain.TrackRef{src}
	f.exactMatch(src, "d1")

	res, err := f.svc.MigratePlaylist(context.Background(), domain.MigratePlaylistRequest{
		MigrationRequest: creds(),
		PlaylistID:       "pl",
	})
	require.NoError(t, err)
	assert.Equal(t, "Migrated from source", res.DestinationPlaylistName)
	assert.Equal(t, []string{"create:Migrated from source", "add:new-1:1"}, f.dest.mutations)
}

func TestMigrateTracks_PartialMatchToFavorites(t *testing.T) {
	f := newFixture(t, 4)
	songA := domain.TrackRef{Title: "Song A", Artist: "Artist X"}
	f.exactMatch(songA, "a-id")

	res, err := f.svc.MigrateTracks(context.Background(), domain.MigrateTracksRequest{
		MigrationRequest: creds(),
		Tracks: []domain.TrackInput{
			{Name: "Song A", Artist: "Artist X"},
			{Name: "Song B", Artist: "Artist Y"},
		},
		Target: domain.Favorites(),
	})
	require.NoError(t, err)
	assertCounts(t, res)

	assert.True(t, res.Success)
	assert.Equal(t, domain.JobPartiallyFailed, res.Status)
	assert.Equal(t, 1, res.Migrated)
	assert.Equal(t, 1, res.NotFound)
	assert.Equal(t, []domain.TrackRef{{Title: "Song B", Artist: "Artist Y"}}, res.NotFoundTracks)
	assert.Equal(t, []string{"like:1"}, f.dest.mutations)
	require.Len(t, f.dest.liked, 1)
	assert.Equal(t, "a-id", f.dest.liked[0].ExternalID)
	assert.Zero(t, f.source.searchCount, "the source catalog is not consulted")
}

func TestMigrate_EmptySource(t *testing.T) {
	f := newFixture(t, 2)
	f.source.playlists["empty"] = nil

	res, err := f.svc.MigratePlaylist(context.Background(), domain.MigratePlaylistRequest{
		MigrationRequest: creds(),
		PlaylistID:       "empty",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.JobCompleted, res.Status)
	assert.Zero(t, res.TotalTracks)
	assert.Zero(t, res.Migrated)
	assert.Empty(t, res.NotFoundTracks)
	assert.Empty(t, f.dest.mutations)
	assert.Zero(t, f.dest.searchCount)
}

func TestMigrate_NothingMatched(t *testing.T) {
	f := newFixture(t, 2)

	res, err := f.svc.MigrateTracks(context.Background(), domain.MigrateTracksRequest{
		MigrationRequest: creds(),
		Tracks:           []domain.TrackInput{{Name: "Ghost", Artist: "Nobody"}, {Name: "Ghost 2", Artist: "Nobody"}},
		Target:           domain.NewPlaylist("Never Created"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNothingMigrated)
	assertCounts(t, res)

	assert.False(t, res.Success)
	assert.Equal(t, domain.JobFailed, res.Status)
	assert.Len(t, res.NotFoundTracks, 2)
	assert.Empty(t, f.dest.mutations, "no playlist is created for zero matches")
}

func TestMigrate_InvalidDestinationCredential(t *testing.T) {
	f := newFixture(t, 2)
	f.destP.openErr = domain.NewProviderError("dest", 401, "token expired")
	src := domain.TrackRef{Title: "Song", Artist: "Band"}
	f.source.playlists["pl"] = []domain.TrackRef{src}
	f.exactMatch(src, "d1")

	res, err := f.svc.MigratePlaylist(context.Background(), domain.MigratePlaylistRequest{
		MigrationRequest: creds(),
		PlaylistID:       "pl",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Equal(t, domain.JobFailed, res.Status)
	assert.Contains(t, res.Error, "token expired")
	assert.Empty(t, f.dest.mutations)
	assert.Zero(t, f.dest.searchCount)
}

func TestMigrate_UnauthorizedSearchAbortsBeforeWriting(t *testing.T) {
	f := newFixture(t, 1)
	var inputs []domain.TrackInput
	for i := range 5 {
		in := domain.TrackInput{Name: fmt.Sprintf("Song %d", i), Artist: "Band"}
		inputs = append(inputs, in)
		f.exactMatch(domain.TrackRef{Title: in.Name, Artist: in.Artist}, fmt.Sprintf("d%d", i))
	}
	f.dest.searchErrs["Song 2"] = domain.NewProviderError("dest", 401, "revoked")

	res, err := f.svc.MigrateTracks(context.Background(), domain.MigrateTracksRequest{
		MigrationRequest: creds(),
		Tracks:           inputs,
		Target:           domain.Favorites(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assertCounts(t, res)

	assert.Equal(t, domain.JobFailed, res.Status)
	assert.Zero(t, res.Migrated)
	assert.Empty(t, f.dest.mutations)
	assert.Equal(t, domain.TrackStatusWriteFailed, res.TrackResults[0].Status, "matched before the abort")
	assert.Contains(t, res.TrackResults[4].Reason, "aborted")
}

func TestMigrate_SearchErrorBecomesNotFound(t *testing.T) {
	f := newFixture(t, 2)
	ok := domain.TrackRef{Title: "Fine", Artist: "Band"}
	f.exactMatch(ok, "d1")
	f.dest.searchErrs["Broken"] = domain.NewProviderError("dest", 500, "boom")

	res, err := f.svc.MigrateTracks(context.Background(), domain.MigrateTracksRequest{
		MigrationRequest: creds(),
		Tracks:           []domain.TrackInput{{Name: "Fine", Artist: "Band"}, {Name: "Broken", Artist: "Band"}},
		Target:           domain.Favorites(),
	})
	require.NoError(t, err)
	assertCounts(t, res)

	assert.Equal(t, 1, res.Migrated)
	assert.Equal(t, domain.TrackStatusNotFound, res.TrackResults[1].Status)
	assert.Contains(t, res.TrackResults[1].Reason, "boom")
}

func TestMigrate_FailedBatchMarksWriteFailed(t *testing.T) {
	f := newFixture(t, 3)
	f.dest.batchSize = 2
	f.dest.playlists["target"] = nil
	f.dest.addErrs[2] = &domain.WriteError{Op: "add tracks", Err: domain.NewProviderError("dest", 400, "bad ids")}

	var inputs []domain.TrackInput
	for i := range 5 {
		in := domain.TrackInput{Name: fmt.Sprintf("Song %d", i), Artist: "Band"}
		inputs = append(inputs, in)
		f.exactMatch(domain.TrackRef{Title: in.Name, Artist: in.Artist}, fmt.Sprintf("d%d", i))
	}

	res, err := f.svc.MigrateTracks(context.Background(), domain.MigrateTracksRequest{
		MigrationRequest: creds(),
		Tracks:           inputs,
		Target:           domain.ExistingPlaylist("target"),
	})
	require.NoError(t, err)
	assertCounts(t, res)

	assert.Equal(t, domain.JobPartiallyFailed, res.Status)
	assert.Equal(t, 3, res.Migrated)
	assert.Equal(t, 2, res.WriteFailed)
	assert.Equal(t, []domain.TrackRef{{Title: "Song 2", Artist: "Band"}, {Title: "Song 3", Artist: "Band"}}, res.WriteFailedTracks)
	assert.Contains(t, res.TrackResults[2].Reason, "bad ids")
	assert.Equal(t, []string{"add:target:2", "add:target:2", "add:target:1"}, f.dest.mutations)
	assert.Equal(t, []string{"d0", "d1", "d4"}, f.dest.playlistIDs("target"))
}

func TestMigrate_PartialWriteKeepsWrittenTracks(t *testing.T) {
	f := newFixture(t, 2)
	f.dest.addErrs[1] = domain.NewProviderError("dest", 500, "boom")
	f.dest.partialAdds[1] = 1
	f.exactMatch(domain.TrackRef{Title: "Song A", Artist: "Artist X"}, "id-a")
	f.exactMatch(domain.TrackRef{Title: "Song B", Artist: "Artist Y"}, "id-b")

	res, err := f.svc.MigrateTracks(context.Background(), domain.MigrateTracksRequest{
		MigrationRequest: creds(),
		Tracks:           []domain.TrackInput{{Name: "Song A", Artist: "Artist X"}, {Name: "Song B", Artist: "Artist Y"}},
		Target:           domain.Favorites(),
	})
	require.NoError(t, err)
	assertCounts(t, res)

	assert.Equal(t, domain.JobPartiallyFailed, res.Status)
	assert.Equal(t, 1, res.Migrated)
	assert.Equal(t, 1, res.WriteFailed)
	assert.Equal(t, domain.TrackStatusMigrated, res.TrackResults[0].Status)
	assert.Equal(t, domain.TrackStatusWriteFailed, res.TrackResults[1].Status)
	assert.Equal(t, []domain.TrackRef{{Title: "Song B", Artist: "Artist Y"}}, res.WriteFailedTracks)
	assert.Equal(t, []domain.TrackRef{{ExternalID: "id-a"}}, f.dest.liked)
}

func TestMigrate_CancelDuringWriteFinishesSentBatch(t *testing.T) {
	f := newFixture(t, 2)
	f.dest.batchSize = 2

	var inputs []domain.TrackInput
	for i := range 4 {
		in := domain.TrackInput{Name: fmt.Sprintf("Song %d", i), Artist: "Band"}
		inputs = append(inputs, in)
		f.exactMatch(domain.TrackRef{Title: in.Name, Artist: in.Artist}, fmt.Sprintf("d%d", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.dest.onAdd = cancel

	res, err := f.svc.MigrateTracks(ctx, domain.MigrateTracksRequest{
		MigrationRequest: creds(),
		Tracks:           inputs,
		Target:           domain.Favorites(),
	})
	require.NoError(t, err)
	assertCounts(t, res)

	assert.Equal(t, []string{"like:2"}, f.dest.mutations)
	assert.Equal(t, []domain.TrackRef{{ExternalID: "d0"}, {ExternalID: "d1"}}, f.dest.liked)
	assert.Equal(t, 2, res.Migrated)
	assert.Equal(t, 2, res.WriteFailed)
	assert.Equal(t, "cancelled", res.TrackResults[2].Reason)
	assert.Equal(t, domain.JobPartiallyFailed, res.Status)
	assert.Contains(t, res.Error, "canceled")
}

func TestMigratePlaylist_ReadsPastFilteredPage(t *testing.T) {
	f := newFixture(t, 2)
	var tracks []domain.TrackRef
	for i := range 4 {
		tr := domain.TrackRef{Title: fmt.Sprintf("Song %d", i), Artist: "Band", ExternalID: fmt.Sprintf("s%d", i)}
		tracks = append(tracks, tr)
		f.exactMatch(tr, fmt.Sprintf("d%d", i))
	}
	f.source.playlists["pl-1"] = tracks
	f.source.gapPages["pl-1"] = 1

	res, err := f.svc.MigratePlaylist(context.Background(), domain.MigratePlaylistRequest{
		MigrationRequest: creds(),
		PlaylistID:       "pl-1",
	})
	require.NoError(t, err)
	assertCounts(t, res)
	assert.Equal(t, 4, res.TotalTracks)
	assert.Equal(t, []string{"d0", "d1", "d2", "d3"}, f.dest.playlistIDs(res.DestinationPlaylistID))
}

func TestMigrateLiked_FollowsNextOffset(t *testing.T) {
	f := newFixture(t, 2)
	f.source.likedVideos = 50
	for i := range 2 {
		tr := domain.TrackRef{Title: fmt.Sprintf("Liked %d", i), Artist: "Band", ExternalID: fmt.Sprintf("s%d", i)}
		f.source.liked = append(f.source.liked, tr)
		f.exactMatch(tr, fmt.Sprintf("d%d", i))
	}

	res, err := f.svc.MigrateLiked(context.Background(), domain.MigrateLikedRequest{
		MigrationRequest: creds(),
		Target:           domain.Favorites(),
	})
	require.NoError(t, err)
	assertCounts(t, res)
	assert.Equal(t, 2, res.TotalTracks)
	assert.Equal(t, 2, res.Migrated)
}

func TestMigrate_MissingMetadataReason(t *testing.T) {
	f := newFixture(t, 2)
	f.exactMatch(domain.TrackRef{Title: "Song", Artist: "Band"}, "d1")

	res, err := f.svc.MigrateTracks(context.Background(), domain.MigrateTracksRequest{
		MigrationRequest: creds(),
		Tracks:           []domain.TrackInput{{Name: "Song", Artist: "Band"}, {Name: "Untitled"}},
		Target:           domain.Favorites(),
	})
	require.NoError(t, err)
	assertCounts(t, res)
	assert.Equal(t, domain.TrackStatusNotFound, res.TrackResults[1].Status)
	assert.Equal(t, "missing title or artist", res.TrackResults[1].Reason)
	assert.Equal(t, 1, f.dest.searchCount)
}

func TestMigrate_CreatePlaylistFailure(t *testing.T) {
	f := newFixture(t, 2)
	f.dest.createErr = domain.NewProviderError("dest", 403, "forbidden")
	src := domain.TrackRef{Title: "Song", Artist: "Band"}
	f.exactMatch(src, "d1")

	res, err := f.svc.MigrateTracks(context.Background(), domain.MigrateTracksRequest{
		MigrationRequest: creds(),
		Tracks:           []domain.TrackInput{{Name: "Song", Artist: "Band"}},
		Target:           domain.NewPlaylist("Mine"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assertCounts(t, res)
	assert.Equal(t, 1, res.WriteFailed)
	assert.Contains(t, res.TrackResults[0].Reason, "create playlist")
}

func TestMigrate_RerunIsIdempotent(t *testing.T) {
	f := newFixture(t, 2)
	f.dest.playlists["target"] = nil
	req := domain.MigrateTracksRequest{
		MigrationRequest: creds(),
		Tracks:           []domain.TrackInput{{Name: "One", Artist: "Band"}, {Name: "Two", Artist: "Band"}, {Name: "Lost", Artist: "Band"}},
		Target:           domain.ExistingPlaylist("target"),
	}
	f.exactMatch(domain.TrackRef{Title: "One", Artist: "Band"}, "d1")
	f.exactMatch(domain.TrackRef{Title: "Two", Artist: "Band"}, "d2")

	first, err := f.svc.MigrateTracks(context.Background(), req)
	require.NoError(t, err)
	after := f.dest.playlistIDs("target")

	second, err := f.svc.MigrateTracks(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, after, f.dest.playlistIDs("target"))
	assert.Equal(t, []string{"d1", "d2"}, after)
	assert.Equal(t, first.NotFoundTracks, second.NotFoundTracks)
	assert.Equal(t, first.Migrated, second.Migrated)
	assert.NotEqual(t, first.JobID, second.JobID)
}

func TestMigrate_Cancelled(t *testing.T) {
	f := newFixture(t, 2)
	src := domain.TrackRef{Title: "Song", Artist: "Band"}
	f.exactMatch(src, "d1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.svc.MigrateTracks(ctx, domain.MigrateTracksRequest{
		MigrationRequest: creds(),
		Tracks:           []domain.TrackInput{{Name: "Song", Artist: "Band"}, {Name: "Other", Artist: "Band"}},
		Target:           domain.Favorites(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assertCounts(t, res)
	assert.Equal(t, 2, res.NotFound)
	assert.Equal(t, "cancelled", res.TrackResults[0].Reason)
	assert.Empty(t, f.dest.mutations)
}

func TestMigrate_RespectsWorkerLimit(t *testing.T) {
	f := newFixture(t, 3)
	f.dest.searchDelay = 5 * time.Millisecond

	var inputs []domain.TrackInput
	for i := range 20 {
		in := domain.TrackInput{Name: fmt.Sprintf("Song %d", i), Artist: "Band"}
		inputs = append(inputs, in)
		f.exactMatch(domain.TrackRef{Title: in.Name, Artist: in.Artist}, fmt.Sprintf("d%d", i))
	}

	res, err := f.svc.MigrateTracks(context.Background(), domain.MigrateTracksRequest{
		MigrationRequest: creds(),
		Tracks:           inputs,
		Target:           domain.Favorites(),
	})
	require.NoError(t, err)
	assert.Equal(t, 20, res.Migrated)
	assert.Equal(t, 20, f.dest.searchCount)
	assert.LessOrEqual(t, f.dest.maxInFlight.Load(), int32(3))
	for i, o := range res.TrackResults {
		assert.Equal(t, fmt.Sprintf("d%d", i), o.Matched.ExternalID)
	}
}

func TestMigrateLiked(t *testing.T) {
	f := newFixture(t, 2)
	for i := range 3 {
		tr := domain.TrackRef{Title: fmt.Sprintf("Liked %d", i), Artist: "Band", ExternalID: fmt.Sprintf("s%d", i)}
		f.source.liked = append(f.source.liked, tr)
		f.exactMatch(tr, fmt.Sprintf("d%d", i))
	}

	res, err := f.svc.MigrateLiked(context.Background(), domain.MigrateLikedRequest{
		MigrationRequest: creds(),
		Target:           domain.NewPlaylist("Likes"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, res.Status)
	assert.Equal(t, []string{"d0", "d1", "d2"}, f.dest.playlistIDs(res.DestinationPlaylistID))
}

func TestMigrate_RequestValidation(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.svc.MigrateTracks(context.Background(), domain.MigrateTracksRequest{
		MigrationRequest: creds(),
		Target:           domain.DestinationTarget{Kind: "somewhere"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.svc.MigrateTracks(context.Background(), domain.MigrateTracksRequest{
		MigrationRequest: creds(),
		Target:           domain.ExistingPlaylist(""),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	bad := creds()
	bad.DestProvider = "napster"
	res, err := f.svc.MigrateTracks(context.Background(), domain.MigrateTracksRequest{
		MigrationRequest: bad,
		Target:           domain.Favorites(),
	})
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
	assert.Nil(t, res)

	_, err = f.svc.MigratePlaylist(context.Background(), domain.MigratePlaylistRequest{MigrationRequest: creds()})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestMigrate_RecordsJob(t *testing.T) {
	f := newFixture(t, 1)
	src := domain.TrackRef{Title: "Song", Artist: "Band"}
	f.exactMatch(src, "d1")

	res, err := f.svc.MigrateTracks(context.Background(), domain.MigrateTracksRequest{
		MigrationRequest: creds(),
		Tracks:           []domain.TrackInput{{Name: "Song", Artist: "Band"}},
		Target:           domain.Favorites(),
	})
	require.NoError(t, err)

	rec, err := f.svc.GetJob(context.Background(), res.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobKindMigration, rec.Kind)
	assert.Equal(t, domain.JobCompleted, rec.Status)
	assert.Equal(t, "source", rec.SourceProvider)
	assert.Equal(t, "dest", rec.DestProvider)
	require.NotNil(t, rec.Migration)
	assert.Equal(t, 1, rec.Migration.Migrated)
	assert.False(t, rec.CreatedAt.IsZero())

	_, err = f.svc.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMigrate_StoreFailureDoesNotFailJob(t *testing.T) {
	f := newFixture(t, 1)
	f.store.err = errors.New("disk full")
	src := domain.TrackRef{Title: "Song", Artist: "Band"}
	f.exactMatch(src, "d1")

	res, err := f.svc.MigrateTracks(context.Background(), domain.MigrateTracksRequest{
		MigrationRequest: creds(),
		Tracks:           []domain.TrackInput{{Name: "Song", Artist: "Band"}},
		Target:           domain.Favorites(),
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestListOperations(t *testing.T) {
	f := newFixture(t, 1)
	for i := range 5 {
		f.source.playlists["pl"] = append(f.source.playlists["pl"], domain.TrackRef{Title: fmt.Sprintf("T%d", i), ExternalID: fmt.Sprint(i)})
	}
	f.source.liked = []domain.TrackRef{{Title: "L1"}, {Title: "L2"}, {Title: "L3"}}
	cred := domain.Credential{Provider: "source", Token: "tok"}

	playlists, err := f.svc.ListPlaylists(context.Background(), cred)
	require.NoError(t, err)
	require.Len(t, playlists, 1)
	assert.Equal(t, 5, playlists[0].TrackCount)

	tracks, err := f.svc.ListPlaylistTracks(context.Background(), cred, "pl")
	require.NoError(t, err)
	assert.Len(t, tracks, 5, "all pages are assembled")

	page, err := f.svc.ListLiked(context.Background(), cred, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasMore)
	assert.Equal(t, "L2", page.Tracks[0].Title)

	_, err = f.svc.ListPlaylists(context.Background(), domain.Credential{Provider: "source"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.svc.ListPlaylistTracks(context.Background(), cred, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeletePlaylist(t *testing.T) {
	f := newFixture(t, 1)
	f.source.playlists["pl"] = nil
	cred := domain.Credential{Provider: "source", Token: "tok"}

	res, err := f.svc.DeletePlaylist(context.Background(), cred, "pl")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"delete:pl"}, f.source.mutations)

	f.source.deleteErr = domain.NewProviderError("source", 404, "gone")
	res, err = f.svc.DeletePlaylist(context.Background(), cred, "pl")
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "gone")
}
