package ports

import (
	"context"

	"github.com/jpp0ca/tunebridge/internal/domain"
)

// Provider builds catalog adapters for one streaming service. It is the
// primary driven port of the hexagonal architecture.
type Provider interface {
	// Name returns the provider identifier (e.g., "spotify", "tidal").
	Name() string

	// Open validates the caller's token and returns a catalog bound to it.
	// Each job opens its own catalog; catalogs are never shared between
	// credentials.
	Open(ctx context.Context, token string) (Catalog, error)
}

// Catalog is the capability set every streaming service adapter exposes for
// one authenticated user. Failures are *domain.ProviderError values.
type Catalog interface {
	// Name returns the provider identifier.
	Name() string

	// FetchPlaylists returns every playlist of the user, all pages assembled.
	FetchPlaylists(ctx context.Context) ([]domain.Playlist, error)

	// FetchTracks returns one zero-based page of a playlist's tracks. The page
	// size is fixed per adapter. Items that are not tracks are dropped, so a
	// page may be empty while HasMore is still set.
	FetchTracks(ctx context.Context, playlistID string, page int) (domain.TrackPage, error)

	// FetchLiked returns liked tracks using offset pagination. The next page
	// starts at NextOffset.
	FetchLiked(ctx context.Context, limit, offset int) (domain.LikedPage, error)

	// Search looks tracks up by title and artist, in provider relevance order.
	// It never mutates provider state and returns an empty slice when nothing
	// matches.
	Search(ctx context.Context, query domain.TrackRef) ([]domain.TrackRef, error)

	// CreatePlaylist creates a new playlist and returns its ID.
	CreatePlaylist(ctx context.Context, name, description string) (string, error)

	// AddTracks adds tracks by external ID and returns how many were new.
	// Tracks already in the playlist are skipped without error. A failure
	// after part of the IDs were written is a *domain.WriteError whose
	// Pending lists the rest.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) (int, error)

	// AddToLikes likes tracks by external ID and returns how many were new.
	// Partial failures are reported as for AddTracks.
	AddToLikes(ctx context.Context, trackIDs []string) (int, error)

	// DeletePlaylist removes a playlist owned by the user.
	DeletePlaylist(ctx context.Context, playlistID string) error

	// BatchSize is the largest ID list a single write call accepts.
	BatchSize() int
}

// MigrationService defines the driving port for the migration use cases.
type MigrationService interface {
	ListPlaylists(ctx context.Context, cred domain.Credential) ([]domain.Playlist, error)
	ListPlaylistTracks(ctx context.Context, cred domain.Credential, playlistID string) ([]domain.TrackRef, error)
	ListLiked(ctx context.Context, cred domain.Credential, limit, offset int) (*domain.LikedPage, error)

	// MigratePlaylist copies a source playlist into a new destination playlist.
	MigratePlaylist(ctx context.Context, req domain.MigratePlaylistRequest) (*domain.MigrationResult, error)

	// MigrateTracks copies an explicit track selection to a destination target.
	MigrateTracks(ctx context.Context, req domain.MigrateTracksRequest) (*domain.MigrationResult, error)

	// MigrateLiked copies the source user's whole liked list.
	MigrateLiked(ctx context.Context, req domain.MigrateLikedRequest) (*domain.MigrationResult, error)

	// MergePlaylists merges two playlists on one catalog and deletes the source.
	MergePlaylists(ctx context.Context, req domain.MergeRequest) (*domain.MergeResult, error)

	DeletePlaylist(ctx context.Context, cred domain.Credential, playlistID string) (*domain.DeleteResult, error)

	GetJob(ctx context.Context, id string) (*domain.JobRecord, error)
}

// JobStore records finished jobs.
type JobStore interface {
	Save(ctx context.Context, rec domain.JobRecord) error
	Get(ctx context.Context, id string) (*domain.JobRecord, error)
}
