package domain

// MigrationRequest carries the credentials common to every migration.
type MigrationRequest struct {
	SourceProvider string `json:"source_provider" binding:"required"`
	SourceToken    string `json:"source_token" binding:"required"`
	DestProvider   string `json:"dest_provider" binding:"required"`
	DestToken      string `json:"dest_token" binding:"required"`
}

// Source returns the source credential.
func (r MigrationRequest) Source() Credential {
	return Credential{Provider: r.SourceProvider, Token: r.SourceToken}
}

// Dest returns the destination credential.
func (r MigrationRequest) Dest() Credential {
	return Credential{Provider: r.DestProvider, Token: r.DestToken}
}

// MigratePlaylistRequest migrates a whole source playlist into a new
// destination playlist.
type MigratePlaylistRequest struct {
	MigrationRequest
	PlaylistID   string `json:"playlist_id" binding:"required"`
	PlaylistName string `json:"playlist_name"`
}

// TrackInput is a caller-supplied track of an explicit selection.
type TrackInput struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
}

// MigrateTracksRequest migrates an explicit track selection.
type MigrateTracksRequest struct {
	MigrationRequest
	Tracks []TrackInput       `json:"tracks"`
	Target DestinationTarget `json:"target" binding:"required"`
}

// Refs converts the selection to TrackRefs, preserving order.
func (r MigrateTracksRequest) Refs() []TrackRef {
	refs := make([]TrackRef, len(r.Tracks))
	for i, t := range r.Tracks {
		refs[i] = TrackRef{Title: t.Name, Artist: t.Artist, Album: t.Album}
	}
	return refs
}

// MigrateLikedRequest migrates the source user's entire liked list.
type MigrateLikedRequest struct {
	MigrationRequest
	Target DestinationTarget `json:"target" binding:"required"`
}

// MergeRequest merges SourcePlaylistID into TargetPlaylistID on one catalog
// and deletes the source.
type MergeRequest struct {
	Provider         string `json:"provider" binding:"required"`
	Token            string `json:"token" binding:"required"`
	SourcePlaylistID string `json:"source_playlist_id" binding:"required"`
	TargetPlaylistID string `json:"target_playlist_id" binding:"required"`
}

// Credential returns the catalog credential of the merge.
func (r MergeRequest) Credential() Credential {
	return Credential{Provider: r.Provider, Token: r.Token}
}

// Job returns the merge job description.
func (r MergeRequest) Job() MergeJob {
	return MergeJob{SourcePlaylistID: r.SourcePlaylistID, TargetPlaylistID: r.TargetPlaylistID}
}

// DeleteResult is returned by playlist deletion.
type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
