package domain

import "time"

// TrackStatus describes the outcome of migrating a single track.
type TrackStatus string

const (
	TrackStatusMigrated    TrackStatus = "migrated"
	TrackStatusNotFound    TrackStatus = "not_found"
	TrackStatusWriteFailed TrackStatus = "write_failed"
)

// TrackOutcome is the result for one source item. Reason explains a
// not-found or write-failed status.
type TrackOutcome struct {
	Source          TrackRef    `json:"source"`
	Matched         *TrackRef   `json:"matched,omitempty"`
	Status          TrackStatus `json:"status"`
	ConfidenceScore float64     `json:"confidence_score,omitempty"`
	Reason          string      `json:"reason,omitempty"`
}

// JobState is the lifecycle state of a migration job.
type JobState string

const (
	JobPending         JobState = "pending"
	JobMatching        JobState = "matching"
	JobWriting         JobState = "writing"
	JobCompleted       JobState = "completed"
	JobPartiallyFailed JobState = "partially_failed"
	JobFailed          JobState = "failed"
)

// MigrationJob is the in-memory state of one migration call.
type MigrationJob struct {
	ID          string
	SourceItems []TrackRef
	Target      DestinationTarget
	Results     []TrackOutcome
	State       JobState
}

// MigrationResult summarizes a migration. Migrated+NotFound+WriteFailed
// always equals TotalTracks.
type MigrationResult struct {
	JobID                   string         `json:"job_id"`
	Success                 bool           `json:"success"`
	Status                  JobState       `json:"status"`
	TotalTracks             int            `json:"total_tracks"`
	Migrated                int            `json:"migrated"`
	NotFound                int            `json:"not_found"`
	WriteFailed             int            `json:"write_failed"`
	NotFoundTracks          []TrackRef     `json:"not_found_tracks"`
	WriteFailedTracks       []TrackRef     `json:"write_failed_tracks,omitempty"`
	DestinationPlaylistID   string         `json:"playlist_id,omitempty"`
	DestinationPlaylistName string         `json:"playlist_name,omitempty"`
	Error                   string         `json:"error,omitempty"`
	TrackResults            []TrackOutcome `json:"track_results,omitempty"`
}

// MergeJob names the two same-catalog playlists of a merge.
type MergeJob struct {
	SourcePlaylistID string
	TargetPlaylistID string
}

// MergeResult summarizes a playlist merge. SourceDeleted is only true when
// every source track was accounted for and the delete succeeded.
type MergeResult struct {
	JobID         string `json:"job_id"`
	Success       bool   `json:"success"`
	TracksAdded   int    `json:"tracks_added"`
	TracksSkipped int    `json:"tracks_skipped"`
	SourceDeleted bool   `json:"source_deleted"`
	Error         string `json:"error,omitempty"`
}

// JobKind distinguishes recorded jobs.
type JobKind string

const (
	JobKindMigration JobKind = "migration"
	JobKindMerge     JobKind = "merge"
)

// JobRecord is the persisted summary of a finished job.
type JobRecord struct {
	ID             string           `json:"id"`
	Kind           JobKind          `json:"kind"`
	SourceProvider string           `json:"source_provider"`
	DestProvider   string           `json:"dest_provider"`
	Status         JobState         `json:"status"`
	Migration      *MigrationResult `json:"migration,omitempty"`
	Merge          *MergeResult     `json:"merge,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}
