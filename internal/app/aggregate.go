package app

import "github.com/jpp0ca/tunebridge/internal/domain"

// Aggregate counts outcomes into a result. It only fills the counting
// fields; success, status and destination are set by the caller.
func Aggregate(outcomes []domain.TrackOutcome) domain.MigrationResult {
	res := domain.MigrationResult{
		TotalTracks:    len(outcomes),
		NotFoundTracks: []domain.TrackRef{},
		TrackResults:   outcomes,
	}
	for _, o := range outcomes {
		switch o.Status {
		case domain.TrackStatusMigrated:
			res.Migrated++
		case domain.TrackStatusNotFound:
			res.NotFound++
			res.NotFoundTracks = append(res.NotFoundTracks, o.Source)
		case domain.TrackStatusWriteFailed:
			res.WriteFailed++
			res.WriteFailedTracks = append(res.WriteFailedTracks, o.Source)
		}
	}
	return res
}
