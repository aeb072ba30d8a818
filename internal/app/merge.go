package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/jpp0ca/tunebridge/internal/domain"
	"github.com/jpp0ca/tunebridge/internal/logging"
	"github.com/jpp0ca/tunebridge/internal/ports"
)

// MergePlaylists adds every source track missing from the target playlist,
// then deletes the source. The source is only deleted once all adds
// succeeded.
func (s *Service) MergePlaylists(ctx context.Context, req domain.MergeRequest) (*domain.MergeResult, error) {
	job := req.Job()
	if strings.TrimSpace(job.SourcePlaylistID) == "" || strings.TrimSpace(job.TargetPlaylistID) == "" {
		return nil, fmt.Errorf("%w: source and target playlist ids are required", domain.ErrInvalidRequest)
	}
	if job.SourcePlaylistID == job.TargetPlaylistID {
		return nil, fmt.Errorf("%w: cannot merge a playlist into itself", domain.ErrInvalidRequest)
	}
	if _, err := s.registry.Get(req.Provider); err != nil {
		return nil, err
	}

	res := &domain.MergeResult{JobID: logging.NewJobID()}
	logger := s.logger.With("job", res.JobID, "provider", req.Provider)
	logger.Info("merge started", "source", job.SourcePlaylistID, "target", job.TargetPlaylistID)

	cat, err := s.open(ctx, req.Credential())
	if err != nil {
		return s.finishMerge(ctx, req, res, logger, err)
	}
	source, err := collectPlaylist(ctx, cat, job.SourcePlaylistID)
	if err != nil {
		return s.finishMerge(ctx, req, res, logger, fmt.Errorf("read source playlist: %w", err))
	}
	target, err := collectPlaylist(ctx, cat, job.TargetPlaylistID)
	if err != nil {
		return s.finishMerge(ctx, req, res, logger, fmt.Errorf("read target playlist: %w", err))
	}

	present := make(map[string]struct{}, len(target))
	for _, t := range target {
		present[t.ExternalID] = struct{}{}
	}
	var toAdd []string
	for _, t := range source {
		if t.ExternalID == "" {
			continue
		}
		if _, ok := present[t.ExternalID]; ok {
			continue
		}
		present[t.ExternalID] = struct{}{}
		toAdd = append(toAdd, t.ExternalID)
	}

	size := max(1, cat.BatchSize())
	for start := 0; start < len(toAdd); start += size {
		if err := ctx.Err(); err != nil {
			res.TracksSkipped = len(source) - len(toAdd)
			return s.finishMerge(ctx, req, res, logger, fmt.Errorf("add tracks to target: %w", err))
		}
		wctx, cancel := s.writeContext(ctx)
		n, err := cat.AddTracks(wctx, job.TargetPlaylistID, toAdd[start:min(start+size, len(toAdd))])
		cancel()
		res.TracksAdded += n
		if err != nil {
			res.TracksSkipped = len(source) - len(toAdd)
			return s.finishMerge(ctx, req, res, logger, fmt.Errorf("add tracks to target: %w", err))
		}
	}
	res.TracksSkipped = len(source) - res.TracksAdded
	res.Success = true
	logger.Info("merge tracks added", "added", res.TracksAdded, "skipped", res.TracksSkipped)

	if err := s.deleteSource(ctx, cat, job.SourcePlaylistID); err != nil {
		res.Error = fmt.Sprintf("tracks merged but source playlist was not deleted: %v", err)
		return s.finishMerge(ctx, req, res, logger, nil)
	}
	res.SourceDeleted = true
	return s.finishMerge(ctx, req, res, logger, nil)
}

// deleteSource deletes the merged playlist unless ctx is already done.
func (s *Service) deleteSource(ctx context.Context, cat ports.Catalog, playlistID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wctx, cancel := s.writeContext(ctx)
	defer cancel()
	return cat.DeletePlaylist(wctx, playlistID)
}

// finishMerge settles and records a merge. cause is a failure that stopped
// the merge before the delete step.
func (s *Service) finishMerge(ctx context.Context, req domain.MergeRequest, res *domain.MergeResult, logger *log.Logger, cause error) (*domain.MergeResult, error) {
	status := domain.JobCompleted
	switch {
	case cause != nil:
		res.Success = false
		res.Error = cause.Error()
		status = domain.JobFailed
	case !res.SourceDeleted:
		status = domain.JobPartiallyFailed
	}
	logger.Info("merge finished", "state", status, "added", res.TracksAdded,
		"skipped", res.TracksSkipped, "source_deleted", res.SourceDeleted)

	s.record(ctx, domain.JobRecord{
		ID:             res.JobID,
		Kind:           domain.JobKindMerge,
		SourceProvider: req.Provider,
		DestProvider:   req.Provider,
		Status:         status,
		Merge:          res,
	}, logger)
	return res, cause
}
