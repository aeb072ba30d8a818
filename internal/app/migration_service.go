package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/jpp0ca/tunebridge/internal/adapters"
	"github.com/jpp0ca/tunebridge/internal/domain"
	"github.com/jpp0ca/tunebridge/internal/logging"
	"github.com/jpp0ca/tunebridge/internal/ports"
)

const (
	// likedPageSize is the limit used when walking a whole liked list.
	likedPageSize = 50
	// defaultWriteTimeout bounds one destination write call, retries
	// included.
	defaultWriteTimeout = 2 * time.Minute
)

// Options configures a Service.
type Options struct {
	// Workers bounds the number of concurrent destination searches.
	Workers int
	// MinConfidence is the score a match must exceed. Zero accepts any
	// artist match.
	MinConfidence float64
	// WriteTimeout bounds each destination write call. Writes already sent
	// are not cut short by cancelling the job context.
	WriteTimeout time.Duration
	// Store records finished jobs. Nil disables recording.
	Store  ports.JobStore
	Logger *log.Logger
}

// Service implements ports.MigrationService. Each migration matches its
// source tracks concurrently on the destination, then writes the matches
// sequentially in provider-sized batches.
type Service struct {
	registry     *adapters.ProviderRegistry
	workers      int
	writeTimeout time.Duration
	matcher      *Matcher
	store        ports.JobStore
	logger       *log.Logger
	now          func() time.Time
}

var _ ports.MigrationService = (*Service)(nil)

// NewService creates a migration service over the given provider registry.
func NewService(registry *adapters.ProviderRegistry, opts Options) *Service {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Service{
		registry:     registry,
		workers:      opts.Workers,
		writeTimeout: opts.WriteTimeout,
		matcher:      NewMatcher(opts.MinConfidence),
		store:        opts.Store,
		logger:       opts.Logger,
		now:          time.Now,
	}
}

func (s *Service) ListPlaylists(ctx context.Context, cred domain.Credential) ([]domain.Playlist, error) {
	cat, err := s.open(ctx, cred)
	if err != nil {
		return nil, err
	}
	return cat.FetchPlaylists(ctx)
}

func (s *Service) ListPlaylistTracks(ctx context.Context, cred domain.Credential, playlistID string) ([]domain.TrackRef, error) {
	if strings.TrimSpace(playlistID) == "" {
		return nil, fmt.Errorf("%w: playlist id is required", domain.ErrInvalidRequest)
	}
	cat, err := s.open(ctx, cred)
	if err != nil {
		return nil, err
	}
	return collectPlaylist(ctx, cat, playlistID)
}

func (s *Service) ListLiked(ctx context.Context, cred domain.Credential, limit, offset int) (*domain.LikedPage, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", domain.ErrInvalidRequest)
	}
	if limit <= 0 {
		limit = likedPageSize
	}
	cat, err := s.open(ctx, cred)
	if err != nil {
		return nil, err
	}
	page, err := cat.FetchLiked(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *Service) MigratePlaylist(ctx context.Context, req domain.MigratePlaylistRequest) (*domain.MigrationResult, error) {
	if strings.TrimSpace(req.PlaylistID) == "" {
		return nil, fmt.Errorf("%w: playlist_id is required", domain.ErrInvalidRequest)
	}
	name := strings.TrimSpace(req.PlaylistName)
	if name == "" {
		name = fmt.Sprintf("Migrated from %s", req.SourceProvider)
	}
	return s.migrate(ctx, req.MigrationRequest, domain.NewPlaylist(name), func(ctx context.Context) ([]domain.TrackRef, error) {
		src, err := s.open(ctx, req.Source())
		if err != nil {
			return nil, err
		}
		return collectPlaylist(ctx, src, req.PlaylistID)
	})
}

// MigrateTracks migrates the tracks listed in the request. The source
// catalog is never contacted.
func (s *Service) MigrateTracks(ctx context.Context, req domain.MigrateTracksRequest) (*domain.MigrationResult, error) {
	refs := req.Refs()
	return s.migrate(ctx, req.MigrationRequest, req.Target, func(context.Context) ([]domain.TrackRef, error) {
		return refs, nil
	})
}

func (s *Service) MigrateLiked(ctx context.Context, req domain.MigrateLikedRequest) (*domain.MigrationResult, error) {
	return s.migrate(ctx, req.MigrationRequest, req.Target, func(ctx context.Context) ([]domain.TrackRef, error) {
		src, err := s.open(ctx, req.Source())
		if err != nil {
			return nil, err
		}
		return collectLiked(ctx, src)
	})
}

func (s *Service) DeletePlaylist(ctx context.Context, cred domain.Credential, playlistID string) (*domain.DeleteResult, error) {
	if strings.TrimSpace(playlistID) == "" {
		return nil, fmt.Errorf("%w: playlist id is required", domain.ErrInvalidRequest)
	}
	cat, err := s.open(ctx, cred)
	if err != nil {
		return nil, err
	}
	if err := cat.DeletePlaylist(ctx, playlistID); err != nil {
		return &domain.DeleteResult{Success: false, Message: err.Error()}, err
	}
	s.logger.Info("playlist deleted", "provider", cred.Provider, "playlist", playlistID)
	return &domain.DeleteResult{Success: true, Message: "playlist deleted"}, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (*domain.JobRecord, error) {
	if s.store == nil {
		return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	return s.store.Get(ctx, id)
}

// open resolves cred to a catalog bound to its token.
func (s *Service) open(ctx context.Context, cred domain.Credential) (ports.Catalog, error) {
	p, err := s.registry.Get(cred.Provider)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cred.Token) == "" {
		return nil, fmt.Errorf("%w: missing %s token", domain.ErrInvalidRequest, cred.Provider)
	}
	return p.Open(ctx, cred.Token)
}

type sourceLoader func(ctx context.Context) ([]domain.TrackRef, error)

// migrate runs one migration job: open the destination, load the source
// items, match them and write the matches to target.
func (s *Service) migrate(ctx context.Context, req domain.MigrationRequest, target domain.DestinationTarget, load sourceLoader) (*domain.MigrationResult, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	for _, name := range []string{req.SourceProvider, req.DestProvider} {
		if _, err := s.registry.Get(name); err != nil {
			return nil, err
		}
	}

	job := &domain.MigrationJob{ID: logging.NewJobID(), Target: target, State: domain.JobPending}
	logger := s.logger.With("job", job.ID, "source", req.SourceProvider, "dest", req.DestProvider)
	logger.Info("job state", "state", job.State, "target", target.Kind)

	dest, err := s.open(ctx, req.Dest())
	if err != nil {
		return s.finish(ctx, req, job, "", logger, fmt.Errorf("open destination: %w", err))
	}
	items, err := load(ctx)
	if err != nil {
		return s.finish(ctx, req, job, "", logger, fmt.Errorf("read source: %w", err))
	}
	job.SourceItems = items

	if len(items) == 0 {
		return s.finish(ctx, req, job, "", logger, nil)
	}

	s.setState(job, logger, domain.JobMatching, "tracks", len(items))
	results, err := s.matchAll(ctx, dest, items, logger)
	job.Results = results
	if err != nil {
		abandon(job.Results, reasonFor(err))
		return s.finish(ctx, req, job, "", logger, err)
	}

	s.setState(job, logger, domain.JobWriting)
	playlistID, err := s.write(ctx, dest, job, logger)
	return s.finish(ctx, req, job, playlistID, logger, err)
}

func (s *Service) setState(job *domain.MigrationJob, logger *log.Logger, state domain.JobState, keyvals ...any) {
	job.State = state
	logger.Info("job state", append([]any{"state", state}, keyvals...)...)
}

// matchAll searches every item on dest with at most s.workers searches in
// flight. Outcomes keep the input order. An unauthorized search aborts the
// remaining work; items never searched become not-found.
func (s *Service) matchAll(ctx context.Context, dest ports.Catalog, items []domain.TrackRef, logger *log.Logger) ([]domain.TrackOutcome, error) {
	results := make([]domain.TrackOutcome, len(items))
	done := make([]bool, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			cand, err := s.matcher.Match(gctx, dest, item)
			switch {
			case err != nil && errors.Is(err, domain.ErrUnauthorized):
				return fmt.Errorf("search %q: %w", item.Title, err)
			case err != nil && gctx.Err() != nil:
				return nil
			case errors.Is(err, ErrMissingMetadata):
				logger.Debug("skipped", "title", item.Title, "artist", item.Artist)
				results[i] = notFound(item, err.Error())
			case err != nil:
				logger.Warn("search failed", "title", item.Title, "artist", item.Artist, "err", err)
				results[i] = notFound(item, err.Error())
			case cand == nil:
				logger.Debug("not found", "title", item.Title, "artist", item.Artist)
				results[i] = notFound(item, "no match above confidence threshold")
			default:
				logger.Debug("matched", "title", item.Title, "artist", item.Artist,
					"id", cand.Track.ExternalID, "score", cand.ConfidenceScore)
				matched := cand.Track
				results[i] = domain.TrackOutcome{
					Source:          item,
					Matched:         &matched,
					Status:          domain.TrackStatusMigrated,
					ConfidenceScore: cand.ConfidenceScore,
				}
			}
			done[i] = true
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	reason := reasonFor(err)
	for i := range results {
		if !done[i] {
			results[i] = notFound(items[i], reason)
		}
	}
	return results, err
}

// write adds the matched tracks of job to its target, one batch at a time.
// A rejected batch marks its unwritten tracks write-failed and writing
// continues; the returned error is only set when nothing further could be
// written. Cancelling ctx stops new batches but not one already sent.
func (s *Service) write(ctx context.Context, dest ports.Catalog, job *domain.MigrationJob, logger *log.Logger) (string, error) {
	var pending []int
	for i, o := range job.Results {
		if o.Status == domain.TrackStatusMigrated {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return "", nil
	}

	var playlistID string
	add := dest.AddToLikes
	switch job.Target.Kind {
	case domain.TargetNewPlaylist:
		wctx, cancel := s.writeContext(ctx)
		id, err := dest.CreatePlaylist(wctx, job.Target.Name,
			fmt.Sprintf("Migrated %d tracks with tunebridge", len(pending)))
		cancel()
		if err != nil {
			markWriteFailed(job.Results, pending, "create playlist: "+err.Error())
			return "", err
		}
		logger.Info("created destination playlist", "playlist", id, "name", job.Target.Name)
		playlistID = id
	case domain.TargetExistingPlaylist:
		playlistID = job.Target.ID
	}
	if playlistID != "" {
		add = func(ctx context.Context, ids []string) (int, error) {
			return dest.AddTracks(ctx, playlistID, ids)
		}
	}

	size := max(1, dest.BatchSize())
	for start := 0; start < len(pending); start += size {
		if err := ctx.Err(); err != nil {
			markWriteFailed(job.Results, pending[start:], reasonFor(err))
			return playlistID, err
		}
		chunk := pending[start:min(start+size, len(pending))]
		ids := make([]string, len(chunk))
		for j, idx := range chunk {
			ids[j] = job.Results[idx].Matched.ExternalID
		}
		wctx, cancel := s.writeContext(ctx)
		n, err := add(wctx, ids)
		cancel()
		if err != nil {
			unwritten := domain.UnwrittenIDs(err, ids)
			failed := make([]int, 0, len(chunk))
			for j, idx := range chunk {
				if unwritten[ids[j]] {
					failed = append(failed, idx)
				}
			}
			logger.Warn("batch write failed", "tracks", len(chunk), "unwritten", len(failed), "err", err)
			markWriteFailed(job.Results, failed, err.Error())
			continue
		}
		logger.Debug("batch written", "tracks", len(chunk), "new", n)
	}
	return playlistID, nil
}

// finish aggregates the job outcomes, settles the final state and records
// the job. cause is a failure that ended the job early.
func (s *Service) finish(ctx context.Context, req domain.MigrationRequest, job *domain.MigrationJob, playlistID string, logger *log.Logger, cause error) (*domain.MigrationResult, error) {
	res := Aggregate(job.Results)
	res.JobID = job.ID
	res.DestinationPlaylistID = playlistID
	if playlistID != "" && job.Target.Kind == domain.TargetNewPlaylist {
		res.DestinationPlaylistName = job.Target.Name
	}

	var err error
	switch {
	case res.TotalTracks > 0 && res.Migrated == res.TotalTracks && cause == nil:
		res.Status = domain.JobCompleted
	case res.Migrated > 0:
		res.Status = domain.JobPartiallyFailed
		if cause != nil {
			res.Error = cause.Error()
		} else if res.WriteFailed > 0 {
			res.Error = fmt.Sprintf("%d of %d tracks could not be written", res.WriteFailed, res.TotalTracks)
		}
	case cause != nil:
		res.Status = domain.JobFailed
		err = cause
	case res.TotalTracks == 0:
		res.Status = domain.JobCompleted
	default:
		res.Status = domain.JobFailed
		err = domain.ErrNothingMigrated
	}
	res.Success = err == nil
	if err != nil {
		res.Error = err.Error()
	}

	job.State = res.Status
	logger.Info("job state", "state", job.State, "total", res.TotalTracks,
		"migrated", res.Migrated, "not_found", res.NotFound, "write_failed", res.WriteFailed)

	s.record(ctx, domain.JobRecord{
		ID:             job.ID,
		Kind:           domain.JobKindMigration,
		SourceProvider: req.SourceProvider,
		DestProvider:   req.DestProvider,
		Status:         res.Status,
		Migration:      &res,
	}, logger)
	return &res, err
}

// writeContext detaches one write call from the cancellation of ctx, bounded
// by the service write timeout.
func (s *Service) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
}

// record saves rec in the job store. A failure is logged and otherwise
// ignored; the caller already has its result.
func (s *Service) record(ctx context.Context, rec domain.JobRecord, logger *log.Logger) {
	if s.store == nil {
		return
	}
	rec.CreatedAt = s.now().UTC()
	if err := s.store.Save(context.WithoutCancel(ctx), rec); err != nil {
		logger.Error("failed to record job", "err", err)
	}
}

// collectPlaylist reads every page of a playlist. Pages may come back empty
// when an adapter filters out items it cannot migrate, so only HasMore ends
// the walk.
func collectPlaylist(ctx context.Context, cat ports.Catalog, playlistID string) ([]domain.TrackRef, error) {
	tracks := []domain.TrackRef{}
	for page := 0; ; page++ {
		p, err := cat.FetchTracks(ctx, playlistID, page)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, p.Tracks...)
		if !p.HasMore {
			return tracks, nil
		}
	}
}

// collectLiked reads the whole liked list, following NextOffset.
func collectLiked(ctx context.Context, cat ports.Catalog) ([]domain.TrackRef, error) {
	tracks := []domain.TrackRef{}
	for offset := 0; ; {
		p, err := cat.FetchLiked(ctx, likedPageSize, offset)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, p.Tracks...)
		if !p.HasMore {
			return tracks, nil
		}
		if p.NextOffset <= offset {
			return nil, fmt.Errorf("liked tracks: paging did not advance past offset %d", offset)
		}
		offset = p.NextOffset
	}
}

func notFound(track domain.TrackRef, reason string) domain.TrackOutcome {
	return domain.TrackOutcome{Source: track, Status: domain.TrackStatusNotFound, Reason: reason}
}

func markWriteFailed(results []domain.TrackOutcome, idx []int, reason string) {
	for _, i := range idx {
		results[i].Status = domain.TrackStatusWriteFailed
		results[i].Reason = reason
	}
}

// abandon marks matched tracks that will never be written.
func abandon(results []domain.TrackOutcome, reason string) {
	for i := range results {
		if results[i].Status == domain.TrackStatusMigrated {
			results[i].Status = domain.TrackStatusWriteFailed
			results[i].Reason = reason
		}
	}
}

func reasonFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "aborted: " + err.Error()
	}
}
