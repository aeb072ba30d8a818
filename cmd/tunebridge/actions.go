package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jpp0ca/tunebridge/internal/domain"
)

// Playlists lists the user's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	playlists, err := r.service.ListPlaylists(ctx, catalogCredential(cmd))
	if err != nil {
		return err
	}
	return r.writeJSON(playlists, cmd.Bool("pretty"))
}

// Tracks lists every track of a playlist.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	tracks, err := r.service.ListPlaylistTracks(ctx, catalogCredential(cmd), cmd.String("playlist"))
	if err != nil {
		return err
	}
	return r.writeJSON(tracks, cmd.Bool("pretty"))
}

// Liked lists one page of liked tracks.
func (r *Runner) Liked(ctx context.Context, cmd *cli.Command) error {
	page, err := r.service.ListLiked(ctx, catalogCredential(cmd), int(cmd.Int("limit")), int(cmd.Int("offset")))
	if err != nil {
		return err
	}
	return r.writeJSON(page, cmd.Bool("pretty"))
}

// Migrate copies a playlist into a new destination playlist.
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("migrating playlist", "from", cmd.String("from"), "to", cmd.String("to"), "playlist", cmd.String("playlist"))
	result, err := r.service.MigratePlaylist(ctx, domain.MigratePlaylistRequest{
		MigrationRequest: migrationRequest(cmd),
		PlaylistID:       cmd.String("playlist"),
		PlaylistName:     cmd.String("name"),
	})
	return writeResult(r, cmd, result, err)
}

// MigrateTracks copies the tracks listed in a JSON file.
func (r *Runner) MigrateTracks(ctx context.Context, cmd *cli.Command) error {
	tracks, err := readTracks(cmd.String("file"))
	if err != nil {
		return err
	}
	r.logger.Info("migrating tracks", "from", cmd.String("from"), "to", cmd.String("to"), "tracks", len(tracks))
	result, err := r.service.MigrateTracks(ctx, domain.MigrateTracksRequest{
		MigrationRequest: migrationRequest(cmd),
		Tracks:           tracks,
		Target:           target(cmd),
	})
	return writeResult(r, cmd, result, err)
}

// MigrateLiked copies every liked track.
func (r *Runner) MigrateLiked(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("migrating liked tracks", "from", cmd.String("from"), "to", cmd.String("to"))
	result, err := r.service.MigrateLiked(ctx, domain.MigrateLikedRequest{
		MigrationRequest: migrationRequest(cmd),
		Target:           target(cmd),
	})
	return writeResult(r, cmd, result, err)
}

// Merge merges one playlist into another.
func (r *Runner) Merge(ctx context.Context, cmd *cli.Command) error {
	cred := catalogCredential(cmd)
	result, err := r.service.MergePlaylists(ctx, domain.MergeRequest{
		Provider:         cred.Provider,
		Token:            cred.Token,
		SourcePlaylistID: cmd.String("source"),
		TargetPlaylistID: cmd.String("target"),
	})
	return writeResult(r, cmd, result, err)
}

// Delete deletes a playlist.
func (r *Runner) Delete(ctx context.Context, cmd *cli.Command) error {
	result, err := r.service.DeletePlaylist(ctx, catalogCredential(cmd), cmd.String("playlist"))
	return writeResult(r, cmd, result, err)
}

// Job prints a recorded job.
func (r *Runner) Job(ctx context.Context, cmd *cli.Command) error {
	rec, err := r.service.GetJob(ctx, cmd.String("id"))
	if err != nil {
		return err
	}
	return r.writeJSON(rec, cmd.Bool("pretty"))
}

// writeResult prints result when there is one, then returns err so a failed
// job still shows its counts and exits non-zero.
func writeResult[T any](r *Runner, cmd *cli.Command, result *T, err error) error {
	if result != nil {
		if werr := r.writeJSON(result, cmd.Bool("pretty")); werr != nil {
			return werr
		}
	}
	return err
}

func catalogCredential(cmd *cli.Command) domain.Credential {
	return domain.Credential{Provider: cmd.String("provider"), Token: cmd.String("token")}
}

func migrationRequest(cmd *cli.Command) domain.MigrationRequest {
	return domain.MigrationRequest{
		SourceProvider: cmd.String("from"),
		SourceToken:    cmd.String("source-token"),
		DestProvider:   cmd.String("to"),
		DestToken:      cmd.String("dest-token"),
	}
}

func target(cmd *cli.Command) domain.DestinationTarget {
	return domain.DestinationTarget{
		Kind: domain.TargetKind(cmd.String("target")),
		Name: cmd.String("name"),
		ID:   cmd.String("playlist"),
	}
}

// readTracks decodes a JSON track list from path, or stdin for "-".
func readTracks(path string) ([]domain.TrackInput, error) {
	var in io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open tracks file: %w", err)
		}
		defer f.Close()
		in = f
	}

	var tracks []domain.TrackInput
	if err := json.NewDecoder(in).Decode(&tracks); err != nil {
		return nil, fmt.Errorf("failed to parse tracks file: %w", err)
	}
	return tracks, nil
}
