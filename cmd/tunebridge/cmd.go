package main

import "github.com/urfave/cli/v3"

func providerFlag(name, usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     name,
		Usage:    usage + " (spotify, tidal, youtube)",
		Required: true,
	}
}

func tokenFlag(name, env, usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    name,
		Usage:   usage,
		Sources: cli.EnvVars(env),
	}
}

// catalogFlags are the flags of commands acting on one catalog.
func catalogFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		providerFlag("provider", "Streaming provider"),
		tokenFlag("token", "SOURCE_TOKEN", "Access token for the provider"),
	}, extra...)
}

// migrationFlags are the flags shared by every migrate command.
func migrationFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		providerFlag("from", "Source provider"),
		providerFlag("to", "Destination provider"),
		tokenFlag("source-token", "SOURCE_TOKEN", "Access token for the source provider"),
		tokenFlag("dest-token", "DEST_TOKEN", "Access token for the destination provider"),
	}, extra...)
}

// targetFlags select where migrated tracks are written.
func targetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "target",
			Usage: "Write target: favorites, new_playlist or existing_playlist",
			Value: "favorites",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Name of the playlist to create (new_playlist)",
		},
		&cli.StringFlag{
			Name:  "playlist",
			Usage: "Destination playlist ID (existing_playlist)",
		},
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "playlists",
		Usage:  "List the user's playlists",
		Flags:  catalogFlags(),
		Action: r.Playlists,
	}
}

func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "List every track of a playlist",
		Flags: catalogFlags(&cli.StringFlag{
			Name:     "playlist",
			Usage:    "Playlist ID",
			Required: true,
		}),
		Action: r.Tracks,
	}
}

func likedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "liked",
		Usage: "List one page of liked tracks",
		Flags: catalogFlags(
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Page size",
				Value: 50,
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Offset of the first track",
			},
		),
		Action: r.Liked,
	}
}

func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Copy a playlist into a new playlist on another provider",
		Flags: migrationFlags(
			&cli.StringFlag{
				Name:     "playlist",
				Usage:    "Source playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Name of the destination playlist",
			},
		),
		Action: r.Migrate,
	}
}

func migrateTracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate-tracks",
		Usage: "Copy tracks listed in a JSON file ([{\"name\", \"artist\", \"album\"}])",
		Flags: migrationFlags(append(targetFlags(), &cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "Path to the tracks file, - for stdin",
			Required: true,
		})...),
		Action: r.MigrateTracks,
	}
}

func migrateLikedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "migrate-liked",
		Usage:  "Copy every liked track to another provider",
		Flags:  migrationFlags(targetFlags()...),
		Action: r.MigrateLiked,
	}
}

func mergeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "merge",
		Usage: "Merge one playlist into another and delete the source",
		Flags: catalogFlags(
			&cli.StringFlag{
				Name:     "source",
				Usage:    "Playlist to merge and delete",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "target",
				Usage:    "Playlist receiving the tracks",
				Required: true,
			},
		),
		Action: r.Merge,
	}
}

func deleteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Delete a playlist",
		Flags: catalogFlags(&cli.StringFlag{
			Name:     "playlist",
			Usage:    "Playlist ID",
			Required: true,
		}),
		Action: r.Delete,
	}
}

func jobCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "job",
		Usage: "Show a recorded job",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Job ID",
				Required: true,
			},
		},
		Action: r.Job,
	}
}
