package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/jpp0ca/tunebridge/internal/logging"
	"github.com/jpp0ca/tunebridge/internal/ports"
)

// Runner holds the dependencies of the CLI commands. Each command action is
// a Runner method.
type Runner struct {
	service ports.MigrationService
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Service ports.MigrationService
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Runner{
		service: opts.Service,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

// Command builds the root command.
func (r *Runner) Command() *cli.Command {
	return &cli.Command{
		Name:    "tunebridge",
		Usage:   "Migrate playlists and liked tracks between Spotify, Tidal and YouTube Music",
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		playlistsCommand, tracksCommand, likedCommand,
		migrateCommand, migrateTracksCommand, migrateLikedCommand,
		mergeCommand, deleteCommand, jobCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	output = append(output, '\n')
	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
