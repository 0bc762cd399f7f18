// Package cli implements the deadlines command line tool.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/joseph-ayodele/syllabus-calendar/internal/calendar"
	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
	"github.com/joseph-ayodele/syllabus-calendar/internal/export"
	"github.com/joseph-ayodele/syllabus-calendar/internal/queue"
)

// Deps wires the commands to their collaborators. NewProcessor is only called by
// commands that talk to the model, so ics and summary work without an API key.
type Deps struct {
	Fs           afero.Fs
	Out          io.Writer
	Err          io.Writer
	NewProcessor func() (queue.Processor, error)
	Encoder      *calendar.Encoder
	Exporter     *export.Service
	QueueOptions []queue.Option
	Progress     bool
	Logger       *slog.Logger
	Version      string
}

func (d *Deps) defaults() {
	if d.Fs == nil {
		d.Fs = afero.NewOsFs()
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Err == nil {
		d.Err = os.Stderr
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Encoder == nil {
		d.Encoder = calendar.NewEncoder(d.Logger)
	}
	if d.Exporter == nil {
		d.Exporter = export.NewService(d.Logger)
	}
	if d.Version == "" {
		d.Version = "dev"
	}
}

// NewApp creates the CLI application with all commands.
func NewApp(d Deps) *cli.App {
	d.defaults()
	app := &cli.App{
		Name:      "deadlines",
		Usage:     "Turn course syllabi into calendar deadlines",
		Version:   d.Version,
		Writer:    d.Out,
		ErrWriter: d.Err,
		Commands: []*cli.Command{
			extractCmd(&d),
			icsCmd(&d),
			summaryCmd(&d),
			editCmd(&d),
			watchCmd(&d),
			mcpCmd(&d),
		},
	}
	// Errors are returned to the caller instead of exiting.
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

type eventsFile struct {
	Events []entity.DeadlineEvent `json:"events"`
}

// readEvents accepts either a bare JSON array or an object with an "events" array.
func readEvents(fs afero.Fs, path string) ([]entity.DeadlineEvent, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var events []entity.DeadlineEvent
	if err := json.Unmarshal(data, &events); err == nil {
		return events, nil
	}
	var wrapped eventsFile
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, common.NewAppError(common.KindBadInput, "Invalid events file.", fmt.Errorf("decode %s: %w", path, err))
	}
	return wrapped.Events, nil
}

func writeFile(fs afero.Fs, path string, data []byte) error {
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
