package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/calendar"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
	"github.com/joseph-ayodele/syllabus-calendar/internal/ingest"
	"github.com/joseph-ayodele/syllabus-calendar/internal/queue"
)

func extractCmd(d *Deps) *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract deadlines from syllabus files and/or pasted text",
		ArgsUsage: "[FILES or DIRS...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Syllabus text to process alongside the files"},
			&cli.StringFlag{Name: "text-file", Usage: "Read syllabus text from a file"},
			&cli.StringFlag{Name: "course", Aliases: []string{"c"}, Usage: "Course name override for every item"},
			&cli.StringFlag{Name: "ics", Usage: "Write an iCalendar file"},
			&cli.StringFlag{Name: "summary", Usage: "Write a plain-text summary"},
			&cli.StringFlag{Name: "xlsx", Usage: "Write an XLSX workbook"},
			&cli.StringFlag{Name: "json", Usage: "Write the events as JSON"},
		},
		Action: func(c *cli.Context) error {
			text := c.String("text")
			if path := c.String("text-file"); path != "" {
				b, err := afero.ReadFile(d.Fs, path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				text = string(b)
			}
			if c.NArg() == 0 && strings.TrimSpace(text) == "" {
				return cli.Exit("nothing to extract: pass files or --text", 2)
			}

			docs, err := ingest.LoadAll(d.Fs, c.Args().Slice(), d.Logger)
			if err != nil {
				return err
			}

			proc, err := d.NewProcessor()
			if err != nil {
				return err
			}
			events, err := runQueue(c.Context, d, proc, docs, text, c.String("course"))
			if err != nil {
				return err
			}
			return writeOutputs(c.Context, d, c, events)
		},
	}
}

// runQueue pushes every input through a Coordinator and returns the merged events.
func runQueue(ctx context.Context, d *Deps, proc queue.Processor, docs []entity.Document, text, course string) ([]entity.DeadlineEvent, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	coord := queue.NewCoordinator(proc, d.Logger, d.QueueOptions...)
	defer coord.Shutdown(context.Background())

	var bars *progress
	if d.Progress {
		bars = newProgress(d.Err)
		coord.Subscribe(bars.track)
	}

	added := coord.AddFiles(docs...)
	if skipped := len(docs) - len(added); skipped > 0 {
		fmt.Fprintf(d.Err, "queue is full: skipped %d file(s)\n", skipped)
	}
	if strings.TrimSpace(text) != "" {
		if _, ok := coord.AddText(text); !ok {
			fmt.Fprintln(d.Err, "queue is full: skipped pasted text")
		}
	}

	err := coord.Wait(ctx)
	if bars != nil {
		bars.wait()
	}
	if err != nil {
		return nil, err
	}

	for _, it := range coord.Items() {
		switch it.Status {
		case constants.ItemError:
			fmt.Fprintf(d.Err, "%s: %s\n", it.Name, it.Error)
		case constants.ItemDone:
			if course != "" {
				if err := coord.SetCourseName(it.ID, course); err != nil {
					d.Logger.Debug("cli.course_override.skipped", "item_id", it.ID, "err", err)
				}
			}
		}
	}
	if !coord.CanProceed() {
		return nil, cli.Exit("no deadlines extracted", 1)
	}
	return coord.Proceed()
}

func writeOutputs(ctx context.Context, d *Deps, c *cli.Context, events []entity.DeadlineEvent) error {
	wrote := false
	if path := c.String("ics"); path != "" {
		data, rep, err := d.Encoder.Encode(events)
		if err != nil {
			return err
		}
		if err := writeFile(d.Fs, path, data); err != nil {
			return err
		}
		fmt.Fprintf(d.Out, "wrote %d events to %s\n", rep.Encoded, path)
		wrote = true
	}
	if path := c.String("summary"); path != "" {
		if err := writeFile(d.Fs, path, []byte(calendar.Summary(events)+"\n")); err != nil {
			return err
		}
		fmt.Fprintf(d.Out, "wrote summary to %s\n", path)
		wrote = true
	}
	if path := c.String("xlsx"); path != "" {
		if ctx == nil {
			ctx = context.Background()
		}
		data, err := d.Exporter.EventsXLSX(ctx, events)
		if err != nil {
			return err
		}
		if err := writeFile(d.Fs, path, data); err != nil {
			return err
		}
		fmt.Fprintf(d.Out, "wrote workbook to %s\n", path)
		wrote = true
	}
	if path := c.String("json"); path != "" {
		data, err := json.MarshalIndent(eventsFile{Events: events}, "", "  ")
		if err != nil {
			return err
		}
		if err := writeFile(d.Fs, path, data); err != nil {
			return err
		}
		fmt.Fprintf(d.Out, "wrote %d events to %s\n", len(events), path)
		wrote = true
	}
	if !wrote {
		fmt.Fprintln(d.Out, calendar.Summary(events))
	}
	return nil
}
