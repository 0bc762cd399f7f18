package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
	"github.com/joseph-ayodele/syllabus-calendar/internal/ingest"
	"github.com/joseph-ayodele/syllabus-calendar/internal/queue"
)

func watchCmd(d *Deps) *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch folders and write a calendar for every syllabus dropped into them",
		ArgsUsage: "DIRS...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out-dir", Aliases: []string{"o"}, Usage: "Directory for the generated .ics files", Required: true},
			&cli.StringFlag{Name: "course", Aliases: []string{"c"}, Usage: "Course name override"},
			&cli.DurationFlag{Name: "debounce", Value: 500 * time.Millisecond, Usage: "Quiet period before a changed file is processed"},
			&cli.BoolFlag{Name: "existing", Usage: "Also process files already in the folders"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("watch: at least one directory is required", 2)
			}
			proc, err := d.NewProcessor()
			if err != nil {
				return err
			}
			paths, errs, err := ingest.Watch(c.Context, ingest.WatchConfig{
				Roots:       c.Args().Slice(),
				InitialScan: c.Bool("existing"),
				Debounce:    c.Duration("debounce"),
				SkipHidden:  true,
			}, d.Logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(d.Out, "watching %s\n", strings.Join(c.Args().Slice(), ", "))

			outDir := c.String("out-dir")
			course := c.String("course")
			return drainWatch(d, paths, errs, func(p string) error {
				return calendarFor(c, d, proc, p, outDir, course)
			})
		},
	}
}

// drainWatch handles paths until the watcher closes them. Watch errors are
// reported and do not stop the loop.
func drainWatch(d *Deps, paths <-chan string, errs <-chan error, handle func(string) error) error {
	for {
		select {
		case p, ok := <-paths:
			if !ok {
				return nil
			}
			if err := handle(p); err != nil {
				fmt.Fprintf(d.Err, "%s: %v\n", filepath.Base(p), err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			fmt.Fprintf(d.Err, "watch: %v\n", err)
		}
	}
}

// calendarFor runs one file through its own queue and writes <name>.ics to outDir.
func calendarFor(c *cli.Context, d *Deps, proc queue.Processor, path, outDir, course string) error {
	doc, err := ingest.Load(d.Fs, path)
	if err != nil {
		return err
	}
	events, err := runQueue(c.Context, d, proc, []entity.Document{doc}, "", course)
	if err != nil {
		return err
	}
	data, rep, err := d.Encoder.Encode(events)
	if err != nil {
		return err
	}
	out := filepath.Join(outDir, icsName(doc.Name))
	if err := writeFile(d.Fs, out, data); err != nil {
		return err
	}
	fmt.Fprintf(d.Out, "wrote %d events to %s\n", rep.Encoded, out)
	return nil
}

func icsName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".ics"
}
