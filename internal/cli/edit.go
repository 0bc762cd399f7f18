package cli

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
	"github.com/joseph-ayodele/syllabus-calendar/internal/normalize"
	"github.com/joseph-ayodele/syllabus-calendar/internal/review"
)

func editCmd(d *Deps) *cli.Command {
	return &cli.Command{
		Name:  "edit",
		Usage: "Change or delete one event in an events JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Required: true, Usage: "Events JSON file"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output path (default: overwrite --in)"},
			&cli.StringFlag{Name: "id", Required: true, Usage: "ID of the event to change"},
			&cli.BoolFlag{Name: "delete", Usage: "Remove the event"},
			&cli.StringFlag{Name: "title", Usage: "New title"},
			&cli.StringFlag{Name: "date", Usage: "New date"},
			&cli.StringFlag{Name: "time", Usage: "New time"},
			&cli.BoolFlag{Name: "all-day", Usage: "Clear the time"},
			&cli.StringFlag{Name: "type", Usage: "New type (Exam, Assignment, Reading, Other)"},
			&cli.StringFlag{Name: "course", Usage: "New course name"},
			&cli.StringFlag{Name: "weight", Usage: "New weight"},
			&cli.StringFlag{Name: "notes", Usage: "New notes"},
		},
		Action: func(c *cli.Context) error {
			in := c.String("in")
			out := c.String("out")
			if out == "" {
				out = in
			}
			events, err := readEvents(d.Fs, in)
			if err != nil {
				return err
			}
			id := c.String("id")

			if c.Bool("delete") {
				next, ok := review.Delete(events, id)
				if !ok {
					return cli.Exit(fmt.Sprintf("no event with id %q", id), 1)
				}
				if err := saveEvents(d, out, next); err != nil {
					return err
				}
				fmt.Fprintf(d.Out, "deleted %s (%d events left)\n", id, len(next))
				return nil
			}

			var current *entity.DeadlineEvent
			for i := range events {
				if events[i].ID == id {
					current = &events[i]
					break
				}
			}
			if current == nil {
				return cli.Exit(fmt.Sprintf("no event with id %q", id), 1)
			}
			edited := applyEdits(c, *current)
			if err := review.Validate(edited); err != nil {
				return err
			}
			next, _ := review.Update(events, edited)
			if err := saveEvents(d, out, next); err != nil {
				return err
			}
			fmt.Fprintf(d.Out, "updated %s\n", id)
			return nil
		},
	}
}

// applyEdits overlays the flags that were set. Dates and times go through the
// same normalizers as model output so "Feb 3, 2026" or "2pm" style input works.
func applyEdits(c *cli.Context, ev entity.DeadlineEvent) entity.DeadlineEvent {
	if c.IsSet("title") {
		ev.Title = c.String("title")
	}
	if c.IsSet("date") {
		ev.Date = normalize.Date(c.String("date"))
	}
	if c.IsSet("time") {
		ev.Time = entity.StrPtr(normalize.Time(c.String("time")))
	}
	if c.Bool("all-day") {
		ev.Time = nil
	}
	if c.IsSet("type") {
		t, ok := constants.Canonicalize(c.String("type"))
		if !ok {
			t = constants.EventType(c.String("type"))
		}
		ev.Type = t
	}
	if c.IsSet("course") {
		ev.Course = c.String("course")
	}
	if c.IsSet("weight") {
		ev.Weight = c.String("weight")
	}
	if c.IsSet("notes") {
		ev.Notes = c.String("notes")
	}
	return ev
}

func saveEvents(d *Deps, path string, events []entity.DeadlineEvent) error {
	data, err := json.MarshalIndent(eventsFile{Events: events}, "", "  ")
	if err != nil {
		return common.KindError(common.KindInternal, err)
	}
	return writeFile(d.Fs, path, data)
}
