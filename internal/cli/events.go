package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/calendar"
	"github.com/joseph-ayodele/syllabus-calendar/internal/mcp"
)

func icsCmd(d *Deps) *cli.Command {
	return &cli.Command{
		Name:  "ics",
		Usage: "Encode an events JSON file as an iCalendar file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Required: true, Usage: "Events JSON file"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: constants.CalendarFileName, Usage: "Output .ics path"},
		},
		Action: func(c *cli.Context) error {
			events, err := readEvents(d.Fs, c.String("in"))
			if err != nil {
				return err
			}
			data, rep, err := d.Encoder.Encode(events)
			if err != nil {
				return err
			}
			if err := writeFile(d.Fs, c.String("out"), data); err != nil {
				return err
			}
			fmt.Fprintf(d.Out, "wrote %d events to %s", rep.Encoded, c.String("out"))
			if n := len(rep.Dropped); n > 0 {
				fmt.Fprintf(d.Out, " (%d skipped: invalid date)", n)
			}
			fmt.Fprintln(d.Out)
			return nil
		},
	}
}

func summaryCmd(d *Deps) *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "Print a per-course summary of an events JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Required: true, Usage: "Events JSON file"},
			&cli.BoolFlag{Name: "html", Usage: "Render HTML instead of plain text"},
		},
		Action: func(c *cli.Context) error {
			events, err := readEvents(d.Fs, c.String("in"))
			if err != nil {
				return err
			}
			if c.Bool("html") {
				html, err := calendar.SummaryHTML(events)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(d.Out, html)
				return err
			}
			_, err = fmt.Fprintln(d.Out, calendar.Summary(events))
			return err
		},
	}
}

func mcpCmd(d *Deps) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the extraction tools over MCP stdio",
		Action: func(c *cli.Context) error {
			proc, err := d.NewProcessor()
			if err != nil {
				return err
			}
			return mcp.Run(mcp.NewHandlers(proc, d.Encoder, d.Logger), d.Version)
		},
	}
}
