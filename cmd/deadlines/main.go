package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	urfave "github.com/urfave/cli/v2"

	"github.com/joseph-ayodele/syllabus-calendar/internal/calendar"
	"github.com/joseph-ayodele/syllabus-calendar/internal/cli"
	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/pipeline"
	"github.com/joseph-ayodele/syllabus-calendar/internal/queue"
)

var version = "dev"

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	cfg, err := common.Load()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries command output (and MCP frames), so logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	encOpts := []calendar.Option{}
	loc, err := cfg.Location()
	if err != nil {
		printError("Error: invalid CALENDAR_TZ %q: %v\n", cfg.Calendar.TimeZone, err)
		os.Exit(1)
	}
	if loc != nil {
		encOpts = append(encOpts, calendar.WithLocation(loc))
	}

	app := cli.NewApp(cli.Deps{
		Encoder: calendar.NewEncoder(logger, encOpts...),
		NewProcessor: func() (queue.Processor, error) {
			proc, err := pipeline.NewFromConfig(cfg, logger)
			if err != nil {
				return nil, err
			}
			return proc, nil
		},
		QueueOptions: []queue.Option{
			queue.WithMaxConcurrent(cfg.Queue.MaxConcurrent),
			queue.WithMaxItems(cfg.Queue.MaxItems),
			queue.WithItemTimeout(cfg.Queue.ItemTimeout),
		},
		Progress: true,
		Logger:   logger,
		Version:  version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		var exit urfave.ExitCoder
		if errors.As(err, &exit) {
			printError("Error: %v\n", err)
			os.Exit(exit.ExitCode())
		}
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			printError("Error: %s\n", common.UserMessage(err))
		} else {
			printError("Error: %v\n", err)
		}
		os.Exit(1)
	}
}
