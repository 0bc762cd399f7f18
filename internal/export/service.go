package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
	"github.com/joseph-ayodele/syllabus-calendar/internal/review"
)

const sheetName = "Deadlines"

var headers = []string{"Course", "Title", "Type", "Date", "Time", "Weight", "Notes"}

// Service produces XLSX bytes for reviewed events.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// EventsXLSX returns a one-sheet workbook of the events sorted by date then time.
// All-day events sort before timed events on the same date.
func (s *Service) EventsXLSX(ctx context.Context, events []entity.DeadlineEvent) ([]byte, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := review.SortChronological(events)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// Rename the default sheet rather than adding a second one.
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheetName, 1, 1, style)
	}

	for r, ev := range rows {
		row := r + 2
		write := func(col int, v string) {
			if v == "" {
				return
			}
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
		write(1, ev.Course)
		write(2, ev.Title)
		write(3, string(ev.Type))
		write(4, ev.Date)
		write(5, ev.Clock())
		write(6, ev.Weight)
		write(7, truncate(ev.Notes, 240))
	}

	_ = f.SetColWidth(sheetName, "A", "A", 22) // course
	_ = f.SetColWidth(sheetName, "B", "B", 36) // title
	_ = f.SetColWidth(sheetName, "C", "C", 12) // type
	_ = f.SetColWidth(sheetName, "D", "E", 12) // date, time
	_ = f.SetColWidth(sheetName, "F", "F", 10) // weight
	_ = f.SetColWidth(sheetName, "G", "G", 48) // notes

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
