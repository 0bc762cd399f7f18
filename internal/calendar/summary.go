package calendar

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
)

type courseGroup struct {
	name   string
	events []entity.DeadlineEvent
}

// groupByCourse keeps first-appearance order of courses and of events within a course.
func groupByCourse(events []entity.DeadlineEvent) []courseGroup {
	var groups []courseGroup
	index := map[string]int{}
	for _, ev := range events {
		name := strings.TrimSpace(ev.Course)
		if name == "" {
			name = constants.UnknownCourse
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, courseGroup{name: name})
		}
		groups[i].events = append(groups[i].events, ev)
	}
	return groups
}

func summaryLine(ev entity.DeadlineEvent) string {
	line := ev.Title + descSeparator + FormatDate(ev.Date)
	if !ev.AllDay() {
		line += " at " + FormatTime(ev.Clock())
	}
	return line
}

// Summary renders a plain-text digest: one header per course, then indented bullets.
func Summary(events []entity.DeadlineEvent) string {
	groups := groupByCourse(events)
	blocks := make([]string, 0, len(groups))
	for _, g := range groups {
		lines := []string{g.name}
		for _, ev := range g.events {
			lines = append(lines, "  - "+summaryLine(ev))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`",
	"[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "#", `\#`,
)

// SummaryMarkdown is the same digest laid out as Markdown.
func SummaryMarkdown(events []entity.DeadlineEvent) string {
	var b strings.Builder
	for i, g := range groupByCourse(events) {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## " + mdEscaper.Replace(g.name) + "\n\n")
		for _, ev := range g.events {
			b.WriteString("- " + mdEscaper.Replace(summaryLine(ev)) + "\n")
		}
	}
	return b.String()
}

// SummaryHTML renders the Markdown digest to an HTML fragment.
func SummaryHTML(events []entity.DeadlineEvent) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(SummaryMarkdown(events)), &buf); err != nil {
		return "", common.KindError(common.KindInternal, err)
	}
	return buf.String(), nil
}
