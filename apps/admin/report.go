package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/course"
	"github.com/trezcool/studydesk/core/schedule"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	typeStyle   = lipgloss.NewStyle().Width(14).Foreground(lipgloss.Color("212"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// printSchedule lists the courses of the user owning email, each with its sessions nearest first.
func (cli *commandLine) printSchedule(ctx context.Context, email string, limit int) error {
	usr, err := cli.repos.Users.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	courses, err := cli.repos.Courses.QueryCourses(
		ctx,
		course.QueryFilter{OwnerID: usr.ID},
		core.DBOrdering{Field: "name", Ascending: true},
	)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if len(courses) == 0 {
		fmt.Fprintln(cli.out, mutedStyle.Render("No courses found"))
		return nil
	}

	now := cli.now()
	if cli.loc != nil {
		now = now.In(cli.loc)
	}
	var b strings.Builder
	for _, c := range courses {
		b.WriteString(headerStyle.Render(c.Name))
		if c.ProfName != "" {
			b.WriteString(" " + mutedStyle.Render(c.ProfName))
		}
		b.WriteString("\n")

		sessions := schedule.Upcoming(c.Times, now, limit)
		if len(sessions) == 0 {
			b.WriteString("  " + mutedStyle.Render("no sessions") + "\n")
		}
		for _, s := range sessions {
			b.WriteString("  " + typeStyle.Render(s.Type) + s.Slot() + "\n")
		}
		b.WriteString("\n")
	}
	fmt.Fprint(cli.out, b.String())
	return nil
}

func (cli *commandLine) sweep(ctx context.Context) error {
	results, err := cli.calendarSvc.Sweep(ctx)
	if err != nil {
		return errors.Wrap(err, "sweeping syllabi")
	}
	if len(results) == 0 {
		fmt.Fprintln(cli.out, mutedStyle.Render("No courses with unprocessed syllabi found"))
		return nil
	}
	for _, res := range results {
		line := fmt.Sprintf("%s: %s, %d events added", res.CourseName, res.Status, res.EventsAdded)
		if res.Error != "" {
			line = failedStyle.Render(line + " (" + res.Error + ")")
		}
		fmt.Fprintln(cli.out, line)
	}
	return nil
}
