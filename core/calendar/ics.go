package calendar

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/trezcool/studydesk/core/course"
	"github.com/trezcool/studydesk/core/schedule"
)

const productID = "-//StudyDesk//Course Calendar//EN"

// ExportICS builds a calendar with a weekly recurring event per course session, starting at its next
// occurrence after now, and an event per course due date.
func ExportICS(courses []course.Course, now time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName("StudyDesk")

	stamp := now.UTC()
	for _, c := range courses {
		for i, s := range schedule.ParseTimes(c.Times) {
			start, end, ok := s.NextOccurrence(now)
			if !ok {
				continue
			}
			event := cal.AddEvent(fmt.Sprintf("%s-session-%d@studydesk", c.ID, i))
			event.SetDtStampTime(stamp)
			event.SetSummary(fmt.Sprintf("%s %s", c.Name, s.Type))
			if c.ProfName != "" {
				event.SetDescription(c.ProfName)
			}
			event.SetStartAt(start)
			event.SetEndAt(end)
			event.AddRrule("FREQ=WEEKLY")
		}

		for i, d := range c.DueDates {
			event := cal.AddEvent(fmt.Sprintf("%s-due-%d@studydesk", c.ID, i))
			event.SetDtStampTime(stamp)
			event.SetSummary(fmt.Sprintf("%s: %s", c.Name, d.Title))
			if d.Description != "" {
				event.SetDescription(d.Description)
			}
			if d.AllDay {
				event.SetAllDayStartAt(d.Start)
				end := d.End
				if !end.After(d.Start) {
					end = d.Start.AddDate(0, 0, 1)
				}
				event.SetAllDayEndAt(end)
				continue
			}
			event.SetStartAt(d.Start)
			end := d.End
			if !end.After(d.Start) {
				end = d.Start.Add(time.Hour)
			}
			event.SetEndAt(end)
		}
	}
	return cal
}
