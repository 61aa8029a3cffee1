package genaisvc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/trezcool/studydesk/core/calendar"
)

const dueDatesPrompt = `Extract every assignment, exam, quiz, project and other deadline listed in the attached course syllabus.
Times are in the %s time zone.

Return a JSON array with this structure:
[{"title": "Assignment 1", "description": "short details", "start": "2024-02-01T23:59:00", "end": "2024-02-01T23:59:00", "all_day": false}, ...]
Use "YYYY-MM-DD" dates and "all_day": true when the syllabus gives no time.
Return only valid JSON without any other text. Return [] when there is no due date.`

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"}

// ExtractDueDates sends the syllabus to the model and reads the due dates it lists.
func (c *Client) ExtractDueDates(ctx context.Context, pdf []byte) ([]calendar.Event, error) {
	tz := c.tz
	reply, err := c.generate(ctx,
		genai.Blob{MIMEType: "application/pdf", Data: pdf},
		genai.Text(fmt.Sprintf(dueDatesPrompt, tz)),
	)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return parseDueDates(reply, loc)
}

func parseDueDates(reply string, loc *time.Location) ([]calendar.Event, error) {
	cleaned := strings.TrimSpace(strings.NewReplacer("```json", "", "```", "").Replace(reply))
	if !gjson.Valid(cleaned) || !gjson.Parse(cleaned).IsArray() {
		return nil, errors.New("unparseable due dates reply")
	}

	events := make([]calendar.Event, 0)
	gjson.Parse(cleaned).ForEach(func(_, item gjson.Result) bool {
		title := strings.TrimSpace(item.Get("title").String())
		start, dateOnly, ok := parseDate(item.Get("start").String(), loc)
		if title == "" || !ok {
			return true
		}

		e := calendar.Event{
			Title:       title,
			Description: strings.TrimSpace(item.Get("description").String()),
			Start:       start,
			AllDay:      item.Get("all_day").Bool() || dateOnly,
		}
		if end, _, ok := parseDate(item.Get("end").String(), loc); ok && end.After(start) {
			e.End = end
		} else if e.AllDay {
			e.End = start.AddDate(0, 0, 1)
		} else {
			e.End = start.Add(time.Hour)
		}
		events = append(events, e)
		return true
	})
	return events, nil
}

func parseDate(s string, loc *time.Location) (t time.Time, dateOnly, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, false, true
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, true, true
	}
	return time.Time{}, false, false
}
