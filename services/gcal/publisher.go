// Package gcal publishes syllabus due dates to a Google Calendar.
package gcal

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/calendar"
)

type Publisher struct {
	events     *gcalendar.EventsService
	calendarID string
	timeZone   string
	logger     core.Logger
}

var _ calendar.Publisher = (*Publisher)(nil)

// NewPublisher authenticates with the service account credentials of conf.Calendar.CredentialsFile.
func NewPublisher(ctx context.Context, conf *core.Config, logger core.Logger) (*Publisher, error) {
	svc, err := gcalendar.NewService(ctx,
		option.WithCredentialsFile(conf.Calendar.CredentialsFile),
		option.WithScopes(gcalendar.CalendarScope),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating Google Calendar service")
	}
	return &Publisher{
		events:     svc.Events,
		calendarID: conf.Calendar.CalendarID,
		timeZone:   conf.Calendar.TimeZone,
		logger:     logger,
	}, nil
}

// AddEvents inserts events one by one and stops at the first failure.
func (p *Publisher) AddEvents(ctx context.Context, events []calendar.Event) error {
	for _, e := range events {
		created, err := p.events.Insert(p.calendarID, toGoogleEvent(e, p.timeZone)).Context(ctx).Do()
		if err != nil {
			return errors.Wrapf(err, "inserting event %q", e.Title)
		}
		p.logger.Debug(fmt.Sprintf("gcal: event created: %s", created.HtmlLink))
	}
	return nil
}

func toGoogleEvent(e calendar.Event, timeZone string) *gcalendar.Event {
	ge := &gcalendar.Event{Summary: e.Title, Description: e.Description}
	if e.AllDay {
		end := e.End
		if !end.After(e.Start) {
			end = e.Start.AddDate(0, 0, 1)
		}
		ge.Start = &gcalendar.EventDateTime{Date: e.Start.Format("2006-01-02")}
		ge.End = &gcalendar.EventDateTime{Date: end.Format("2006-01-02")}
		return ge
	}

	end := e.End
	if !end.After(e.Start) {
		end = e.Start.Add(time.Hour)
	}
	ge.Start = &gcalendar.EventDateTime{DateTime: e.Start.Format(time.RFC3339), TimeZone: timeZone}
	ge.End = &gcalendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: timeZone}
	return ge
}

// ConsolePublisher only logs the events; used when no calendar credentials are configured.
type ConsolePublisher struct {
	logger core.Logger
}

var _ calendar.Publisher = (*ConsolePublisher)(nil)

func NewConsolePublisher(logger core.Logger) *ConsolePublisher {
	return &ConsolePublisher{logger: logger}
}

func (p *ConsolePublisher) AddEvents(_ context.Context, events []calendar.Event) error {
	for _, e := range events {
		p.logger.Info(fmt.Sprintf("calendar event: %s (%s - %s)", e.Title, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339)))
	}
	return nil
}
