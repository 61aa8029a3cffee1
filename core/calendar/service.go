package calendar

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/course"
	"github.com/trezcool/studydesk/core/schedule"
	"github.com/trezcool/studydesk/core/user"
)

const (
	digestHorizon = 7 * 24 * time.Hour
	digestICSName = "week.ics"
)

var (
	// errors
	ErrInvalidPDF = errors.New("invalid PDF data")
)

type (
	// Extractor finds the due dates listed in a syllabus.
	Extractor interface {
		ExtractDueDates(ctx context.Context, pdf []byte) ([]Event, error)
	}

	// Publisher adds events to an external calendar.
	Publisher interface {
		AddEvents(ctx context.Context, events []Event) error
	}

	ServiceInterface interface {
		ProcessSyllabi(ctx context.Context, ownerID string) (Report, error)
		Sweep(ctx context.Context) ([]Result, error)
		Feed(ctx context.Context, ownerID string, now time.Time) (string, error)
		SendDigests(ctx context.Context, now time.Time) (int, error)
	}

	Service struct {
		courses   course.ServiceInterface
		users     user.ServiceInterface
		extractor Extractor
		publisher Publisher
		mailSvc   core.EmailService
		logger    core.Logger
		loc       *time.Location
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(
	courses course.ServiceInterface,
	users user.ServiceInterface,
	extractor Extractor,
	publisher Publisher,
	mailSvc core.EmailService,
	conf *core.Config,
	logger core.Logger,
) *Service {
	loc, err := time.LoadLocation(conf.Calendar.TimeZone)
	if err != nil {
		logger.Warn(fmt.Sprintf("calendar: unknown time zone %q, using UTC", conf.Calendar.TimeZone))
		loc = time.UTC
	}
	return &Service{
		courses:   courses,
		users:     users,
		extractor: extractor,
		publisher: publisher,
		mailSvc:   mailSvc,
		logger:    logger,
		loc:       loc,
	}
}

// ProcessSyllabi extracts the due dates of every unprocessed syllabus of ownerID, publishes them
// and stores them on their course. A failing course does not stop the others.
func (svc *Service) ProcessSyllabi(ctx context.Context, ownerID string) (Report, error) {
	courses, err := svc.courses.PendingSyllabi(ctx, ownerID)
	if err != nil {
		return Report{}, errors.Wrap(err, "querying pending syllabi")
	}
	if len(courses) == 0 {
		return Report{Message: "No courses with unprocessed syllabi found", Results: []Result{}}, nil
	}

	results := make([]Result, 0, len(courses))
	for _, c := range courses {
		res := Result{CourseID: c.ID, CourseName: c.Name, Status: StatusSuccess}
		n, err := svc.processSyllabus(ctx, c)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("calendar: processing syllabus of course %s", c.ID), err)
			res.Status = StatusFailed
			res.Error = errors.Cause(err).Error()
		}
		res.EventsAdded = n
		results = append(results, res)
	}
	return Report{Message: "Processing complete", Results: results}, nil
}

func (svc *Service) processSyllabus(ctx context.Context, c course.Course) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, errors.Errorf("Processing failed: %v", r)
		}
	}()

	pdf, err := decodeSyllabus(c.SyllabusPDF)
	if err != nil {
		return 0, err
	}
	events, err := svc.extractor.ExtractDueDates(ctx, pdf)
	if err != nil {
		return 0, errors.Wrap(err, "extracting due dates")
	}
	if len(events) > 0 {
		if err := svc.publisher.AddEvents(ctx, events); err != nil {
			return 0, errors.Wrap(err, "publishing events")
		}
	}
	if _, err := svc.courses.MarkSyllabusProcessed(ctx, c.ID, toDueDates(events)); err != nil {
		return 0, errors.Wrap(err, "marking syllabus processed")
	}
	return len(events), nil
}

// decodeSyllabus accepts a data URL ("data:application/pdf;base64,...") or raw base64.
func decodeSyllabus(pdf string) ([]byte, error) {
	data := pdf
	if i := strings.LastIndex(pdf, ";base64,"); i >= 0 {
		data = pdf[i+len(";base64,"):]
	}
	data = strings.Join(strings.Fields(data), "")
	if data == "" {
		return nil, ErrInvalidPDF
	}
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		if b, err = base64.RawStdEncoding.DecodeString(data); err != nil {
			return nil, ErrInvalidPDF
		}
	}
	return b, nil
}

// Sweep processes the pending syllabi of every active user.
func (svc *Service) Sweep(ctx context.Context) ([]Result, error) {
	users, err := svc.users.QueryAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	var results []Result
	for _, usr := range users {
		if !usr.IsActive {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
		report, err := svc.ProcessSyllabi(ctx, usr.ID)
		if err != nil {
			svc.logger.Error("calendar: sweep", err, usr)
			continue
		}
		results = append(results, report.Results...)
	}
	return results, nil
}

// Feed returns the iCalendar feed of the courses of ownerID.
func (svc *Service) Feed(ctx context.Context, ownerID string, now time.Time) (string, error) {
	courses, err := svc.courses.Query(ctx, ownerID, core.DBOrdering{Field: "name", Ascending: true})
	if err != nil {
		return "", errors.Wrap(err, "querying courses")
	}
	return ExportICS(courses, now.In(svc.loc)).Serialize(), nil
}

// SendDigests e-mails every active user the sessions and the due dates of their week.
// It returns the number of e-mails sent.
func (svc *Service) SendDigests(ctx context.Context, now time.Time) (int, error) {
	users, err := svc.users.QueryAll(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying users")
	}

	now = now.In(svc.loc)
	var messages []*core.EmailMessage
	for _, usr := range users {
		if !usr.IsActive {
			continue
		}
		courses, err := svc.courses.Query(ctx, usr.ID, core.DBOrdering{Field: "name", Ascending: true})
		if err != nil {
			svc.logger.Error("calendar: digest", err, usr)
			continue
		}
		if len(courses) == 0 {
			continue
		}
		msg := &core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      "Your week ahead",
			TemplateName: "weekly_digest",
			TemplateData: digestData{Name: usr.Name, Courses: digestCourses(courses, now)},
		}
		if err := msg.Attach(strings.NewReader(ExportICS(courses, now).Serialize()), digestICSName, "text/calendar"); err != nil {
			svc.logger.Error("calendar: attaching digest calendar", err, usr)
		}
		messages = append(messages, msg)
	}
	if len(messages) > 0 {
		svc.mailSvc.SendMessages(messages...)
	}
	return len(messages), nil
}

func digestCourses(courses []course.Course, now time.Time) []digestCourse {
	horizon := now.Add(digestHorizon)
	out := make([]digestCourse, 0, len(courses))
	for _, c := range courses {
		dc := digestCourse{Name: c.Name, ProfName: c.ProfName, Sessions: schedule.Upcoming(c.Times, now, 0)}
		for _, d := range c.DueDates {
			if !d.Start.Before(now) && d.Start.Before(horizon) {
				dc.DueDates = append(dc.DueDates, d)
			}
		}
		out = append(out, dc)
	}
	return out
}
