package course

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/schedule"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("course")

	// OrderingFields are the fields courses can be ordered by.
	OrderingFields  = []string{"name", "created_at", "updated_at"}
	defaultOrdering = core.DBOrdering{Field: "created_at", Ascending: false}
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		QueryCourses(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		// UpdateCourse saves every field of c but OwnerID and CreatedAt.
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, ownerID string, nc NewCourse) (Course, error)
		Query(ctx context.Context, ownerID string, orderings ...core.DBOrdering) ([]Course, error)
		Get(ctx context.Context, ownerID, id string) (Course, error)
		Update(ctx context.Context, ownerID, id string, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, ownerID, id string) error
		PendingSyllabi(ctx context.Context, ownerID string) ([]Course, error)
		MarkSyllabusProcessed(ctx context.Context, id string, dueDates []DueDate) (Course, error)
		Sessions(c Course, now time.Time, limit int) []schedule.Session
		Overview(ctx context.Context, ownerID string, now time.Time) ([]Overview, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ownerID string, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	notes := make([]LectureNote, 0, len(nc.LectureNotes))
	for _, n := range nc.LectureNotes {
		notes = append(notes, withID(n))
	}

	c := Course{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Name:         nc.Name,
		Description:  nc.Description,
		ProfName:     nc.ProfName,
		SyllabusPDF:  nc.SyllabusPDF,
		LectureNotes: notes,
		Times:        nc.Times,
		DueDates:     []DueDate{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if c.Times == nil {
		c.Times = []string{}
	}
	return svc.repo.CreateCourse(ctx, c)
}

func (svc *Service) Query(ctx context.Context, ownerID string, orderings ...core.DBOrdering) ([]Course, error) {
	orderings = core.FilterOrderings(orderings, OrderingFields...)
	if len(orderings) == 0 {
		orderings = []core.DBOrdering{defaultOrdering}
	}
	return svc.repo.QueryCourses(ctx, QueryFilter{OwnerID: ownerID}, orderings...)
}

// Get returns the course id when it belongs to ownerID.
func (svc *Service) Get(ctx context.Context, ownerID, id string) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if c.OwnerID != ownerID {
		return Course{}, ErrNotFound
	}
	return c, nil
}

func (svc *Service) Update(ctx context.Context, ownerID, id string, uc UpdateCourse) (Course, error) {
	c, err := svc.Get(ctx, ownerID, id)
	if err != nil {
		return Course{}, err
	}
	c = uc.apply(c)
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := svc.Get(ctx, ownerID, id); err != nil {
		return err
	}
	return svc.repo.DeleteCourse(ctx, id)
}

// PendingSyllabi returns the courses of ownerID whose syllabus due dates were not extracted yet.
func (svc *Service) PendingSyllabi(ctx context.Context, ownerID string) ([]Course, error) {
	return svc.repo.QueryCourses(
		ctx,
		QueryFilter{OwnerID: ownerID, PendingSyllabus: true},
		core.DBOrdering{Field: "created_at", Ascending: true},
	)
}

// MarkSyllabusProcessed stores the due dates extracted from the syllabus of course id.
func (svc *Service) MarkSyllabusProcessed(ctx context.Context, id string, dueDates []DueDate) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if dueDates == nil {
		dueDates = []DueDate{}
	}
	c.SyllabusProcessed = true
	c.DueDates = dueDates
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

// Sessions returns the next sessions of c, nearest first.
func (svc *Service) Sessions(c Course, now time.Time, limit int) []schedule.Session {
	return schedule.Upcoming(c.Times, now, limit)
}

// Overview returns the dashboard cards of ownerID: courses with a known next lecture come first,
// nearest first, then the others in name order.
func (svc *Service) Overview(ctx context.Context, ownerID string, now time.Time) ([]Overview, error) {
	courses, err := svc.repo.QueryCourses(
		ctx,
		QueryFilter{OwnerID: ownerID},
		core.DBOrdering{Field: "name", Ascending: true},
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	overviews := make([]Overview, 0, len(courses))
	for _, c := range courses {
		ov := Overview{CourseID: c.ID, CourseName: c.Name, ProfName: c.ProfName}
		if next, ok := schedule.NextLecture(c.Times, now); ok {
			ov.NextLecture = &next
			if days, ok := schedule.DaysUntil(next, now); ok {
				ov.DaysUntil = &days
			}
		}
		overviews = append(overviews, ov)
	}

	sort.SliceStable(overviews, func(i, j int) bool {
		a, b := overviews[i].NextLecture, overviews[j].NextLecture
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return schedule.Compare(*a, *b, now) < 0
	})
	return overviews, nil
}
