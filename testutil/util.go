// Package testutil creates fixtures for the tests of the other packages.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/studydesk/core/course"
	"github.com/trezcool/studydesk/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CourseOption customizes the course made by CreateCourse.
type CourseOption func(c *course.Course)

func WithSyllabus(pdf string) CourseOption {
	return func(c *course.Course) { c.SyllabusPDF = pdf }
}

func WithProf(name string) CourseOption {
	return func(c *course.Course) { c.ProfName = name }
}

func WithNotes(notes ...course.LectureNote) CourseOption {
	return func(c *course.Course) { c.LectureNotes = notes }
}

func WithDueDates(dueDates ...course.DueDate) CourseOption {
	return func(c *course.Course) {
		c.DueDates = dueDates
		c.SyllabusProcessed = true
	}
}

func WithCreatedAt(tstamp time.Time) CourseOption {
	return func(c *course.Course) {
		c.CreatedAt = tstamp.UTC()
		c.UpdatedAt = tstamp.UTC()
	}
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	ownerID, name string,
	times []string,
	opts ...CourseOption,
) course.Course {
	t.Helper()
	tstamp := time.Now().UTC()
	if times == nil {
		times = []string{}
	}
	c := course.Course{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Name:         name,
		Times:        times,
		LectureNotes: []course.LectureNote{},
		DueDates:     []course.DueDate{},
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	}
	for _, opt := range opts {
		opt(&c)
	}
	c, err := repo.CreateCourse(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}
