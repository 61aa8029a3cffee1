package calendar

import (
	"time"

	"github.com/trezcool/studydesk/core/course"
	"github.com/trezcool/studydesk/core/schedule"
)

// Statuses of a Result
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type (
	// Event is a due date found in a syllabus.
	Event struct {
		Title       string    `json:"title"`
		Description string    `json:"description,omitempty"`
		Start       time.Time `json:"start"`
		End         time.Time `json:"end"`
		AllDay      bool      `json:"all_day"`
	}

	// Result is the outcome of processing the syllabus of one course.
	Result struct {
		CourseID    string `json:"course_id"`
		CourseName  string `json:"course_name"`
		Status      string `json:"status"`
		EventsAdded int    `json:"events_added"`
		Error       string `json:"error,omitempty"`
	}

	Report struct {
		Message string   `json:"message"`
		Results []Result `json:"results"`
	}
)

func toDueDates(events []Event) []course.DueDate {
	dueDates := make([]course.DueDate, 0, len(events))
	for _, e := range events {
		dueDates = append(dueDates, course.DueDate(e))
	}
	return dueDates
}

// digest data of the weekly_digest e-mail template
type (
	digestData struct {
		Name    string
		Courses []digestCourse
	}

	digestCourse struct {
		Name     string
		ProfName string
		Sessions []schedule.Session
		DueDates []course.DueDate
	}
)
