package course

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/schedule"
)

type (
	Course struct {
		ID                string        `json:"id"`
		OwnerID           string        `json:"owner_id"`
		Name              string        `json:"name"`
		Description       string        `json:"description"`
		ProfName          string        `json:"prof_name"`
		SyllabusPDF       string        `json:"syllabus_pdf,omitempty"` // data URL or raw base64
		SyllabusProcessed bool          `json:"syllabus_processed"`
		LectureNotes      []LectureNote `json:"lecture_notes"`
		Times             []string      `json:"times"` // eg. "Lecture: Wed 8:00-09:00"
		DueDates          []DueDate     `json:"due_dates"`
		CreatedAt         time.Time     `json:"created_at"` // UTC
		UpdatedAt         time.Time     `json:"updated_at"` // UTC
	}

	LectureNote struct {
		ID       string     `json:"id"`
		Title    string     `json:"title,omitempty"`
		Name     string     `json:"name,omitempty"`
		FileName string     `json:"file_name,omitempty"`
		FileType string     `json:"file_type,omitempty"`
		Summary  string     `json:"summary,omitempty"`
		Date     string     `json:"date,omitempty"`
		Files    []NoteFile `json:"files,omitempty" validate:"dive"`
	}

	NoteFile struct {
		Name string `json:"name" validate:"required"`
		URL  string `json:"url" validate:"required"`
	}

	// DueDate is an assignment or exam deadline found in the course syllabus.
	DueDate struct {
		Title       string    `json:"title"`
		Description string    `json:"description,omitempty"`
		Start       time.Time `json:"start"`
		End         time.Time `json:"end"`
		AllDay      bool      `json:"all_day"`
	}
)

// HasPendingSyllabus reports whether the due dates of the course syllabus still have to be extracted.
func (c Course) HasPendingSyllabus() bool {
	return !c.SyllabusProcessed && strings.TrimSpace(c.SyllabusPDF) != ""
}

// Label is how the lecture note is shown: its title, else its name, else its file name.
func (n LectureNote) Label() string {
	switch {
	case n.Title != "":
		return n.Title
	case n.Name != "":
		return n.Name
	}
	return n.FileName
}

// merge overrides the fields of n that are set on other.
func (n LectureNote) merge(other LectureNote) LectureNote {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	set(&n.Title, other.Title)
	set(&n.Name, other.Name)
	set(&n.FileName, other.FileName)
	set(&n.FileType, other.FileType)
	set(&n.Summary, other.Summary)
	set(&n.Date, other.Date)
	if other.Files != nil {
		n.Files = other.Files
	}
	return n
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name         string        `json:"name" validate:"required,notblank,max=200"`
	Description  string        `json:"description"`
	ProfName     string        `json:"prof_name" validate:"max=200"`
	SyllabusPDF  string        `json:"syllabus_pdf"`
	LectureNotes []LectureNote `json:"lecture_notes" validate:"dive"`
	Times        []string      `json:"times" validate:"omitempty,sessiontime"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.ProfName = core.CleanString(nc.ProfName)
	nc.Times = cleanTimes(nc.Times)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Nil fields are left untouched.
type UpdateCourse struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=200"`
	Description *string `json:"description"`
	ProfName    *string `json:"prof_name" validate:"omitempty,max=200"`
	// SyllabusPDF replaces the syllabus; its due dates will be extracted again.
	SyllabusPDF *string `json:"syllabus_pdf"`
	// LectureNotes are merged by ID into the existing notes.
	LectureNotes []LectureNote `json:"lecture_notes" validate:"dive"`
	Times        []string      `json:"times" validate:"omitempty,sessiontime"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	if uc.Name != nil {
		name := core.CleanString(*uc.Name)
		uc.Name = &name
	}
	if uc.ProfName != nil {
		prof := core.CleanString(*uc.ProfName)
		uc.ProfName = &prof
	}
	if uc.Times != nil {
		uc.Times = cleanTimes(uc.Times)
	}
	return validate.Struct(uc)
}

// apply returns c updated with uc.
func (uc UpdateCourse) apply(c Course) Course {
	if uc.Name != nil {
		c.Name = *uc.Name
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.ProfName != nil {
		c.ProfName = *uc.ProfName
	}
	if uc.SyllabusPDF != nil && *uc.SyllabusPDF != c.SyllabusPDF {
		c.SyllabusPDF = *uc.SyllabusPDF
		c.SyllabusProcessed = false
	}
	if uc.Times != nil {
		c.Times = uc.Times
	}
	if uc.LectureNotes != nil {
		c.LectureNotes = mergeNotes(c.LectureNotes, uc.LectureNotes)
	}
	return c
}

// mergeNotes updates the notes of current found in updates, by ID, and appends the others.
func mergeNotes(current, updates []LectureNote) []LectureNote {
	merged := append(make([]LectureNote, 0, len(current)+len(updates)), current...)
	index := make(map[string]int, len(merged))
	for i, n := range merged {
		index[n.ID] = i
	}

	for _, upd := range updates {
		if i, ok := index[upd.ID]; ok && upd.ID != "" {
			merged[i] = merged[i].merge(upd)
			continue
		}
		merged = append(merged, withID(upd))
		index[merged[len(merged)-1].ID] = len(merged) - 1
	}
	return merged
}

func withID(n LectureNote) LectureNote {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return n
}

func cleanTimes(times []string) []string {
	cleaned := make([]string, 0, len(times))
	for _, t := range times {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return cleaned
}

type QueryFilter struct {
	OwnerID string
	// PendingSyllabus only keeps the courses with a syllabus whose due dates were not extracted yet.
	PendingSyllabus bool
}

// Overview is the dashboard card of a course.
type Overview struct {
	CourseID    string            `json:"course_id"`
	CourseName  string            `json:"course_name"`
	ProfName    string            `json:"prof_name"`
	NextLecture *schedule.Session `json:"next_lecture"`
	DaysUntil   *int              `json:"days_until,omitempty"`
}
