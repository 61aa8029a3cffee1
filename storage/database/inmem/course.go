package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

// clone copies the slices so that callers never share memory with the table.
func cloneCourse(c course.Course) course.Course {
	c.Times = append([]string{}, c.Times...)
	c.DueDates = append([]course.DueDate{}, c.DueDates...)
	notes := make([]course.LectureNote, 0, len(c.LectureNotes))
	for _, n := range c.LectureNotes {
		if n.Files != nil {
			n.Files = append([]course.NoteFile{}, n.Files...)
		}
		notes = append(notes, n)
	}
	c.LectureNotes = notes
	return c
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c = cloneCourse(c)
	repo.db.table[c.ID] = &c
	return cloneCourse(c), nil
}

func (repo *courseRepository) QueryCourses(
	_ context.Context,
	filter course.QueryFilter,
	orderings ...core.DBOrdering,
) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0)
	for _, c := range repo.db.table {
		if filter.OwnerID != "" && c.OwnerID != filter.OwnerID {
			continue
		}
		if filter.PendingSyllabus && !c.HasPendingSyllabus() {
			continue
		}
		courses = append(courses, cloneCourse(*c))
	}

	sort.SliceStable(courses, func(i, j int) bool {
		for _, ord := range orderings {
			if cmp := compareCourses(courses[i], courses[j], ord.Field); cmp != 0 {
				if ord.Ascending {
					return cmp < 0
				}
				return cmp > 0
			}
		}
		return courses[i].ID < courses[j].ID
	})
	return courses, nil
}

func compareCourses(a, b course.Course, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return 0
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return cloneCourse(*c), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[c.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	c = cloneCourse(c)
	c.OwnerID = orig.OwnerID
	c.CreatedAt = orig.CreatedAt
	repo.db.table[c.ID] = &c
	return cloneCourse(c), nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
