package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/course"
)

const courseColumns = `id, owner_id, name, description, prof_name, syllabus_pdf, syllabus_processed,
	lecture_notes, times, due_dates, created_at, updated_at`

var courseOrderings = map[string]string{
	"name":       "LOWER(name)",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type courseRow struct {
	ID                string    `db:"id"`
	OwnerID           string    `db:"owner_id"`
	Name              string    `db:"name"`
	Description       string    `db:"description"`
	ProfName          string    `db:"prof_name"`
	SyllabusPDF       string    `db:"syllabus_pdf"`
	SyllabusProcessed bool      `db:"syllabus_processed"`
	LectureNotes      string    `db:"lecture_notes"`
	Times             string    `db:"times"`
	DueDates          string    `db:"due_dates"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func boilCourse(c course.Course) (courseRow, error) {
	row := courseRow{
		ID:                c.ID,
		OwnerID:           c.OwnerID,
		Name:              c.Name,
		Description:       c.Description,
		ProfName:          c.ProfName,
		SyllabusPDF:       c.SyllabusPDF,
		SyllabusProcessed: c.SyllabusProcessed,
		CreatedAt:         c.CreatedAt.UTC(),
		UpdatedAt:         c.UpdatedAt.UTC(),
	}

	var err error
	if row.LectureNotes, err = toJSON(nonNil(c.LectureNotes)); err != nil {
		return row, err
	}
	if row.Times, err = toJSON(nonNil(c.Times)); err != nil {
		return row, err
	}
	row.DueDates, err = toJSON(nonNil(c.DueDates))
	return row, err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (row courseRow) unboil() (course.Course, error) {
	c := course.Course{
		ID:                row.ID,
		OwnerID:           row.OwnerID,
		Name:              row.Name,
		Description:       row.Description,
		ProfName:          row.ProfName,
		SyllabusPDF:       row.SyllabusPDF,
		SyllabusProcessed: row.SyllabusProcessed,
		LectureNotes:      []course.LectureNote{},
		Times:             []string{},
		DueDates:          []course.DueDate{},
		CreatedAt:         utc(row.CreatedAt),
		UpdatedAt:         utc(row.UpdatedAt),
	}
	if err := fromJSON(row.LectureNotes, &c.LectureNotes); err != nil {
		return c, err
	}
	if err := fromJSON(row.Times, &c.Times); err != nil {
		return c, err
	}
	return c, fromJSON(row.DueDates, &c.DueDates)
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	row, err := boilCourse(c)
	if err != nil {
		return course.Course{}, err
	}

	q := `INSERT INTO course (` + courseColumns + `) VALUES (:id, :owner_id, :name, :description, :prof_name,
		:syllabus_pdf, :syllabus_processed, :lecture_notes, :times, :due_dates, :created_at, :updated_at)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.GetCourse(ctx, c.ID)
}

func (repo *courseRepository) QueryCourses(
	ctx context.Context,
	filter course.QueryFilter,
	orderings ...core.DBOrdering,
) ([]course.Course, error) {
	q := `SELECT ` + courseColumns + ` FROM course WHERE 1 = 1`
	var args []interface{}
	if filter.OwnerID != "" {
		q += ` AND owner_id = ?`
		args = append(args, filter.OwnerID)
	}
	if filter.PendingSyllabus {
		q += ` AND syllabus_processed = ? AND TRIM(syllabus_pdf) <> ''`
		args = append(args, false)
	}
	q += orderBy(orderings, courseOrderings, "id")

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		c, err := row.unboil()
		if err != nil {
			return nil, errors.Wrapf(err, "reading course %s", row.ID)
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	q := repo.db.Rebind(`SELECT ` + courseColumns + ` FROM course WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return row.unboil()
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	row, err := boilCourse(c)
	if err != nil {
		return course.Course{}, err
	}

	q := `UPDATE course SET name = :name, description = :description, prof_name = :prof_name,
		syllabus_pdf = :syllabus_pdf, syllabus_processed = :syllabus_processed, lecture_notes = :lecture_notes,
		times = :times, due_dates = :due_dates, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourse(ctx, c.ID)
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM course WHERE id = ?`), id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrNotFound
	}
	return nil
}
