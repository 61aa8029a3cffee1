package mongorepos

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/course"
	"github.com/trezcool/studydesk/core/schedule"
)

var courseSortFields = map[string]string{
	"name":       "name_key",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type (
	courseDoc struct {
		ID                string           `bson:"_id"`
		OwnerID           string           `bson:"owner_id"`
		Name              string           `bson:"name"`
		NameKey           string           `bson:"name_key"` // lower case name, for sorting
		Description       string           `bson:"description"`
		ProfName          string           `bson:"prof_name"`
		SyllabusPDF       string           `bson:"syllabus_pdf"`
		SyllabusProcessed bool             `bson:"syllabus_processed"`
		LectureNotes      []lectureNoteDoc `bson:"lecture_notes"`
		Times             interface{}      `bson:"times"` // legacy documents may hold non-string items
		DueDates          []dueDateDoc     `bson:"due_dates"`
		CreatedAt         time.Time        `bson:"created_at"`
		UpdatedAt         time.Time        `bson:"updated_at"`
	}

	lectureNoteDoc struct {
		ID       string        `bson:"id"`
		Title    string        `bson:"title,omitempty"`
		Name     string        `bson:"name,omitempty"`
		FileName string        `bson:"file_name,omitempty"`
		FileType string        `bson:"file_type,omitempty"`
		Summary  string        `bson:"summary,omitempty"`
		Date     string        `bson:"date,omitempty"`
		Files    []noteFileDoc `bson:"files,omitempty"`
	}

	noteFileDoc struct {
		Name string `bson:"name"`
		URL  string `bson:"url"`
	}

	dueDateDoc struct {
		Title       string    `bson:"title"`
		Description string    `bson:"description,omitempty"`
		Start       time.Time `bson:"start"`
		End         time.Time `bson:"end"`
		AllDay      bool      `bson:"all_day"`
	}
)

func toCourseDoc(c course.Course) courseDoc {
	doc := courseDoc{
		ID:                c.ID,
		OwnerID:           c.OwnerID,
		Name:              c.Name,
		NameKey:           strings.ToLower(c.Name),
		Description:       c.Description,
		ProfName:          c.ProfName,
		SyllabusPDF:       c.SyllabusPDF,
		SyllabusProcessed: c.SyllabusProcessed,
		LectureNotes:      make([]lectureNoteDoc, 0, len(c.LectureNotes)),
		Times:             append([]string{}, c.Times...),
		DueDates:          make([]dueDateDoc, 0, len(c.DueDates)),
		CreatedAt:         c.CreatedAt.UTC(),
		UpdatedAt:         c.UpdatedAt.UTC(),
	}
	for _, n := range c.LectureNotes {
		nd := lectureNoteDoc{
			ID:       n.ID,
			Title:    n.Title,
			Name:     n.Name,
			FileName: n.FileName,
			FileType: n.FileType,
			Summary:  n.Summary,
			Date:     n.Date,
		}
		for _, f := range n.Files {
			nd.Files = append(nd.Files, noteFileDoc(f))
		}
		doc.LectureNotes = append(doc.LectureNotes, nd)
	}
	for _, d := range c.DueDates {
		doc.DueDates = append(doc.DueDates, dueDateDoc{
			Title:       d.Title,
			Description: d.Description,
			Start:       d.Start.UTC(),
			End:         d.End.UTC(),
			AllDay:      d.AllDay,
		})
	}
	return doc
}

func (doc courseDoc) course() course.Course {
	c := course.Course{
		ID:                doc.ID,
		OwnerID:           doc.OwnerID,
		Name:              doc.Name,
		Description:       doc.Description,
		ProfName:          doc.ProfName,
		SyllabusPDF:       doc.SyllabusPDF,
		SyllabusProcessed: doc.SyllabusProcessed,
		LectureNotes:      make([]course.LectureNote, 0, len(doc.LectureNotes)),
		Times:             schedule.Entries(doc.Times),
		DueDates:          make([]course.DueDate, 0, len(doc.DueDates)),
		CreatedAt:         utc(doc.CreatedAt),
		UpdatedAt:         utc(doc.UpdatedAt),
	}
	for _, nd := range doc.LectureNotes {
		n := course.LectureNote{
			ID:       nd.ID,
			Title:    nd.Title,
			Name:     nd.Name,
			FileName: nd.FileName,
			FileType: nd.FileType,
			Summary:  nd.Summary,
			Date:     nd.Date,
		}
		for _, f := range nd.Files {
			n.Files = append(n.Files, course.NoteFile(f))
		}
		c.LectureNotes = append(c.LectureNotes, n)
	}
	for _, d := range doc.DueDates {
		c.DueDates = append(c.DueDates, course.DueDate{
			Title:       d.Title,
			Description: d.Description,
			Start:       utc(d.Start),
			End:         utc(d.End),
			AllDay:      d.AllDay,
		})
	}
	return c
}

func courseFilter(filter course.QueryFilter) bson.M {
	f := bson.M{}
	if filter.OwnerID != "" {
		f["owner_id"] = filter.OwnerID
	}
	if filter.PendingSyllabus {
		f["syllabus_processed"] = false
		// at least one non blank character
		f["syllabus_pdf"] = bson.M{"$regex": `\S`}
	}
	return f
}

type courseRepository struct {
	coll *mongo.Collection
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *mongo.Database) course.Repository {
	return &courseRepository{coll: db.Collection(coursesCollection)}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	if _, err := repo.coll.InsertOne(ctx, toCourseDoc(c)); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.GetCourse(ctx, c.ID)
}

func (repo *courseRepository) QueryCourses(
	ctx context.Context,
	filter course.QueryFilter,
	orderings ...core.DBOrdering,
) ([]course.Course, error) {
	opts := options.Find().SetSort(sortBy(orderings, courseSortFields))
	cur, err := repo.coll.Find(ctx, courseFilter(filter), opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	var docs []courseDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "reading courses")
	}
	courses := make([]course.Course, 0, len(docs))
	for _, doc := range docs {
		courses = append(courses, doc.course())
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var doc courseDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return course.Course{}, trapNoDocsErr(err, course.ErrNotFound, "finding course")
	}
	return doc.course(), nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	doc := toCourseDoc(c)
	set := bson.M{
		"name":               doc.Name,
		"name_key":           doc.NameKey,
		"description":        doc.Description,
		"prof_name":          doc.ProfName,
		"syllabus_pdf":       doc.SyllabusPDF,
		"syllabus_processed": doc.SyllabusProcessed,
		"lecture_notes":      doc.LectureNotes,
		"times":              doc.Times,
		"due_dates":          doc.DueDates,
		"updated_at":         doc.UpdatedAt,
	}
	res, err := repo.coll.UpdateByID(ctx, c.ID, bson.M{"$set": set})
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if res.MatchedCount == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourse(ctx, c.ID)
}

// DeleteCourse also detaches the files of the course, like the SQL foreign key does.
func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if res.DeletedCount == 0 {
		return course.ErrNotFound
	}

	files := repo.coll.Database().Collection(materialsCollection)
	if _, err = files.UpdateMany(ctx, bson.M{"course_id": id}, bson.M{"$set": bson.M{"course_id": ""}}); err != nil {
		return errors.Wrap(err, "detaching course files")
	}
	return nil
}
