package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/course"
	"github.com/trezcool/studydesk/core/material"
)

var tstamp = time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

func names(courses []course.Course) []string {
	out := make([]string, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.Name)
	}
	return out
}

func TestCourseRepository_QueryCourses(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepository(Open())

	for i, c := range []course.Course{
		{ID: "1", OwnerID: "u1", Name: "physics", SyllabusPDF: "data"},
		{ID: "2", OwnerID: "u1", Name: "Algebra", SyllabusPDF: "data", SyllabusProcessed: true},
		{ID: "3", OwnerID: "u1", Name: "chemistry"},
		{ID: "4", OwnerID: "u2", Name: "Biology", SyllabusPDF: "data"},
	} {
		c.CreatedAt = tstamp.Add(time.Duration(i) * time.Hour)
		_, err := repo.CreateCourse(ctx, c)
		require.NoError(t, err)
	}

	tests := []struct {
		name      string
		filter    course.QueryFilter
		orderings []core.DBOrdering
		want      []string
	}{
		{
			name:      "owner by name",
			filter:    course.QueryFilter{OwnerID: "u1"},
			orderings: []core.DBOrdering{{Field: "name", Ascending: true}},
			want:      []string{"Algebra", "chemistry", "physics"},
		},
		{
			name:      "owner newest first",
			filter:    course.QueryFilter{OwnerID: "u1"},
			orderings: []core.DBOrdering{{Field: "created_at"}},
			want:      []string{"chemistry", "Algebra", "physics"},
		},
		{
			name:      "pending syllabi of every owner",
			filter:    course.QueryFilter{PendingSyllabus: true},
			orderings: []core.DBOrdering{{Field: "name", Ascending: true}},
			want:      []string{"Biology", "physics"},
		},
		{name: "unknown owner", filter: course.QueryFilter{OwnerID: "u3"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.QueryCourses(ctx, tt.filter, tt.orderings...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestCourseRepository_UpdateCourse(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepository(Open())

	created, err := repo.CreateCourse(ctx, course.Course{ID: "1", OwnerID: "u1", Name: "Physics", CreatedAt: tstamp, Times: []string{"Lecture: Mon 9:00-10:00"}})
	require.NoError(t, err)

	// returned copies do not share memory with the table
	created.Times[0] = "changed"
	got, err := repo.GetCourse(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lecture: Mon 9:00-10:00"}, got.Times)

	got.OwnerID = "u2"
	got.CreatedAt = time.Time{}
	got.Name = "Physics II"
	updated, err := repo.UpdateCourse(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Physics II", updated.Name)
	assert.Equal(t, "u1", updated.OwnerID)
	assert.True(t, updated.CreatedAt.Equal(tstamp))

	_, err = repo.UpdateCourse(ctx, course.Course{ID: "nope"})
	assert.ErrorIs(t, err, course.ErrNotFound)

	require.NoError(t, repo.DeleteCourse(ctx, "1"))
	_, err = repo.GetCourse(ctx, "1")
	assert.ErrorIs(t, err, course.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteCourse(ctx, "1"), course.ErrNotFound)
}

func TestMaterialRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMaterialRepository(Open())

	for i, f := range []material.File{
		{ID: "a", OwnerID: "u1", CourseID: "c1", FileName: "a.pdf"},
		{ID: "b", OwnerID: "u1", CourseID: "c2", FileName: "b.pdf"},
		{ID: "c", OwnerID: "u1", CourseID: "c1", FileName: "c.pdf"},
		{ID: "d", OwnerID: "u2", CourseID: "c1", FileName: "d.pdf"},
	} {
		f.Content = []byte("%PDF")
		f.UploadedAt = tstamp.Add(time.Duration(i) * time.Minute)
		_, err := repo.CreateFile(ctx, f)
		require.NoError(t, err)
	}

	files, err := repo.QueryFiles(ctx, "u1", "c1")
	require.NoError(t, err)
	if assert.Len(t, files, 2) {
		assert.Equal(t, "c", files[0].ID, "newest first")
		assert.Equal(t, "a", files[1].ID)
		assert.Nil(t, files[0].Content, "listing does not load contents")
	}

	files, err = repo.QueryFiles(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	f, err := repo.GetFile(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), f.Content)

	require.NoError(t, repo.DeleteFile(ctx, "a"))
	_, err = repo.GetFile(ctx, "a")
	assert.ErrorIs(t, err, material.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteFile(ctx, "a"), material.ErrNotFound)
}
