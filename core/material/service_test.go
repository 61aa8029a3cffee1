package material_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/material"
	inmemdb "github.com/trezcool/studydesk/storage/database/inmem"
)

type fakeExtractor struct {
	info  material.LectureInfo
	err   error
	calls int
}

func (ext *fakeExtractor) ExtractLectureInfo(context.Context, string, string, []byte) (material.LectureInfo, error) {
	ext.calls++
	return ext.info, ext.err
}

func setup(extractors ...material.InfoExtractor) *material.Service {
	conf := core.NewTestConfig()
	conf.Materials.MaxUploadMB = 1
	conf.Materials.AllowedMimeTypes = []string{"application/pdf", "text/html"}
	repo := inmemdb.NewMaterialRepository(inmemdb.Open())
	return material.NewService(repo, conf, core.DiscardLogger, extractors)
}

func TestService_Validate(t *testing.T) {
	svc := setup()

	tests := []struct {
		name    string
		upload  material.Upload
		wantErr string
	}{
		{name: "no file", upload: material.Upload{}, wantErr: "no file provided"},
		{name: "empty file", upload: material.Upload{OriginalName: "a.pdf", MimeType: "application/pdf"}, wantErr: "no file provided"},
		{
			name:    "too big",
			upload:  material.Upload{OriginalName: "a.pdf", MimeType: "application/pdf", Content: make([]byte, 1024*1024+1)},
			wantErr: "file size exceeds the maximum allowed size of 1MB",
		},
		{
			name:    "wrong type",
			upload:  material.Upload{OriginalName: "a.exe", MimeType: "application/octet-stream", Content: []byte("MZ")},
			wantErr: "invalid file type. Allowed types: application/pdf, text/html",
		},
		{name: "type with parameters", upload: material.Upload{OriginalName: "a.html", MimeType: "text/html; charset=utf-8", Content: []byte("<p>")}},
		{name: "ok", upload: material.Upload{OriginalName: "a.pdf", MimeType: "Application/PDF", Content: []byte("%PDF")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Validate(tt.upload)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *core.ValidationError
			require.True(t, errors.As(err, &vErr), "error = %v", err)
			require.Len(t, vErr.Fields, 1)
			assert.Equal(t, "file", vErr.Fields[0].Field)
			assert.Equal(t, tt.wantErr, vErr.Fields[0].Error)
		})
	}
}

func TestService_Upload(t *testing.T) {
	svc := setup()
	ctx := context.Background()

	f, err := svc.Upload(ctx, "owner", material.Upload{
		CourseID:     "c1",
		OriginalName: `C:\notes\Week 1.pdf`,
		MimeType:     "application/pdf",
		Content:      []byte("%PDF-1.4"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Week 1.pdf", f.OriginalName)
	assert.Len(t, f.FileName, len("12345678_Week 1.pdf"))
	assert.True(t, strings.HasSuffix(f.FileName, "_Week 1.pdf"))
	assert.EqualValues(t, 8, f.Size)

	got, err := svc.Get(ctx, "owner", f.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), got.Content)

	_, err = svc.Get(ctx, "intruder", f.ID)
	assert.True(t, core.IsNotFound(err))

	files, err := svc.Query(ctx, "owner", "c1")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Nil(t, files[0].Content)

	files, err = svc.Query(ctx, "owner", "c2")
	require.NoError(t, err)
	assert.Empty(t, files)

	assert.True(t, core.IsNotFound(svc.Delete(ctx, "intruder", f.ID)))
	require.NoError(t, svc.Delete(ctx, "owner", f.ID))
	_, err = svc.Get(ctx, "owner", f.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestService_LectureInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("first successful extractor wins", func(t *testing.T) {
		failing := &fakeExtractor{err: errors.New("unreachable")}
		empty := &fakeExtractor{info: material.LectureInfo{Title: "  "}}
		ok := &fakeExtractor{info: material.LectureInfo{Title: "Graphs", Summary: "BFS and DFS", Source: material.SourceExtractor}}
		unused := &fakeExtractor{}

		info := setup(failing, empty, ok, unused).LectureInfo(ctx, "w3.pdf", "application/pdf", []byte("%PDF"))
		assert.Equal(t, ok.info, info)
		assert.Equal(t, 1, failing.calls)
		assert.Equal(t, 1, empty.calls)
		assert.Equal(t, 0, unused.calls)
	})

	t.Run("falls back on the file name", func(t *testing.T) {
		failing := &fakeExtractor{err: errors.New("unreachable")}

		info := setup(failing).LectureInfo(ctx, "uploads/Lecture 3.intro.pdf", "application/pdf", nil)
		assert.Equal(t, "Lecture 3", info.Title)
		assert.Equal(t, material.SourceFilename, info.Source)
		assert.True(t, strings.HasPrefix(info.Summary, "Content from Lecture 3.intro.pdf."))
		assert.Equal(t, "Title and summary generated from filename", info.Message)
	})

	t.Run("dot file", func(t *testing.T) {
		info := setup().LectureInfo(ctx, ".notes", "text/plain", nil)
		assert.Equal(t, ".notes", info.Title)
	})
}
