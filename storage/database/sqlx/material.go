package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studydesk/core/material"
)

const fileColumns = `id, owner_id, course_id, file_name, original_name, mime_type, size, uploaded_at`

type fileRow struct {
	ID           string      `db:"id"`
	OwnerID      string      `db:"owner_id"`
	CourseID     null.String `db:"course_id"`
	FileName     string      `db:"file_name"`
	OriginalName string      `db:"original_name"`
	MimeType     string      `db:"mime_type"`
	Size         int64       `db:"size"`
	Content      []byte      `db:"content"`
	UploadedAt   time.Time   `db:"uploaded_at"`
}

func boilFile(f material.File) fileRow {
	content := f.Content
	if content == nil {
		content = []byte{}
	}
	return fileRow{
		ID:           f.ID,
		OwnerID:      f.OwnerID,
		CourseID:     null.NewString(f.CourseID, f.CourseID != ""),
		FileName:     f.FileName,
		OriginalName: f.OriginalName,
		MimeType:     f.MimeType,
		Size:         f.Size,
		Content:      content,
		UploadedAt:   f.UploadedAt.UTC(),
	}
}

func (row fileRow) unboil() material.File {
	return material.File{
		ID:           row.ID,
		OwnerID:      row.OwnerID,
		CourseID:     row.CourseID.String,
		FileName:     row.FileName,
		OriginalName: row.OriginalName,
		MimeType:     row.MimeType,
		Size:         row.Size,
		Content:      row.Content,
		UploadedAt:   utc(row.UploadedAt),
	}
}

type materialRepository struct {
	db *sqlx.DB
}

var _ material.Repository = (*materialRepository)(nil)

func NewMaterialRepository(db *sqlx.DB) material.Repository {
	return &materialRepository{db: db}
}

func (repo *materialRepository) CreateFile(ctx context.Context, f material.File) (material.File, error) {
	q := `INSERT INTO material (` + fileColumns + `, content) VALUES (:id, :owner_id, :course_id, :file_name,
		:original_name, :mime_type, :size, :uploaded_at, :content)`
	if _, err := repo.db.NamedExecContext(ctx, q, boilFile(f)); err != nil {
		return material.File{}, errors.Wrap(err, "inserting file")
	}
	return repo.GetFile(ctx, f.ID)
}

func (repo *materialRepository) GetFile(ctx context.Context, id string) (material.File, error) {
	var row fileRow
	q := repo.db.Rebind(`SELECT ` + fileColumns + `, content FROM material WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return material.File{}, trapNoRowsErr(err, material.ErrNotFound, "finding file")
	}
	return row.unboil(), nil
}

func (repo *materialRepository) QueryFiles(ctx context.Context, ownerID, courseID string) ([]material.File, error) {
	q := `SELECT ` + fileColumns + ` FROM material WHERE owner_id = ?`
	args := []interface{}{ownerID}
	if courseID != "" {
		q += ` AND course_id = ?`
		args = append(args, courseID)
	}
	q += ` ORDER BY uploaded_at DESC, id`

	var rows []fileRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying files")
	}

	files := make([]material.File, 0, len(rows))
	for _, row := range rows {
		files = append(files, row.unboil())
	}
	return files, nil
}

func (repo *materialRepository) DeleteFile(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM material WHERE id = ?`), id)
	if err != nil {
		return errors.Wrap(err, "deleting file")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return material.ErrNotFound
	}
	return nil
}
