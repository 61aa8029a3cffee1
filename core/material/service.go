package material

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/studydesk/core"
)

const nameAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	// errors
	ErrNotFound = core.NewNotFoundError("file")
	ErrNoFile   = errors.New("no file provided")
)

type (
	Repository interface {
		CreateFile(ctx context.Context, f File) (File, error)
		GetFile(ctx context.Context, id string) (File, error)
		// QueryFiles returns the files of ownerID without their content. An empty courseID matches every course.
		QueryFiles(ctx context.Context, ownerID, courseID string) ([]File, error)
		DeleteFile(ctx context.Context, id string) error
	}

	// InfoExtractor finds the title and summary of a lecture material.
	InfoExtractor interface {
		ExtractLectureInfo(ctx context.Context, name, mimeType string, content []byte) (LectureInfo, error)
	}

	// Extractors are tried in order until one succeeds.
	Extractors []InfoExtractor

	ServiceInterface interface {
		Upload(ctx context.Context, ownerID string, up Upload) (File, error)
		Get(ctx context.Context, ownerID, id string) (File, error)
		Query(ctx context.Context, ownerID, courseID string) ([]File, error)
		Delete(ctx context.Context, ownerID, id string) error
		LectureInfo(ctx context.Context, name, mimeType string, content []byte) LectureInfo
	}

	Service struct {
		repo         Repository
		extractors   Extractors
		maxSize      int64
		allowedTypes []string
		logger       core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, conf *core.Config, logger core.Logger, extractors Extractors) *Service {
	return &Service{
		repo:         repo,
		extractors:   extractors,
		maxSize:      int64(conf.Materials.MaxUploadMB) * 1024 * 1024,
		allowedTypes: conf.Materials.AllowedMimeTypes,
		logger:       logger,
	}
}

// Validate checks the size and the type of an upload.
func (svc *Service) Validate(up Upload) error {
	fieldErr := func(msg string) error {
		return core.NewValidationError(errors.New(msg), core.FieldError{Field: "file", Error: msg})
	}

	if len(up.Content) == 0 || up.OriginalName == "" {
		return fieldErr(ErrNoFile.Error())
	}
	if svc.maxSize > 0 && int64(len(up.Content)) > svc.maxSize {
		return fieldErr(fmt.Sprintf("file size exceeds the maximum allowed size of %dMB", svc.maxSize/(1024*1024)))
	}
	if len(svc.allowedTypes) > 0 {
		mimeType := baseMimeType(up.MimeType)
		for _, allowed := range svc.allowedTypes {
			if strings.EqualFold(mimeType, allowed) {
				return nil
			}
		}
		return fieldErr("invalid file type. Allowed types: " + strings.Join(svc.allowedTypes, ", "))
	}
	return nil
}

func (svc *Service) Upload(ctx context.Context, ownerID string, up Upload) (File, error) {
	if err := svc.Validate(up); err != nil {
		return File{}, err
	}

	origName := filepath.Base(strings.ReplaceAll(up.OriginalName, "\\", "/"))
	prefix, err := randomString(8)
	if err != nil {
		return File{}, errors.Wrap(err, "generating file name")
	}

	f := File{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		CourseID:     up.CourseID,
		FileName:     prefix + "_" + origName,
		OriginalName: origName,
		MimeType:     baseMimeType(up.MimeType),
		Size:         int64(len(up.Content)),
		Content:      up.Content,
		UploadedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateFile(ctx, f)
}

// Get returns the file id when it belongs to ownerID.
func (svc *Service) Get(ctx context.Context, ownerID, id string) (File, error) {
	f, err := svc.repo.GetFile(ctx, id)
	if err != nil {
		return File{}, err
	}
	if f.OwnerID != ownerID {
		return File{}, ErrNotFound
	}
	return f, nil
}

func (svc *Service) Query(ctx context.Context, ownerID, courseID string) ([]File, error) {
	return svc.repo.QueryFiles(ctx, ownerID, courseID)
}

func (svc *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := svc.Get(ctx, ownerID, id); err != nil {
		return err
	}
	return svc.repo.DeleteFile(ctx, id)
}

// LectureInfo asks each extractor in turn and falls back on the file name.
func (svc *Service) LectureInfo(ctx context.Context, name, mimeType string, content []byte) LectureInfo {
	for _, ext := range svc.extractors {
		info, err := ext.ExtractLectureInfo(ctx, name, baseMimeType(mimeType), content)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("material: extracting lecture info of %q: %v", name, err))
			continue
		}
		if strings.TrimSpace(info.Title) != "" {
			return info
		}
	}
	return infoFromFilename(name)
}

// baseMimeType drops the parameters: "text/html; charset=utf-8" -> "text/html".
func baseMimeType(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(nameAlphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = nameAlphabet[idx.Int64()]
	}
	return string(b), nil
}
