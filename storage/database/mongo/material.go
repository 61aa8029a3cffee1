package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/studydesk/core/material"
)

type fileDoc struct {
	ID           string    `bson:"_id"`
	OwnerID      string    `bson:"owner_id"`
	CourseID     string    `bson:"course_id"`
	FileName     string    `bson:"file_name"`
	OriginalName string    `bson:"original_name"`
	MimeType     string    `bson:"mime_type"`
	Size         int64     `bson:"size"`
	Content      []byte    `bson:"content,omitempty"`
	UploadedAt   time.Time `bson:"uploaded_at"`
}

func toFileDoc(f material.File) fileDoc {
	return fileDoc{
		ID:           f.ID,
		OwnerID:      f.OwnerID,
		CourseID:     f.CourseID,
		FileName:     f.FileName,
		OriginalName: f.OriginalName,
		MimeType:     f.MimeType,
		Size:         f.Size,
		Content:      f.Content,
		UploadedAt:   f.UploadedAt.UTC(),
	}
}

func (doc fileDoc) file() material.File {
	return material.File{
		ID:           doc.ID,
		OwnerID:      doc.OwnerID,
		CourseID:     doc.CourseID,
		FileName:     doc.FileName,
		OriginalName: doc.OriginalName,
		MimeType:     doc.MimeType,
		Size:         doc.Size,
		Content:      doc.Content,
		UploadedAt:   utc(doc.UploadedAt),
	}
}

type materialRepository struct {
	coll *mongo.Collection
}

var _ material.Repository = (*materialRepository)(nil)

func NewMaterialRepository(db *mongo.Database) material.Repository {
	return &materialRepository{coll: db.Collection(materialsCollection)}
}

func (repo *materialRepository) CreateFile(ctx context.Context, f material.File) (material.File, error) {
	if _, err := repo.coll.InsertOne(ctx, toFileDoc(f)); err != nil {
		return material.File{}, errors.Wrap(err, "inserting file")
	}
	return repo.GetFile(ctx, f.ID)
}

func (repo *materialRepository) GetFile(ctx context.Context, id string) (material.File, error) {
	var doc fileDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return material.File{}, trapNoDocsErr(err, material.ErrNotFound, "finding file")
	}
	return doc.file(), nil
}

func filesFilter(ownerID, courseID string) bson.M {
	filter := bson.M{"owner_id": ownerID}
	if courseID != "" {
		filter["course_id"] = courseID
	}
	return filter
}

func (repo *materialRepository) QueryFiles(ctx context.Context, ownerID, courseID string) ([]material.File, error) {
	opts := options.Find().
		SetProjection(bson.M{"content": 0}).
		SetSort(bson.D{{Key: "uploaded_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := repo.coll.Find(ctx, filesFilter(ownerID, courseID), opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying files")
	}

	var docs []fileDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "reading files")
	}
	files := make([]material.File, 0, len(docs))
	for _, doc := range docs {
		files = append(files, doc.file())
	}
	return files, nil
}

func (repo *materialRepository) DeleteFile(ctx context.Context, id string) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "deleting file")
	}
	if res.DeletedCount == 0 {
		return material.ErrNotFound
	}
	return nil
}
