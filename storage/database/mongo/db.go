// Package mongorepos implements the repositories on MongoDB.
package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/studydesk/core"
)

const (
	usersCollection     = "users"
	coursesCollection   = "courses"
	materialsCollection = "materials"
)

// Open connects to conf.Database.URI and returns the conf.Database.Name database.
func Open(ctx context.Context, conf *core.Config) (*mongo.Database, error) {
	opts := options.Client().
		ApplyURI(conf.Database.URI).
		SetAppName(conf.AppName).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "pinging mongodb")
	}
	return client.Database(conf.Database.Name), nil
}

// Close disconnects the client of db.
func Close(ctx context.Context, db *mongo.Database) error {
	return db.Client().Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories rely on. It is the mongodb counterpart of the SQL migrations.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		coursesCollection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		},
		materialsCollection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "uploaded_at", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

// trapNoDocsErr maps the mongo "no documents" err to notFound.
func trapNoDocsErr(err error, notFound error, msg string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func sortBy(orderings []core.DBOrdering, fields map[string]string) bson.D {
	sort := make(bson.D, 0, len(orderings)+1)
	for _, ord := range orderings {
		field, ok := fields[ord.Field]
		if !ok {
			continue
		}
		direction := -1
		if ord.Ascending {
			direction = 1
		}
		sort = append(sort, bson.E{Key: field, Value: direction})
	}
	return append(sort, bson.E{Key: "_id", Value: 1})
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
