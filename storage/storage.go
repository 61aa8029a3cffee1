// Package storage opens the repositories of the configured database engine.
package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/course"
	"github.com/trezcool/studydesk/core/material"
	"github.com/trezcool/studydesk/core/user"
	"github.com/trezcool/studydesk/storage/database"
	inmemdb "github.com/trezcool/studydesk/storage/database/inmem"
	mongorepos "github.com/trezcool/studydesk/storage/database/mongo"
	sqlxrepos "github.com/trezcool/studydesk/storage/database/sqlx"
)

var ErrUnknownEngine = errors.New("unknown database engine")

type Repositories struct {
	Engine    string
	Users     user.Repository
	Courses   course.Repository
	Materials material.Repository

	// SQL is set for the postgres and sqlite engines.
	SQL   *sqlx.DB
	mongo *mongo.Database
}

type options struct {
	skipMigrations bool
}

type Option func(o *options)

// SkipMigrations leaves the SQL schema alone, for the tools that manage it themselves.
func SkipMigrations() Option {
	return func(o *options) { o.skipMigrations = true }
}

// Open connects to the database of conf.Database.Engine and brings its schema up to date:
// SQL databases are created if needed and migrated, Mongo collections get their indexes.
func Open(ctx context.Context, conf *core.Config, opts ...Option) (*Repositories, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	repos := &Repositories{Engine: conf.Database.Engine}

	switch conf.Database.Engine {
	case database.Postgres, database.SQLite:
		if conf.Database.Engine == database.Postgres {
			if err := database.CreateIfNotExist(ctx, conf); err != nil {
				return nil, errors.Wrap(err, "creating database")
			}
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		if !o.skipMigrations {
			if err = database.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, errors.Wrap(err, "migrating database")
			}
		}
		repos.SQL = db
		repos.Users = sqlxrepos.NewUserRepository(db)
		repos.Courses = sqlxrepos.NewCourseRepository(db)
		repos.Materials = sqlxrepos.NewMaterialRepository(db)

	case database.MongoDB:
		db, err := mongorepos.Open(ctx, conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		if err = mongorepos.EnsureIndexes(ctx, db); err != nil {
			_ = mongorepos.Close(ctx, db)
			return nil, errors.Wrap(err, "creating indexes")
		}
		repos.mongo = db
		repos.Users = mongorepos.NewUserRepository(db)
		repos.Courses = mongorepos.NewCourseRepository(db)
		repos.Materials = mongorepos.NewMaterialRepository(db)

	case database.Memory:
		db := inmemdb.Open()
		repos.Users = inmemdb.NewUserRepository(db)
		repos.Courses = inmemdb.NewCourseRepository(db)
		repos.Materials = inmemdb.NewMaterialRepository(db)

	default:
		return nil, errors.Wrapf(ErrUnknownEngine, "%q", conf.Database.Engine)
	}
	return repos, nil
}

func (r *Repositories) Close(ctx context.Context) error {
	switch {
	case r.SQL != nil:
		return r.SQL.Close()
	case r.mongo != nil:
		return mongorepos.Close(ctx, r.mongo)
	}
	return nil
}
