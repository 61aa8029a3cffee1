package database

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/trezcool/studydesk/core"
	appfs "github.com/trezcool/studydesk/fs"
)

// Engines
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
	MongoDB  = "mongodb"
	Memory   = "memory"
)

const migrationsDir = "migrations"

// goose keeps its settings in globals
var gooseMu sync.Mutex

func init() {
	// modernc registers its driver as "sqlite", which sqlx does not know
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

func pgURL(dbName string, admin bool, conf *core.Config) string {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func sqliteDSN(conf *core.Config) string {
	return conf.Database.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// Open connects to the SQL database of conf.Database.Engine.
func Open(conf *core.Config) (*sqlx.DB, error) {
	switch conf.Database.Engine {
	case Postgres:
		return sqlx.Open("postgres", pgURL(conf.Database.Name, false, conf))
	case SQLite:
		db, err := sqlx.Open("sqlite", sqliteDSN(conf))
		if err != nil {
			return nil, err
		}
		// a single writer; an in-memory database only lives in its connection
		db.SetMaxOpenConns(1)
		return db, nil
	}
	return nil, errors.Errorf("%q is not a SQL engine", conf.Database.Engine)
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func exists(ctx context.Context, db *sqlx.DB, query, arg string) (bool, error) {
	var found []bool
	if err := db.SelectContext(ctx, &found, query, arg); err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func createAppUser(ctx context.Context, db *sqlx.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}

	found, err := exists(ctx, db, "SELECT true FROM pg_roles WHERE rolname = $1", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if !found {
		q := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD '%s'", conf.Database.User, conf.Database.Password)
		if _, err = db.ExecContext(ctx, q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(ctx context.Context, db *sqlx.DB, conf *core.Config) error {
	found, err := exists(ctx, db, "SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !found {
		if _, err = db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the Postgres app user and database. SQLite creates its file on open.
func CreateIfNotExist(ctx context.Context, conf *core.Config) error {
	if conf.Database.Engine != Postgres {
		return nil
	}

	// connect as admin
	admin, err := sqlx.Open("postgres", pgURL("postgres", true, conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = admin.Close() }()

	if err = ping(ctx, admin); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(ctx, admin, conf); err != nil {
		return err
	}

	// create DB as app user
	db, err := sqlx.Open("postgres", pgURL("postgres", false, conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()
	return createDB(ctx, db, conf)
}

// MigrationsDir returns the embedded migrations of the engine of db.
func MigrationsDir(db *sqlx.DB) string {
	return path.Join(migrationsDir, dialect(db))
}

func dialect(db *sqlx.DB) string {
	if db.DriverName() == "sqlite" {
		return SQLite
	}
	return Postgres
}

// RunMigrations runs a goose command ("up", "down", "status", "version", "redo", ...) on the embedded migrations.
func RunMigrations(ctx context.Context, db *sqlx.DB, command string, args ...string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect(dialect(db)); err != nil {
		return errors.Wrap(err, "setting migrations dialect")
	}
	if err := goose.RunContext(ctx, command, db.DB, MigrationsDir(db), args...); err != nil {
		return errors.Wrapf(err, "running migrations %s", command)
	}
	return nil
}

func Migrate(ctx context.Context, db *sqlx.DB) error {
	return RunMigrations(ctx, db, "up")
}

// SilenceMigrations stops goose from logging.
func SilenceMigrations() {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetLogger(goose.NopLogger())
}
