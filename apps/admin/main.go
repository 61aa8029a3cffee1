package main

import (
	"context"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/calendar"
	"github.com/trezcool/studydesk/core/course"
	"github.com/trezcool/studydesk/core/schedule"
	"github.com/trezcool/studydesk/core/user"
	appfs "github.com/trezcool/studydesk/fs"
	emailsvc "github.com/trezcool/studydesk/services/email"
	"github.com/trezcool/studydesk/services/gcal"
	genaisvc "github.com/trezcool/studydesk/services/genai"
	logsvc "github.com/trezcool/studydesk/services/logger"
	"github.com/trezcool/studydesk/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(os.Stderr, conf)
	defer logger.Close()
	schedule.SetLogger(logger)

	// set up DB
	repos, err := storage.Open(ctx, conf, storage.SkipMigrations())
	if err != nil {
		logger.Error("opening database", err)
		return 1
	}
	defer func() { _ = repos.Close(ctx) }()

	// set up services
	calendarSvc, closeFn, err := newCalendarService(ctx, conf, logger, repos)
	if err != nil {
		logger.Error("setting up calendar service", err)
		return 1
	}
	defer closeFn()

	// start CLI
	cli := commandLine{
		repos:       repos,
		calendarSvc: calendarSvc,
		out:         os.Stdout,
		now:         time.Now,
		loc:         conf.Location(),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		return 1
	}
	return 0
}

func newCalendarService(
	ctx context.Context,
	conf *core.Config,
	logger core.Logger,
	repos *storage.Repositories,
) (*calendar.Service, func(), error) {
	core.ParseEmailTemplates(appfs.FS, conf, logger)
	mailSvc := emailsvc.NewConsoleService(conf, logger)
	if !conf.Debug {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	aiClient, err := genaisvc.NewClient(ctx, conf, logger)
	if err != nil {
		return nil, nil, err
	}
	var publisher calendar.Publisher = gcal.NewConsolePublisher(logger)
	if conf.Calendar.CredentialsFile != "" {
		if publisher, err = gcal.NewPublisher(ctx, conf, logger); err != nil {
			_ = aiClient.Close()
			return nil, nil, err
		}
	}

	usrSvc := user.NewService(repos.Users, mailSvc, conf)
	svc := calendar.NewService(course.NewService(repos.Courses), usrSvc, aiClient, publisher, mailSvc, conf, logger)
	return svc, func() { _ = aiClient.Close() }, nil
}
