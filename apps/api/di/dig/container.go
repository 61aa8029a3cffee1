package dig_container

import (
	"context"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/studydesk/apps/api/echo"
	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/calendar"
	"github.com/trezcool/studydesk/core/course"
	"github.com/trezcool/studydesk/core/material"
	"github.com/trezcool/studydesk/core/quiz"
	"github.com/trezcool/studydesk/core/schedule"
	"github.com/trezcool/studydesk/core/user"
	emailsvc "github.com/trezcool/studydesk/services/email"
	"github.com/trezcool/studydesk/services/gcal"
	genaisvc "github.com/trezcool/studydesk/services/genai"
	"github.com/trezcool/studydesk/services/lectureinfo"
	logsvc "github.com/trezcool/studydesk/services/logger"
	"github.com/trezcool/studydesk/storage"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Repositories spreads the repositories of the storage over the container.
	Repositories struct {
		dig.Out
		Storage   *storage.Repositories
		Users     user.Repository
		Courses   course.Repository
		Materials material.Repository
	}
)

func newRollbarLogger(conf *core.Config) *logsvc.RollbarLogger {
	logger := logsvc.NewRollbarLogger(os.Stdout, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newLogger(l *logsvc.RollbarLogger) core.Logger { return l }

func newDBLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(os.Stderr, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) Repositories {
	repos, err := storage.Open(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Fatal("setting up database", err)
		return Repositories{}
	}
	loggerParam.Logger.Info("database ready", map[string]interface{}{"engine": repos.Engine})
	return Repositories{
		Storage:   repos,
		Users:     repos.Users,
		Courses:   repos.Courses,
		Materials: repos.Materials,
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)
	quiz.InitValidators(validate, translator)
	return validate
}

func newAIClient(conf *core.Config, logger core.Logger) (*genaisvc.Client, error) {
	return genaisvc.NewClient(context.Background(), conf, logger)
}

func newGenerator(c *genaisvc.Client) quiz.Generator { return c }

func newDueDatesExtractor(c *genaisvc.Client) calendar.Extractor { return c }

// newPublisher falls back on logging the events when no Google credentials are configured.
func newPublisher(conf *core.Config, logger core.Logger) (calendar.Publisher, error) {
	if conf.Calendar.CredentialsFile == "" {
		return gcal.NewConsolePublisher(logger), nil
	}
	return gcal.NewPublisher(context.Background(), conf, logger)
}

func newLectureInfoExtractors(conf *core.Config) material.Extractors {
	var extractors material.Extractors
	if conf.Materials.ExtractorURL != "" {
		extractors = append(extractors, lectureinfo.NewRemoteExtractor(conf.Materials.ExtractorURL))
	}
	return append(extractors, lectureinfo.HTMLExtractor{})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newRollbarLogger))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newAIClient))
	must(c.Provide(newGenerator))
	must(c.Provide(newDueDatesExtractor))
	must(c.Provide(newPublisher))
	must(c.Provide(newLectureInfoExtractors))
	must(c.Provide(user.NewService, dig.As(new(user.ServiceInterface))))
	must(c.Provide(course.NewService, dig.As(new(course.ServiceInterface))))
	must(c.Provide(material.NewService, dig.As(new(material.ServiceInterface))))
	must(c.Provide(quiz.NewService, dig.As(new(quiz.ServiceInterface))))
	must(c.Provide(calendar.NewService, dig.As(new(calendar.ServiceInterface))))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
