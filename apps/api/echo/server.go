package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/dig"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/calendar"
	"github.com/trezcool/studydesk/core/course"
	"github.com/trezcool/studydesk/core/material"
	"github.com/trezcool/studydesk/core/quiz"
	"github.com/trezcool/studydesk/core/user"
)

type (
	ServerDeps struct {
		dig.In

		Conf        *core.Config
		Logger      core.Logger
		Validate    *validator.Validate
		Translator  ut.Translator
		UserSvc     user.ServiceInterface
		CourseSvc   course.ServiceInterface
		MaterialSvc material.ServiceInterface
		QuizSvc     quiz.ServiceInterface
		CalendarSvc calendar.ServiceInterface

		// Now defaults to time.Now. Its result is moved to the configured time zone.
		Now func() time.Time `optional:"true"`
	}

	Server struct {
		conf     *core.Config
		app      *echo.Echo
		auth     tokenAuth
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		conf:     deps.Conf,
		app:      echo.New(),
		auth:     tokenAuth{conf: deps.Conf},
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup(deps)
	return s
}

func (s *Server) setup(deps ServerDeps) {
	conf := deps.Conf
	clock := deps.Now
	if clock == nil {
		clock = time.Now
	}
	loc := conf.Location()
	now := func() time.Time { return clock().In(loc) }

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if conf.Server.BodyLimit != "" {
		s.app.Use(middleware.BodyLimit(conf.Server.BodyLimit))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := s.auth.middleware()

	registerUserAPI(v1, jwt, userApi{
		svc:      deps.UserSvc,
		validate: deps.Validate,
		auth:     s.auth,
		logger:   deps.Logger,
	})

	// every other endpoint needs an active user
	ag := v1.Group("", jwt, activeUserMiddleware(deps.UserSvc))
	registerCourseAPI(ag, courseApi{svc: deps.CourseSvc, validate: deps.Validate, now: now})
	registerMaterialAPI(ag, materialApi{
		svc:     deps.MaterialSvc,
		courses: deps.CourseSvc,
		maxSize: int64(conf.Materials.MaxUploadMB) * 1024 * 1024,
	})
	registerQuizAPI(ag, quizApi{svc: deps.QuizSvc, validate: deps.Validate})
	registerCalendarAPI(ag, calendarApi{svc: deps.CalendarSvc, now: now})
}

// Start blocks until the server stops; failures are sent to Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

// UserToken returns a fresh API token for usr.
func (s *Server) UserToken(usr user.User) (string, error) {
	return s.auth.GenerateToken(s.auth.UserClaims(usr))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.conf.AppName+" API!")
}
