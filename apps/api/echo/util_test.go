package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/studydesk/apps/api/echo"
	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/calendar"
	"github.com/trezcool/studydesk/core/course"
	"github.com/trezcool/studydesk/core/material"
	"github.com/trezcool/studydesk/core/quiz"
	"github.com/trezcool/studydesk/core/schedule"
	"github.com/trezcool/studydesk/core/user"
	appfs "github.com/trezcool/studydesk/fs"
	emailsvc "github.com/trezcool/studydesk/services/email"
	inmemdb "github.com/trezcool/studydesk/storage/database/inmem"
)

// 2024-01-01 is a Monday
var monday10am = time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.reply, nil
}

func (g *fakeGenerator) setReply(reply string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reply = reply
}

type fakeExtractor struct{}

func (fakeExtractor) ExtractDueDates(context.Context, []byte) ([]calendar.Event, error) {
	return []calendar.Event{{
		Title:  "HW1",
		Start:  time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2024, time.January, 4, 0, 0, 0, 0, time.UTC),
		AllDay: true,
	}}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []calendar.Event
}

func (p *fakePublisher) AddEvents(_ context.Context, events []calendar.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

type testApp struct {
	server    *echoapi.Server
	users     user.Repository
	courses   course.Repository
	gen       *fakeGenerator
	publisher *fakePublisher
	mailSvc   *emailsvc.ConsoleServiceMock
}

type setupOption func(conf *core.Config, now *time.Time)

// withClock runs the server in the time zone tz, its clock stopped at now.
func withClock(tz string, now time.Time) setupOption {
	return func(conf *core.Config, n *time.Time) {
		conf.Calendar.TimeZone = tz
		*n = now
	}
}

func setup(t *testing.T, opts ...setupOption) *testApp {
	t.Helper()
	conf := core.NewTestConfig()
	logger := core.DiscardLogger
	now := monday10am
	for _, opt := range opts {
		opt(conf, &now)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)
	quiz.InitValidators(validate, translator)
	core.ParseEmailTemplates(appfs.FS, conf, logger)

	db := inmemdb.Open()
	app := &testApp{
		users:     inmemdb.NewUserRepository(db),
		courses:   inmemdb.NewCourseRepository(db),
		gen:       new(fakeGenerator),
		publisher: new(fakePublisher),
		mailSvc:   emailsvc.NewConsoleServiceMock(conf),
	}

	usrSvc := user.NewService(app.users, app.mailSvc, conf)
	courseSvc := course.NewService(app.courses)
	app.server = echoapi.NewServer(echoapi.ServerDeps{
		Conf:        conf,
		Logger:      logger,
		Validate:    validate,
		Translator:  translator,
		UserSvc:     usrSvc,
		CourseSvc:   courseSvc,
		MaterialSvc: material.NewService(inmemdb.NewMaterialRepository(db), conf, logger, material.Extractors{}),
		QuizSvc:     quiz.NewService(courseSvc, app.gen, conf, logger),
		CalendarSvc: calendar.NewService(courseSvc, usrSvc, fakeExtractor{}, app.publisher, app.mailSvc, conf, logger),
		Now:         func() time.Time { return now },
	})
	return app
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := app.server.UserToken(usr)
	require.NoError(t, err)
	return token
}

// do sends a JSON request; body may be nil, a []byte or any value to marshal.
func (app *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return app.send(req, token)
}

func (app *testApp) upload(t *testing.T, path, token, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return app.send(req, token)
}

func (app *testApp) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, obj interface{}) string {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return strings.TrimSpace(string(data))
}
