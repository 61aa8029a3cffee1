package logsvc

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"github.com/rs/zerolog"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/user"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// RollbarLogger writes structured logs with zerolog and reports them to Rollbar when enabled.
type RollbarLogger struct {
	mu     sync.RWMutex
	zl     zerolog.Logger
	report bool
	exit   func(code int)
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger logs to out: human readable in debug mode, JSON otherwise.
func NewRollbarLogger(out io.Writer, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	if conf.Debug {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat}
	}
	l := &RollbarLogger{
		zl:     zerolog.New(out).Level(parseLevel(conf.Level())).With().Timestamp().Str("app", conf.AppName).Logger(),
		report: conf.RollbarToken != "",
		exit:   os.Exit,
	}
	conf.OnReload(func(c *core.Config) { l.SetLevel(c.Level()) })
	return l
}

// NewNop returns a logger that drops everything and never reports.
func NewNop() *RollbarLogger {
	return &RollbarLogger{zl: zerolog.Nop(), exit: func(int) {}}
}

// Enable turns the Rollbar reporting on or off.
func (l *RollbarLogger) Enable(enabled bool) {
	l.mu.Lock()
	l.report = enabled
	l.mu.Unlock()
	rollbar.SetEnabled(enabled)
}

func (l *RollbarLogger) SetLevel(level string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zl = l.zl.Level(parseLevel(level))
}

func (l *RollbarLogger) Close() {
	if l.reporting() {
		rollbar.Close()
	}
}

func (l *RollbarLogger) reporting() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.report
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l *RollbarLogger) log(level zerolog.Level, report func(...interface{}), msg string, args []interface{}) {
	l.mu.RLock()
	e := l.zl.WithLevel(level)
	l.mu.RUnlock()

	var usr *user.User
	rbArgs := make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	for i, arg := range args {
		switch v := arg.(type) {
		case user.User:
			if usr == nil { // only set one User
				u := v
				usr = &u
			}
			continue
		case error:
			if e != nil {
				e = e.Err(v)
			}
		case map[string]interface{}:
			if e != nil {
				e = e.Fields(v)
			}
		default:
			if e != nil {
				e = e.Interface(fmt.Sprintf("arg%d", i), v)
			}
		}
		rbArgs = append(rbArgs, arg)
	}

	if e != nil {
		if usr != nil {
			e = e.Str("user_id", usr.ID)
		}
		e.Msg(msg)
	}

	if !l.reporting() {
		return
	}
	if usr != nil {
		rollbar.SetPerson(usr.ID, usr.Name, usr.Email)
	} else {
		rollbar.ClearPerson()
	}
	report(rbArgs...)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log(zerolog.DebugLevel, rollbar.Debug, msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(zerolog.InfoLevel, rollbar.Info, msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(zerolog.WarnLevel, rollbar.Warning, msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(zerolog.ErrorLevel, rollbar.Error, msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(zerolog.FatalLevel, rollbar.Critical, msg, args)
	if l.reporting() {
		rollbar.Wait()
	}
	l.exit(1)
}
