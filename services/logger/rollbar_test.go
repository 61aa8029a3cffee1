package logsvc

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/user"
)

func newTestLogger(t *testing.T, level string) (*RollbarLogger, *core.Config, *bytes.Buffer) {
	t.Helper()
	conf := core.NewTestConfig()
	conf.Debug = false
	conf.LogLevel = level
	buf := new(bytes.Buffer)
	l := NewRollbarLogger(buf, conf)
	l.Enable(false)
	return l, conf, buf
}

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimSpace(buf.String()), "\n")
}

func TestRollbarLogger_fields(t *testing.T) {
	l, _, buf := newTestLogger(t, "debug")
	usr := user.User{ID: "u1", Name: "Ada", Email: "ada@test.cd"}

	l.Error("saving course", errors.New("disk full"), map[string]interface{}{"course_id": "c1"}, usr, 42)

	out := lines(buf)
	require.Len(t, out, 1)
	entry := gjson.Parse(out[0])
	assert.Equal(t, "error", entry.Get("level").String())
	assert.Equal(t, "saving course", entry.Get("message").String())
	assert.Equal(t, "disk full", entry.Get("error").String())
	assert.Equal(t, "c1", entry.Get("course_id").String())
	assert.Equal(t, "u1", entry.Get("user_id").String())
	assert.Equal(t, int64(42), entry.Get("arg3").Int())
	assert.Equal(t, "StudyDesk", entry.Get("app").String())
}

func TestRollbarLogger_level(t *testing.T) {
	l, _, buf := newTestLogger(t, "warn")

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	assert.Equal(t, []string{"shown"}, messages(buf))

	buf.Reset()
	l.SetLevel("debug")
	l.Debug("now shown")
	assert.Equal(t, []string{"now shown"}, messages(buf))

	buf.Reset()
	l.SetLevel("nonsense")
	l.Debug("hidden")
	l.Info("info is the default")
	assert.Equal(t, []string{"info is the default"}, messages(buf))
}

func TestRollbarLogger_Fatal(t *testing.T) {
	l, _, buf := newTestLogger(t, "info")
	var code int
	l.exit = func(c int) { code = c }

	l.Fatal("cannot start")
	assert.Equal(t, 1, code)
	assert.Equal(t, "fatal", gjson.Get(lines(buf)[0], "level").String())
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Error("nothing", errors.New("boom"))
	l.Fatal("still nothing")
}

func messages(buf *bytes.Buffer) []string {
	var msgs []string
	for _, line := range lines(buf) {
		if line != "" {
			msgs = append(msgs, gjson.Get(line, "message").String())
		}
	}
	return msgs
}
