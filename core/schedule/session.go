// Package schedule turns the free-text time entries stored on a course
// (e.g. "Lecture: Wed 8:00-09:00") into sessions and ranks them by how soon
// they happen again.
package schedule

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/trezcool/studydesk/core"
)

// Known session types
const (
	TypeLecture     = "Lecture"
	TypeTutorial    = "Tutorial"
	TypeOfficeHours = "Office Hours"
)

var (
	logger core.Logger = core.DiscardLogger

	knownTypes = map[string]string{
		"lecture":     TypeLecture,
		"tutorial":    TypeTutorial,
		"officehours": TypeOfficeHours,
	}
)

// SetLogger sets the logger anomalies are reported to. Call it once at start up.
func SetLogger(l core.Logger) {
	if l == nil {
		l = core.DiscardLogger
	}
	logger = l
}

// Session is a single weekly occurrence of a course.
type Session struct {
	Type string `json:"type"`
	Day  string `json:"day"`
	Time string `json:"time"`
}

// Slot returns the "<day> <time>" part of the session.
func (s Session) Slot() string {
	return strings.TrimSpace(s.Day + " " + s.Time)
}

func (s Session) String() string {
	return s.Type + ": " + s.Slot()
}

// IsLecture reports whether s is a lecture, whatever the case of its type.
func (s Session) IsLecture() bool {
	return strings.EqualFold(s.Type, TypeLecture)
}

// ParseTimes parses raw time entries into sessions.
// Entries that do not have the "<type>: <day> <time>" shape are dropped; the
// result keeps the input order.
func ParseTimes(raw []string) []Session {
	sessions := make([]Session, 0, len(raw))
	for _, entry := range raw {
		if s, ok := parseEntry(entry); ok {
			sessions = append(sessions, s)
		}
	}
	return sessions
}

// ParseRaw is ParseTimes for loosely typed values, such as a "times" field
// decoded from JSON or BSON. Non-string items are skipped. Anything that is not
// a list yields an empty result.
func ParseRaw(v interface{}) []Session {
	return ParseTimes(Entries(v))
}

// Entries keeps the string items of a loosely typed list, in order. Other items
// are skipped and logged. Anything that is not a list yields no entries.
func Entries(v interface{}) []string {
	switch raw := v.(type) {
	case nil:
		return []string{}
	case []string:
		return append([]string{}, raw...)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		logger.Error(fmt.Sprintf("schedule: invalid times input, not a list: %v (%T)", v, v))
		return []string{}
	}
	entries := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i).Interface()
		entry, ok := item.(string)
		if !ok {
			logger.Debug(fmt.Sprintf("schedule: skipping non-string time entry %v (%T)", item, item))
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// parseEntry never panics; a failure on one entry must not drop the others.
func parseEntry(entry string) (s Session, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(fmt.Sprintf("schedule: parsing time entry %q: %v", entry, r))
			s, ok = Session{}, false
		}
	}()

	// split on the first colon only: "8:00-09:00" has its own
	idx := strings.Index(entry, ":")
	if idx < 0 {
		logger.Debug(fmt.Sprintf("schedule: dropping time entry %q: no type", entry))
		return Session{}, false
	}
	typeToken := strings.TrimSpace(entry[:idx])
	details := strings.TrimSpace(entry[idx+1:])
	if typeToken == "" || details == "" {
		logger.Debug(fmt.Sprintf("schedule: dropping time entry %q: empty type or details", entry))
		return Session{}, false
	}

	day, tm := details, ""
	if sp := strings.Index(details, " "); sp >= 0 {
		day, tm = details[:sp], strings.TrimSpace(details[sp+1:])
	}

	return Session{
		Type: normalizeType(typeToken),
		Day:  day,
		Time: tm,
	}, true
}

func normalizeType(token string) string {
	if known, ok := knownTypes[strings.ToLower(token)]; ok {
		return known
	}
	r, size := utf8.DecodeRuneInString(token)
	if r == utf8.RuneError {
		return token
	}
	return string(unicode.ToUpper(r)) + token[size:]
}
