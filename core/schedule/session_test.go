package schedule

import (
	"reflect"
	"sync"
	"testing"
)

type recordingLogger struct {
	mu     sync.Mutex
	debugs []string
	errors []string
}

func (l *recordingLogger) Info(string, ...interface{})  {}
func (l *recordingLogger) Warn(string, ...interface{})  {}
func (l *recordingLogger) Fatal(string, ...interface{}) {}
func (l *recordingLogger) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) Debug(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugs = append(l.debugs, msg)
}

func (l *recordingLogger) debugCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.debugs)
}

func (l *recordingLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

func TestParseTimes(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []Session
	}{
		{name: "nil", raw: nil, want: []Session{}},
		{
			name: "lecture",
			raw:  []string{"Lecture: Wed 8:00-09:00"},
			want: []Session{{Type: "Lecture", Day: "Wed", Time: "8:00-09:00"}},
		},
		{
			name: "split on first colon only",
			raw:  []string{"OfficeHours: Thu 13:00-14:00"},
			want: []Session{{Type: "Office Hours", Day: "Thu", Time: "13:00-14:00"}},
		},
		{name: "malformed", raw: []string{"garbage", "", "Tutorial no colon here"}, want: []Session{}},
		{
			name: "mixed validity",
			raw:  []string{"bad entry", "Lecture: Mon 9:00-10:00"},
			want: []Session{{Type: "Lecture", Day: "Mon", Time: "9:00-10:00"}},
		},
		{
			name: "known types are case insensitive",
			raw:  []string{"LECTURE: Mon 9:00-10:00", "tutorial: Tue 10:00-11:00", "officehours: Fri 12:00-13:00"},
			want: []Session{
				{Type: "Lecture", Day: "Mon", Time: "9:00-10:00"},
				{Type: "Tutorial", Day: "Tue", Time: "10:00-11:00"},
				{Type: "Office Hours", Day: "Fri", Time: "12:00-13:00"},
			},
		},
		{
			name: "unknown type keeps the rest of the token",
			raw:  []string{"lab Session: Fri 14:00-16:00", "seminar: Sat 9:00-10:00"},
			want: []Session{
				{Type: "Lab Session", Day: "Fri", Time: "14:00-16:00"},
				{Type: "Seminar", Day: "Sat", Time: "9:00-10:00"},
			},
		},
		{name: "empty type", raw: []string{": Wed 8:00-09:00"}, want: []Session{}},
		{name: "empty details", raw: []string{"Lecture:   "}, want: []Session{}},
		{
			name: "whitespace is trimmed",
			raw:  []string{"  Tutorial  :   Tue   10:00-11:00  "},
			want: []Session{{Type: "Tutorial", Day: "Tue", Time: "10:00-11:00"}},
		},
		{
			name: "invalid leading byte is kept",
			raw:  []string{"\xffab: Mon 9:00-10:00"},
			want: []Session{{Type: "\xffab", Day: "Mon", Time: "9:00-10:00"}},
		},
		{
			name: "no time",
			raw:  []string{"Lecture: Wednesday"},
			want: []Session{{Type: "Lecture", Day: "Wednesday", Time: ""}},
		},
		{
			name: "keeps input order",
			raw:  []string{"Tutorial: Fri 10:00-11:00", "x", "Lecture: Mon 9:00-10:00"},
			want: []Session{
				{Type: "Tutorial", Day: "Fri", Time: "10:00-11:00"},
				{Type: "Lecture", Day: "Mon", Time: "9:00-10:00"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTimes(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTimes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseRaw(t *testing.T) {
	logger := new(recordingLogger)
	SetLogger(logger)
	defer SetLogger(nil)

	lecture := Session{Type: "Lecture", Day: "Wed", Time: "8:00-09:00"}

	tests := []struct {
		name       string
		raw        interface{}
		want       []Session
		wantErrLog bool
	}{
		{name: "nil", raw: nil, want: []Session{}},
		{name: "strings", raw: []string{"Lecture: Wed 8:00-09:00"}, want: []Session{lecture}},
		{name: "mixed items", raw: []interface{}{42, "Lecture: Wed 8:00-09:00", nil, true}, want: []Session{lecture}},
		{name: "not a list", raw: "Lecture: Wed 8:00-09:00", want: []Session{}, wantErrLog: true},
		{name: "map", raw: map[string]string{"a": "b"}, want: []Session{}, wantErrLog: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := logger.errorCount()
			if got := ParseRaw(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseRaw() = %v, want %v", got, tt.want)
			}
			if logged := logger.errorCount() > before; logged != tt.wantErrLog {
				t.Errorf("ParseRaw() logged error = %v, want %v", logged, tt.wantErrLog)
			}
		})
	}
}

func TestParseTimes_logsDroppedEntries(t *testing.T) {
	logger := new(recordingLogger)
	SetLogger(logger)
	defer SetLogger(nil)

	got := ParseTimes([]string{"garbage", ": Wed 8:00-09:00", "Lecture:   ", "Lecture: Mon 9:00-10:00"})
	if len(got) != 1 {
		t.Fatalf("ParseTimes() len = %d, want 1", len(got))
	}
	if n := logger.debugCount(); n != 3 {
		t.Errorf("dropped entries logged %d times, want 3", n)
	}
	if n := logger.errorCount(); n != 0 {
		t.Errorf("dropped entries logged %d errors, want 0", n)
	}
}

// list stands for the named slice types decoders produce, like bson.A.
type list []interface{}

func TestEntries(t *testing.T) {
	logger := new(recordingLogger)
	SetLogger(logger)
	defer SetLogger(nil)

	tests := []struct {
		name       string
		raw        interface{}
		want       []string
		wantDebugs int
		wantErrLog bool
	}{
		{name: "nil", raw: nil, want: []string{}},
		{name: "strings", raw: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "interfaces", raw: []interface{}{"a", 42, nil, "b"}, want: []string{"a", "b"}, wantDebugs: 2},
		{name: "named slice", raw: list{"Lecture: Wed 8:00-09:00", int32(42)}, want: []string{"Lecture: Wed 8:00-09:00"}, wantDebugs: 1},
		{name: "empty named slice", raw: list{}, want: []string{}},
		{name: "not a list", raw: "Lecture: Wed 8:00-09:00", want: []string{}, wantErrLog: true},
		{name: "number", raw: 42, want: []string{}, wantErrLog: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debugs, errs := logger.debugCount(), logger.errorCount()
			if got := Entries(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Entries() = %v, want %v", got, tt.want)
			}
			if n := logger.debugCount() - debugs; n != tt.wantDebugs {
				t.Errorf("Entries() logged %d skipped items, want %d", n, tt.wantDebugs)
			}
			if logged := logger.errorCount() > errs; logged != tt.wantErrLog {
				t.Errorf("Entries() logged error = %v, want %v", logged, tt.wantErrLog)
			}
		})
	}
}

func TestSession_String(t *testing.T) {
	s := Session{Type: "Lecture", Day: "Wed", Time: "8:00-09:00"}
	if got := s.String(); got != "Lecture: Wed 8:00-09:00" {
		t.Errorf("String() = %q", got)
	}
	if got := s.Slot(); got != "Wed 8:00-09:00" {
		t.Errorf("Slot() = %q", got)
	}
	if got := (Session{Type: "Lecture", Day: "Wed"}).Slot(); got != "Wed" {
		t.Errorf("Slot() without time = %q", got)
	}

	// a session string parses back to itself
	if got := ParseTimes([]string{s.String()}); !reflect.DeepEqual(got, []Session{s}) {
		t.Errorf("ParseTimes(String()) = %v, want %v", got, []Session{s})
	}
}

func TestValidEntry(t *testing.T) {
	tests := []struct {
		entry string
		want  bool
	}{
		{entry: "Lecture: Wed 8:00-09:00", want: true},
		{entry: "OfficeHours: Thursday 13:00-14:30", want: true},
		{entry: "Lecture: Blah 8:00-09:00"},
		{entry: "Lecture: Wed 8am-9am"},
		{entry: "Lecture: Wed 8:00"},
		{entry: "Lecture: Wed"},
		{entry: "garbage"},
		{entry: ""},
	}
	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			if got := ValidEntry(tt.entry); got != tt.want {
				t.Errorf("ValidEntry(%q) = %v, want %v", tt.entry, got, tt.want)
			}
		})
	}
}
