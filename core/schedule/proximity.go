package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	daysPerWeek = 7
	minsPerDay  = 24 * 60
)

var weekdays = map[string]time.Weekday{
	"Sun": time.Sunday, "Sunday": time.Sunday,
	"Mon": time.Monday, "Monday": time.Monday,
	"Tue": time.Tuesday, "Tuesday": time.Tuesday,
	"Wed": time.Wednesday, "Wednesday": time.Wednesday,
	"Thu": time.Thursday, "Thursday": time.Thursday,
	"Fri": time.Friday, "Friday": time.Friday,
	"Sat": time.Saturday, "Saturday": time.Saturday,
}

// Weekday resolves a day token ("Wed", "Wednesday").
func Weekday(day string) (time.Weekday, bool) {
	wd, ok := weekdays[day]
	return wd, ok
}

// StartMinutes returns the minutes since midnight of the session start.
// ok is false when the hour or minute is not numeric.
func (s Session) StartMinutes() (mins int, ok bool) {
	return clockMinutes(strings.SplitN(s.Time, "-", 2)[0])
}

// EndMinutes returns the minutes since midnight of the session end.
func (s Session) EndMinutes() (mins int, ok bool) {
	parts := strings.SplitN(s.Time, "-", 2)
	if len(parts) < 2 {
		return 0, false
	}
	return clockMinutes(parts[1])
}

func clockMinutes(clock string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(clock), ":", 2)
	if len(parts) < 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}
	return hour*60 + minute, true
}

// rank is how far a session is from now: whole days first, then minutes of the start.
type rank struct {
	known bool // day token resolved
	days  int
	mins  int
}

func rankOf(s Session, now time.Time) rank {
	wd, ok := Weekday(s.Day)
	if !ok {
		return rank{}
	}

	days := (int(wd) - int(now.Weekday()) + daysPerWeek) % daysPerWeek
	mins, ok := s.StartMinutes()
	if !ok {
		// after every parseable start of the same day, never wrapped
		return rank{known: true, days: days, mins: minsPerDay}
	}

	// already started today: next occurrence is the same day next week
	if days == 0 && mins < now.Hour()*60+now.Minute() {
		days = daysPerWeek
	}
	return rank{known: true, days: days, mins: mins}
}

// DaysUntil returns the number of days until the next occurrence of s
// (0 = later today, 7 = same day next week).
func DaysUntil(s Session, now time.Time) (int, bool) {
	r := rankOf(s, now)
	return r.days, r.known
}

// compare orders a before b (<0), after b (>0) or as equal (0).
// Sessions with an unknown day compare equal to anything.
func compare(a, b Session, ra, rb rank) int {
	if !ra.known || !rb.known {
		logger.Error(fmt.Sprintf("schedule: unknown day format: %q, %q", a.Day, b.Day))
		return 0
	}
	if ra.days != rb.days {
		return ra.days - rb.days
	}
	return ra.mins - rb.mins
}

// Compare orders a and b by their next occurrence after now: <0 when a comes first, >0 when b does,
// 0 when they tie or a day is unknown.
func Compare(a, b Session, now time.Time) int {
	return compare(a, b, rankOf(a, now), rankOf(b, now))
}

// SortByProximity returns a copy of sessions ordered by their next occurrence
// after now, assuming every session repeats weekly.
func SortByProximity(sessions []Session, now time.Time) []Session {
	if len(sessions) == 0 {
		return []Session{}
	}

	type ranked struct {
		Session
		r rank
	}
	items := make([]ranked, len(sessions))
	for i, s := range sessions {
		items[i] = ranked{Session: s, r: rankOf(s, now)}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return compare(items[i].Session, items[j].Session, items[i].r, items[j].r) < 0
	})

	sorted := make([]Session, len(items))
	for i, it := range items {
		sorted[i] = it.Session
	}
	return sorted
}

// Upcoming parses times and returns at most limit sessions, nearest first.
// A limit <= 0 returns them all.
func Upcoming(times []string, now time.Time, limit int) []Session {
	sorted := SortByProximity(ParseTimes(times), now)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// NextLecture returns the lecture happening next among times.
func NextLecture(times []string, now time.Time) (Session, bool) {
	var lectures []Session
	for _, s := range ParseTimes(times) {
		if s.IsLecture() {
			lectures = append(lectures, s)
		}
	}
	if len(lectures) == 0 {
		return Session{}, false
	}
	return SortByProximity(lectures, now)[0], true
}

// NextOccurrence returns the start and end of the next occurrence of s after now,
// in now's location. A missing or unparseable end defaults to one hour after the start.
func (s Session) NextOccurrence(now time.Time) (start, end time.Time, ok bool) {
	r := rankOf(s, now)
	if !r.known {
		return time.Time{}, time.Time{}, false
	}
	startMins, ok := s.StartMinutes()
	if !ok {
		return time.Time{}, time.Time{}, false
	}

	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, r.days)
	start = day.Add(time.Duration(startMins) * time.Minute)

	endMins, ok := s.EndMinutes()
	if !ok || endMins <= startMins {
		return start, start.Add(time.Hour), true
	}
	return start, day.Add(time.Duration(endMins) * time.Minute), true
}
