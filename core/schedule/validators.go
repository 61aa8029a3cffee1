package schedule

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/studydesk/core"
)

var (
	sessionTimeTag  = "sessiontime"
	sessionTimeText = `{0} entries must look like "Lecture: Wed 8:00-09:00"`
)

// InitValidators registers the schedule validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(sessionTimeTag, sessionTimeValidation)
	core.RegisterCustomTranslation(validate, translator, sessionTimeTag, sessionTimeText)
}

// ValidEntry reports whether entry is a well formed time entry: it parses, its day is known
// and both ends of its time range are clock times.
func ValidEntry(entry string) bool {
	s, ok := parseEntry(entry)
	if !ok {
		return false
	}
	if _, ok = Weekday(s.Day); !ok {
		return false
	}
	if _, ok = s.StartMinutes(); !ok {
		return false
	}
	_, ok = s.EndMinutes()
	return ok
}

// sessionTimeValidation applies ValidEntry to a string or to every item of a []string.
func sessionTimeValidation(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case string:
		return ValidEntry(v)
	case []string:
		for _, entry := range v {
			if !ValidEntry(entry) {
				return false
			}
		}
		return true
	}
	return false
}
