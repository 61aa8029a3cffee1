package echoapi_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/trezcool/studydesk/core/course"
	"github.com/trezcool/studydesk/testutil"
)

const pwd = "Tr0ub4dor&3xyz"

func TestUserAPI(t *testing.T) {
	app := setup(t)
	jdoe := testutil.CreateUser(t, app.users, "John Doe", "jdoe@test.cd", pwd, true)
	naughty := testutil.CreateUser(t, app.users, "N Dog", "ndog@test.cd", pwd, false)

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		body     interface{}
		wantCode int
		wantBody string // JSON, compared semantically; empty skips the check
	}{
		{
			name: "register", method: http.MethodPost, path: "/v1/users/register",
			body:     map[string]string{"name": "Ada", "email": "ADA@test.cd", "password": pwd, "password_confirm": pwd},
			wantCode: http.StatusCreated,
		},
		{
			name: "register invalid", method: http.MethodPost, path: "/v1/users/register",
			body:     map[string]string{"name": " ", "email": "jdoe@test.cd", "password": pwd, "password_confirm": pwd},
			wantCode: http.StatusBadRequest,
			wantBody: `{"name": "this field is required"}`,
		},
		{
			name: "register taken email", method: http.MethodPost, path: "/v1/users/register",
			body:     map[string]string{"name": "John", "email": "jdoe@test.cd", "password": pwd, "password_confirm": pwd},
			wantCode: http.StatusBadRequest,
			wantBody: `{"email": "a user with this email already exists"}`,
		},
		{
			name: "login wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     map[string]string{"email": "jdoe@test.cd", "password": "nope"},
			wantCode: http.StatusBadRequest,
			wantBody: `{"error": "authentication failed"}`,
		},
		{
			name: "login unknown user", method: http.MethodPost, path: "/v1/users/login",
			body:     map[string]string{"email": "who@test.cd", "password": pwd},
			wantCode: http.StatusBadRequest,
			wantBody: `{"error": "authentication failed"}`,
		},
		{
			name: "login deactivated", method: http.MethodPost, path: "/v1/users/login",
			body:     map[string]string{"email": "ndog@test.cd", "password": pwd},
			wantCode: http.StatusForbidden,
			wantBody: `{"error": "account deactivated"}`,
		},
		{
			name: "login missing fields", method: http.MethodPost, path: "/v1/users/login",
			body:     map[string]string{},
			wantCode: http.StatusBadRequest,
			wantBody: `{"email": "this field is required", "password": "this field is required"}`,
		},
		{
			name: "me requires a token", method: http.MethodGet, path: "/v1/users/me",
			wantCode: http.StatusUnauthorized,
			wantBody: `{"error": "missing or malformed jwt"}`,
		},
		{
			name: "me", method: http.MethodGet, path: "/v1/users/me", token: app.token(t, jdoe),
			wantCode: http.StatusOK,
		},
		{
			name: "password reset of unknown email", method: http.MethodPost, path: "/v1/users/password-reset",
			body:     map[string]string{"email": "who@test.cd"},
			wantCode: http.StatusOK,
		},
		{
			name: "password reset confirm with bad token", method: http.MethodPost, path: "/v1/users/password-reset-confirm",
			body:     map[string]string{"uid": "bad", "token": "bad", "password": pwd, "password_confirm": pwd},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "deactivated users cannot use the api", method: http.MethodGet, path: "/v1/courses",
			token:    app.token(t, naughty),
			wantCode: http.StatusForbidden,
			wantBody: `{"error": "account deactivated"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}

	t.Run("login then refresh", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/users/login", "", map[string]string{"email": " JDOE@test.cd", "password": pwd})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		token := gjson.Get(rec.Body.String(), "token").String()
		require.NotEmpty(t, token)

		rec = app.do(t, http.MethodGet, "/v1/users/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "jdoe@test.cd", gjson.Get(rec.Body.String(), "email").String())
		assert.NotEqual(t, "0001-01-01T00:00:00Z", gjson.Get(rec.Body.String(), "last_login").String())
		assert.False(t, gjson.Get(rec.Body.String(), "password_hash").Exists())

		rec = app.do(t, http.MethodPost, "/v1/users/token-refresh", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, gjson.Get(rec.Body.String(), "token").String())
	})

	t.Run("password reset sends a mail", func(t *testing.T) {
		before := len(app.mailSvc.SentMessages())
		rec := app.do(t, http.MethodPost, "/v1/users/password-reset", "", map[string]string{"email": "jdoe@test.cd"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, app.mailSvc.SentMessages(), before+1)
	})
}

func TestCourseAPI(t *testing.T) {
	app := setup(t)
	jdoe := testutil.CreateUser(t, app.users, "John Doe", "jdoe@test.cd", "", true)
	jane := testutil.CreateUser(t, app.users, "Jane Doe", "jane@test.cd", "", true)
	token := app.token(t, jdoe)

	rec := app.do(t, http.MethodPost, "/v1/courses", token, map[string]interface{}{
		"name":      " Biology ",
		"prof_name": "Dr. Green",
		"times":     []string{"Lecture: Mon 9:00-10:00", "Tutorial: Wed 14:00-15:00", " Lecture: Tue 11:00-12:00 "},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bioID := gjson.Get(rec.Body.String(), "id").String()
	assert.Equal(t, "Biology", gjson.Get(rec.Body.String(), "name").String())

	art := testutil.CreateCourse(t, app.courses, jdoe.ID, "Art", []string{"Lecture: Fri 9:00-10:00"})
	janes := testutil.CreateCourse(t, app.courses, jane.ID, "Chemistry", nil)

	t.Run("invalid course", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/courses", token, map[string]interface{}{
			"name":  "Physics",
			"times": []string{"Lecture: Someday 9:00-10:00"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"times": "times entries must look like \"Lecture: Wed 8:00-09:00\""}`, rec.Body.String())
	})

	t.Run("query by name", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/courses?ordering=name", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		names := gjson.Get(rec.Body.String(), "#.name").Array()
		require.Len(t, names, 2)
		assert.Equal(t, "Art", names[0].String())
		assert.Equal(t, "Biology", names[1].String())
	})

	t.Run("other users courses are not found", func(t *testing.T) {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			rec := app.do(t, method, "/v1/courses/"+janes.ID, token, map[string]string{})
			assert.Equal(t, http.StatusNotFound, rec.Code, method)
			assert.JSONEq(t, `{"error": "course not found"}`, rec.Body.String())
		}
	})

	t.Run("update merges lecture notes", func(t *testing.T) {
		rec := app.do(t, http.MethodPut, "/v1/courses/"+bioID, token, map[string]interface{}{
			"lecture_notes": []course.LectureNote{{ID: "n1", Title: "Cells"}},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = app.do(t, http.MethodPut, "/v1/courses/"+bioID, token, map[string]interface{}{
			"lecture_notes": []course.LectureNote{{ID: "n1", Summary: "The unit of life"}, {Title: "DNA"}},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		notes := gjson.Get(rec.Body.String(), "lecture_notes")
		assert.Equal(t, int64(2), notes.Get("#").Int())
		assert.Equal(t, "Cells", notes.Get("0.title").String())
		assert.Equal(t, "The unit of life", notes.Get("0.summary").String())
		assert.NotEmpty(t, notes.Get("1.id").String())
	})

	t.Run("sessions by proximity", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/courses/"+bioID+"/sessions?limit=2", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{
			"course_id": "`+bioID+`",
			"sessions": [
				{"type": "Lecture", "day": "Tue", "time": "11:00-12:00"},
				{"type": "Tutorial", "day": "Wed", "time": "14:00-15:00"}
			]
		}`, rec.Body.String())
	})

	t.Run("overview", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/courses/overview", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []interface{}{"Biology", "Art"}, gjson.Get(rec.Body.String(), "#.course_name").Value())
		assert.Equal(t, "Tue", gjson.Get(rec.Body.String(), "0.next_lecture.day").String())
		assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "0.days_until").Int())
	})

	t.Run("delete", func(t *testing.T) {
		rec := app.do(t, http.MethodDelete, "/v1/courses/"+art.ID, token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = app.do(t, http.MethodGet, "/v1/courses/"+art.ID, token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCourseAPI_timeZone(t *testing.T) {
	// Wednesday 02:00 UTC is still Tuesday 21:00 in Toronto
	app := setup(t, withClock("America/Toronto", time.Date(2024, time.January, 3, 2, 0, 0, 0, time.UTC)))
	jdoe := testutil.CreateUser(t, app.users, "John Doe", "jdoe@test.cd", "", true)
	token := app.token(t, jdoe)
	bio := testutil.CreateCourse(t, app.courses, jdoe.ID, "Biology",
		[]string{"Lecture: Wed 9:00-10:00", "Lecture: Tue 23:00-23:50"})

	rec := app.do(t, http.MethodGet, "/v1/courses/"+bio.ID+"/sessions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"course_id": "`+bio.ID+`",
		"sessions": [
			{"type": "Lecture", "day": "Tue", "time": "23:00-23:50"},
			{"type": "Lecture", "day": "Wed", "time": "9:00-10:00"}
		]
	}`, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/v1/courses/overview", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tue", gjson.Get(rec.Body.String(), "0.next_lecture.day").String())
	assert.Equal(t, int64(0), gjson.Get(rec.Body.String(), "0.days_until").Int())
}

func TestMaterialAPI(t *testing.T) {
	app := setup(t)
	jdoe := testutil.CreateUser(t, app.users, "John Doe", "jdoe@test.cd", "", true)
	jane := testutil.CreateUser(t, app.users, "Jane Doe", "jane@test.cd", "", true)
	token := app.token(t, jdoe)
	bio := testutil.CreateCourse(t, app.courses, jdoe.ID, "Biology", nil)

	rec := app.upload(t, "/v1/courses/"+bio.ID+"/files", token, "Week 1.pdf", "application/pdf", []byte("%PDF-1.4"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := rec.Body.String()
	fileID := gjson.Get(body, "id").String()
	assert.Equal(t, "Week 1.pdf", gjson.Get(body, "original_name").String())
	assert.Equal(t, bio.ID, gjson.Get(body, "course_id").String())
	assert.Equal(t, "/v1/files/"+fileID, gjson.Get(body, "url").String())

	t.Run("download", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/files/"+fileID, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "%PDF-1.4", rec.Body.String())
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="Week 1.pdf"`, rec.Header().Get("Content-Disposition"))

		rec = app.do(t, http.MethodGet, "/v1/files/"+fileID, app.token(t, jane), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/courses/"+bio.ID+"/files", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []interface{}{fileID}, gjson.Get(rec.Body.String(), "#.id").Value())
	})

	t.Run("upload errors", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/courses/"+bio.ID+"/files", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error": "no file uploaded"}`, rec.Body.String())

		rec = app.upload(t, "/v1/courses/nope/files", token, "a.pdf", "application/pdf", []byte("%PDF"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("lecture info falls back on the file name", func(t *testing.T) {
		rec := app.upload(t, "/v1/lecture-info", token, "Lecture 3.intro.pdf", "application/pdf", []byte("%PDF"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Lecture 3", gjson.Get(rec.Body.String(), "title").String())
		assert.Equal(t, "filename", gjson.Get(rec.Body.String(), "source").String())
	})

	t.Run("delete", func(t *testing.T) {
		rec := app.do(t, http.MethodDelete, "/v1/files/"+fileID, token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = app.do(t, http.MethodGet, "/v1/files/"+fileID, token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestQuizAPI(t *testing.T) {
	app := setup(t)
	jdoe := testutil.CreateUser(t, app.users, "John Doe", "jdoe@test.cd", "", true)
	token := app.token(t, jdoe)
	bio := testutil.CreateCourse(t, app.courses, jdoe.ID, "Biology", nil,
		testutil.WithNotes(course.LectureNote{ID: "n1", Title: "Cells"}, course.LectureNote{ID: "n2", Title: "DNA"}))

	params := map[string]interface{}{"course_id": bio.ID, "difficulty": "Easy", "number_of_questions": 1}

	t.Run("generate", func(t *testing.T) {
		app.gen.setReply("```json\n" + `[
			{"question": "What is the unit of life?", "options": ["Cell", "Atom"], "correctAnswer": 0},
			{"question": "Extra", "options": ["a", "b"], "correctAnswer": 1}
		]` + "\n```")

		rec := app.do(t, http.MethodPost, "/v1/quiz", token, params)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := rec.Body.String()
		assert.Equal(t, "Quiz generated successfully", gjson.Get(body, "message").String())
		assert.Equal(t, int64(1), gjson.Get(body, "questions.#").Int())
		assert.Equal(t, "multiple-choice", gjson.Get(body, "questions.0.type").String())
		assert.NotEmpty(t, gjson.Get(body, "questions.0.id").String())
	})

	t.Run("bad reply", func(t *testing.T) {
		app.gen.setReply("I cannot help with that")
		rec := app.do(t, http.MethodPost, "/v1/quiz", token, params)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("invalid params", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/quiz", token, map[string]interface{}{
			"course_id": bio.ID, "difficulty": "insane", "number_of_questions": 31,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "difficulty must be one of: easy, medium, hard", gjson.Get(rec.Body.String(), "difficulty").String())
		assert.True(t, gjson.Get(rec.Body.String(), "number_of_questions").Exists())
	})

	t.Run("unknown course", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/quiz", token, map[string]interface{}{
			"course_id": "nope", "difficulty": "hard", "number_of_questions": 3,
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("check answer", func(t *testing.T) {
		app.gen.setReply(`{"score": 1, "feedback": "Spot on"}`)
		rec := app.do(t, http.MethodPost, "/v1/quiz/check-answer", token, map[string]string{
			"question": "What is DNA?", "user_answer": "genetic material", "expected_answer": "genetic code",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"score": 1, "feedback": "Spot on"}`, rec.Body.String())
	})
}

func TestCalendarAPI(t *testing.T) {
	app := setup(t)
	jdoe := testutil.CreateUser(t, app.users, "John Doe", "jdoe@test.cd", "", true)
	token := app.token(t, jdoe)
	bio := testutil.CreateCourse(t, app.courses, jdoe.ID, "Biology", []string{"Lecture: Mon 9:00-10:00"},
		testutil.WithSyllabus("data:application/pdf;base64,JVBERi0xLjQ="))

	t.Run("process syllabi", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/calendar", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, jsonBody(t, map[string]interface{}{
			"message": "Processing complete",
			"results": []map[string]interface{}{{
				"course_id": bio.ID, "course_name": "Biology", "status": "success", "events_added": 1,
			}},
		}), rec.Body.String())
		assert.Len(t, app.publisher.events, 1)

		rec = app.do(t, http.MethodPost, "/v1/calendar", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "No courses with unprocessed syllabi found", gjson.Get(rec.Body.String(), "message").String())
	})

	t.Run("ics feed", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/calendar.ics", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
		body := rec.Body.String()
		assert.Contains(t, body, "BEGIN:VCALENDAR")
		assert.Contains(t, body, "SUMMARY:Biology Lecture")
		assert.Contains(t, body, "RRULE:FREQ=WEEKLY")
		assert.Contains(t, body, "SUMMARY:Biology: HW1")
	})
}
