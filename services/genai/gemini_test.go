package genaisvc

import (
	"context"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/calendar"
)

type fakeModel struct {
	parts []genai.Part
	resp  *genai.GenerateContentResponse
	err   error
}

func (m *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	m.parts = parts
	return m.resp, m.err
}

func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]genai.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, genai.Text(t))
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}}}
}

func newTestClient(m *fakeModel) *Client {
	return &Client{model: m, limiter: newLimiter(0), logger: core.DiscardLogger, tz: "UTC"}
}

func TestClient_notConfigured(t *testing.T) {
	conf := core.NewTestConfig()
	c, err := NewClient(context.Background(), conf, core.DiscardLogger)
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "hi")
	assert.Equal(t, ErrNotConfigured, err)
	_, err = c.ExtractDueDates(context.Background(), []byte("%PDF"))
	assert.Equal(t, ErrNotConfigured, err)
	assert.NoError(t, c.Close())
}

func TestClient_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("joins text parts", func(t *testing.T) {
		m := &fakeModel{resp: textResponse("[1,", " 2]\n")}
		got, err := newTestClient(m).Generate(ctx, "count")
		require.NoError(t, err)
		assert.Equal(t, "[1, 2]", got)
		assert.Equal(t, []genai.Part{genai.Text("count")}, m.parts)
	})

	t.Run("no candidates", func(t *testing.T) {
		m := &fakeModel{resp: &genai.GenerateContentResponse{}}
		_, err := newTestClient(m).Generate(ctx, "count")
		assert.Equal(t, ErrEmptyReply, err)
	})

	t.Run("model error", func(t *testing.T) {
		m := &fakeModel{err: errors.New("quota")}
		_, err := newTestClient(m).Generate(ctx, "count")
		require.Error(t, err)
		assert.Equal(t, "quota", errors.Cause(err).Error())
	})

	t.Run("cancelled context", func(t *testing.T) {
		c := newTestClient(&fakeModel{resp: textResponse("ok")})
		c.limiter = newLimiter(0.001)
		c.limiter.Allow() // use the only token
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := c.Generate(cctx, "count")
		assert.Error(t, err)
	})
}

func TestClient_ExtractDueDates(t *testing.T) {
	m := &fakeModel{resp: textResponse("```json\n" + `[{"title": "Essay", "start": "2024-02-01"}]` + "\n```")}
	events, err := newTestClient(m).ExtractDueDates(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Essay", events[0].Title)

	require.Len(t, m.parts, 2)
	assert.Equal(t, genai.Blob{MIMEType: "application/pdf", Data: []byte("%PDF")}, m.parts[0])
}

func TestParseDueDates(t *testing.T) {
	loc := time.FixedZone("EAT", 3*3600)
	reply := `[
		{"title": "Midterm", "description": "chapters 1-4", "start": "2024-03-04T09:00:00", "end": "2024-03-04T11:00:00"},
		{"title": "Essay", "start": "2024-03-08", "all_day": true},
		{"title": "Quiz", "start": "2024-03-11T14:00:00Z", "end": "2024-03-11T13:00:00Z"},
		{"title": "", "start": "2024-03-12"},
		{"title": "Project", "start": "sometime in April"}
	]`

	got, err := parseDueDates(reply, loc)
	require.NoError(t, err)
	want := []calendar.Event{
		{
			Title:       "Midterm",
			Description: "chapters 1-4",
			Start:       time.Date(2024, time.March, 4, 9, 0, 0, 0, loc),
			End:         time.Date(2024, time.March, 4, 11, 0, 0, 0, loc),
		},
		{
			Title:  "Essay",
			Start:  time.Date(2024, time.March, 8, 0, 0, 0, 0, loc),
			End:    time.Date(2024, time.March, 9, 0, 0, 0, 0, loc),
			AllDay: true,
		},
		{
			Title: "Quiz",
			Start: time.Date(2024, time.March, 11, 14, 0, 0, 0, time.UTC),
			End:   time.Date(2024, time.March, 11, 15, 0, 0, 0, time.UTC),
		},
	}
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Title, got[i].Title)
		assert.Equal(t, want[i].Description, got[i].Description)
		assert.Equal(t, want[i].AllDay, got[i].AllDay)
		assert.True(t, want[i].Start.Equal(got[i].Start), "%s start = %v, want %v", want[i].Title, got[i].Start, want[i].Start)
		assert.True(t, want[i].End.Equal(got[i].End), "%s end = %v, want %v", want[i].Title, got[i].End, want[i].End)
	}

	_, err = parseDueDates("No due dates here.", loc)
	assert.Error(t, err)

	got, err = parseDueDates("[]", loc)
	require.NoError(t, err)
	assert.Empty(t, got)
}
