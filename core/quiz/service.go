package quiz

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/course"
)

var (
	// errors
	ErrBadReply = errors.New("could not parse the AI reply")
)

type (
	// Generator is a text generation model.
	Generator interface {
		Generate(ctx context.Context, prompt string) (string, error)
	}

	ServiceInterface interface {
		Generate(ctx context.Context, ownerID string, p Params) (Quiz, error)
		Evaluate(ctx context.Context, ca CheckAnswer) (Evaluation, error)
	}

	Service struct {
		courses    course.ServiceInterface
		gen        Generator
		maxContext int
		logger     core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(courses course.ServiceInterface, gen Generator, conf *core.Config, logger core.Logger) *Service {
	return &Service{courses: courses, gen: gen, maxContext: conf.AI.MaxContextChars, logger: logger}
}

// Generate asks the model for a quiz on the lecture notes of course p.CourseID.
func (svc *Service) Generate(ctx context.Context, ownerID string, p Params) (Quiz, error) {
	c, err := svc.courses.Get(ctx, ownerID, p.CourseID)
	if err != nil {
		return Quiz{}, err
	}

	lectureCtx, err := svc.lectureContext(selectNotes(c.LectureNotes, p.FromLecture, p.ToLecture))
	if err != nil {
		return Quiz{}, err
	}
	prompt := buildQuizPrompt(quizPromptData{
		courseName:        c.Name,
		courseDescription: c.Description,
		lectureContext:    lectureCtx,
		params:            p,
	})

	reply, err := svc.gen.Generate(ctx, prompt)
	if err != nil {
		return Quiz{}, errors.Wrap(err, "generating quiz")
	}
	questions, err := parseQuestions(reply, p.Difficulty, p.NumberOfQuestions, time.Now())
	if err != nil {
		svc.logger.Error("quiz: unparseable reply", map[string]interface{}{"reply": reply})
		return Quiz{}, err
	}
	return Quiz{Questions: questions, Message: "Quiz generated successfully"}, nil
}

// Evaluate asks the model whether an answer captures the expected concepts.
func (svc *Service) Evaluate(ctx context.Context, ca CheckAnswer) (Evaluation, error) {
	reply, err := svc.gen.Generate(ctx, buildEvaluationPrompt(ca))
	if err != nil {
		return Evaluation{}, errors.Wrap(err, "evaluating answer")
	}
	eval, err := parseEvaluation(reply)
	if err != nil {
		svc.logger.Error("quiz: unparseable evaluation", map[string]interface{}{"reply": reply})
		return Evaluation{}, err
	}
	return eval, nil
}

// lectureContext serializes notes, truncated to maxContext characters.
func (svc *Service) lectureContext(notes []course.LectureNote) (string, error) {
	if len(notes) == 0 {
		return "", nil
	}
	b, err := json.Marshal(notes)
	if err != nil {
		return "", errors.Wrap(err, "encoding lecture notes")
	}
	runes := []rune(string(b))
	if svc.maxContext > 0 && len(runes) > svc.maxContext {
		return string(runes[:svc.maxContext]) + "...", nil
	}
	return string(b), nil
}

// selectNotes returns the notes from the from-th to the to-th (1-based, inclusive, 0 = unbounded).
func selectNotes(notes []course.LectureNote, from, to int) []course.LectureNote {
	start, end := 0, len(notes)
	if from > 0 {
		start = from - 1
	}
	if to > 0 && to < end {
		end = to
	}
	if start >= end {
		return nil
	}
	return notes[start:end]
}
