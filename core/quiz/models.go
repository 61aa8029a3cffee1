package quiz

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/studydesk/core"
)

const (
	TypeMultipleChoice = "multiple-choice"
	TypeShortAnswer    = "short-answer"
	TypeLongAnswer     = "long-answer"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// QuestionType is the kind of questions asked at difficulty d.
func (d Difficulty) QuestionType() string {
	switch d {
	case Medium:
		return TypeShortAnswer
	case Hard:
		return TypeLongAnswer
	}
	return TypeMultipleChoice
}

func (d Difficulty) valid() bool {
	return d == Easy || d == Medium || d == Hard
}

type (
	Question struct {
		ID       string   `json:"id"`
		Question string   `json:"question"`
		Options  []string `json:"options,omitempty"`
		// CorrectAnswer is the index of the right option of a multiple-choice question,
		// the expected key terms otherwise.
		CorrectAnswer interface{} `json:"correct_answer"`
		Type          string      `json:"type"`
	}

	Quiz struct {
		Questions []Question `json:"questions"`
		Message   string     `json:"message"`
	}

	// Params of a quiz. FromLecture and ToLecture are 1-based and inclusive; zero means unbounded.
	Params struct {
		CourseID          string     `json:"course_id" validate:"required"`
		Difficulty        Difficulty `json:"difficulty" validate:"required,difficulty"`
		UserInput         string     `json:"user_input" validate:"max=2000"`
		NumberOfQuestions int        `json:"number_of_questions" validate:"required,min=1,max=30"`
		FromLecture       int        `json:"from_lecture" validate:"min=0"`
		ToLecture         int        `json:"to_lecture" validate:"omitempty,gtefield=FromLecture"`
	}

	CheckAnswer struct {
		Question       string `json:"question" validate:"required,notblank"`
		UserAnswer     string `json:"user_answer" validate:"required,notblank"`
		ExpectedAnswer string `json:"expected_answer" validate:"required,notblank"`
	}

	Evaluation struct {
		Score    int    `json:"score"` // 0 or 1
		Feedback string `json:"feedback"`
	}
)

func (p *Params) Validate(validate *validator.Validate) error {
	p.Difficulty = Difficulty(core.CleanString(string(p.Difficulty), true))
	p.UserInput = core.CleanString(p.UserInput)
	return validate.Struct(p)
}

func (ca *CheckAnswer) Validate(validate *validator.Validate) error {
	return validate.Struct(ca)
}
