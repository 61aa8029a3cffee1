package quiz

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const unparsedFeedback = "Answer evaluation completed, but feedback could not be parsed."

var (
	fenceReplacer = strings.NewReplacer("```json", "", "```", "")
	scoreRe       = regexp.MustCompile(`"score":\s*(\d)`)
)

// cleanReply removes the markdown code fences models like to wrap JSON in.
func cleanReply(reply string) string {
	return strings.TrimSpace(fenceReplacer.Replace(reply))
}

// parseQuestions reads at most n questions from a model reply. Missing IDs and types are filled in.
func parseQuestions(reply string, d Difficulty, n int, now time.Time) ([]Question, error) {
	cleaned := cleanReply(reply)
	if !gjson.Valid(cleaned) {
		return nil, ErrBadReply
	}
	res := gjson.Parse(cleaned)
	if !res.IsArray() {
		return nil, ErrBadReply
	}

	items := res.Array()
	if n > 0 && len(items) > n {
		items = items[:n]
	}
	questions := make([]Question, 0, len(items))
	for i, item := range items {
		q := Question{
			ID:            item.Get("id").String(),
			Question:      item.Get("question").String(),
			CorrectAnswer: item.Get("correctAnswer").Value(),
			Type:          item.Get("type").String(),
		}
		for _, opt := range item.Get("options").Array() {
			q.Options = append(q.Options, opt.String())
		}
		if q.ID == "" {
			q.ID = fmt.Sprintf("q-%d-%d", i, now.UnixNano())
		}
		if q.Type == "" {
			q.Type = d.QuestionType()
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// parseEvaluation reads the score and feedback of a model reply. When the reply is not valid JSON,
// the score alone is recovered from the raw text.
func parseEvaluation(reply string) (Evaluation, error) {
	cleaned := cleanReply(reply)
	if gjson.Valid(cleaned) {
		if score := gjson.Get(cleaned, "score"); score.Exists() {
			return Evaluation{
				Score:    normalizeScore(score.Int()),
				Feedback: gjson.Get(cleaned, "feedback").String(),
			}, nil
		}
	}

	if m := scoreRe.FindStringSubmatch(reply); m != nil {
		score, _ := strconv.Atoi(m[1])
		return Evaluation{Score: normalizeScore(int64(score)), Feedback: unparsedFeedback}, nil
	}
	return Evaluation{}, ErrBadReply
}

func normalizeScore(score int64) int {
	if score > 0 {
		return 1
	}
	return 0
}
