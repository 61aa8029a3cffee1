package quiz

import (
	"fmt"
	"strings"
)

const defaultUserInput = "Generate quiz questions about the broader concepts covered in the material"

var guidelines = map[Difficulty]string{
	Easy: `- Create multiple-choice questions with 4 options each
- Make only ONE option correct
- Questions should test basic understanding and application of concepts (not memorization)
- Label the correct answer as 0, 1, 2, or 3 (zero-indexed)`,
	Medium: `- Create short-answer questions that can be answered in 1-5 words
- Questions should test application of concepts to new scenarios
- The correct answer should be a simple term or short phrase`,
	Hard: `- Create challenging analysis questions that require deep understanding
- Questions should test critical thinking, synthesis, and novel application of principles
- The correct answer should list key concepts that should be included`,
}

type quizPromptData struct {
	courseName        string
	courseDescription string
	lectureContext    string
	params            Params
}

func buildQuizPrompt(data quizPromptData) string {
	p := data.params
	qType := p.Difficulty.QuestionType()
	courseName := data.courseName
	if courseName == "" {
		courseName = "Unspecified Course"
	}
	userInput := p.UserInput
	if userInput == "" {
		userInput = defaultUserInput
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a quiz with %d %s questions that demonstrate comprehension of the concepts taught in the following course:\n", p.NumberOfQuestions, qType)
	fmt.Fprintf(&b, "Course: %s\n", courseName)
	if data.courseDescription != "" {
		fmt.Fprintf(&b, "Description: %s\n", data.courseDescription)
	}
	fmt.Fprintf(&b, "\nUser's specific request: %q\n", userInput)
	if data.lectureContext != "" {
		b.WriteString("\nContext from lecture notes (use ONLY as reference for topics, not for direct questions):\n")
		b.WriteString(data.lectureContext)
		b.WriteString("\n")
	}

	b.WriteString(`
IMPORTANT INSTRUCTIONS:
- Do NOT create questions that directly quote or test memorization of the lecture content
- Instead, focus on related concepts, practical applications, and understanding of the underlying principles
- Questions should be answerable by someone who has mastered the topics covered in the lecture notes
- Create questions that apply the knowledge from these topics to slightly different scenarios
- Stay within the scope of the course subject matter
`)
	fmt.Fprintf(&b, "\nFollow these guidelines based on the difficulty level (%s):\n%s\n", p.Difficulty, guidelines[p.Difficulty])
	fmt.Fprintf(&b, "- Ensure questions are directly relevant to %s but not copied from the notes\n", courseName)

	options, answer := "", `"key terms or concepts"`
	if p.Difficulty == Easy {
		options, answer = `"options": ["Option A", "Option B", "Option C", "Option D"], `, "0, 1, 2, or 3"
	}
	fmt.Fprintf(&b, `
Format your response as a JSON array of questions with this structure:
[{"id": "unique-string", "question": "Question text", %s"correctAnswer": %s, "type": "%s"}, ...]

Return only valid JSON without any other text.
`, options, answer, qType)
	return b.String()
}

func buildEvaluationPrompt(ca CheckAnswer) string {
	return fmt.Sprintf(`You are an educational assessment tool evaluating student answers. Be lenient with grammatical errors,
focusing only on conceptual correctness. Decide if the student's answer captures the key concepts.

Question: %s

Expected key concepts: %s

Student's answer: %s

First, identify what concepts/ideas the student captured correctly.
Then, determine if the answer deserves a passing score (1) or not (0).
Be generous: if they understood the core concept but expressed it poorly, give them a 1.
Ignore spelling and grammar issues completely.

Your feedback must always begin with either "Correct: " or "Incorrect: " depending on your score.

Return your evaluation as JSON in this format:
{"score": 0 or 1, "feedback": "Correct: [explanation]" or "Incorrect: [explanation]"}

Return only valid JSON without any other text.
`, ca.Question, ca.ExpectedAnswer, ca.UserAnswer)
}
