package models

import (
	"fmt"
	"math"
)

// QuestionResult is the grading of one question.
type QuestionResult struct {
	Index         int    `json:"index"`
	Selected      int    `json:"selected"`
	CorrectAnswer int    `json:"correct_answer"`
	Correct       bool   `json:"correct"`
	Feedback      string `json:"feedback,omitempty"`
}

// QuizResult summarises a graded quiz.
type QuizResult struct {
	Correct   int              `json:"correct"`
	Total     int              `json:"total"`
	Score     int              `json:"score"`
	Message   string           `json:"message"`
	Questions []QuestionResult `json:"questions"`
}

// Display renders the result as "correct/total".
func (r QuizResult) Display() string {
	return fmt.Sprintf("%d/%d", r.Correct, r.Total)
}

// Grade scores answers (question index -> selected option index) against quiz.
// Unanswered questions are incorrect.
func Grade(quiz []QuizItem, answers map[int]int) QuizResult {
	res := QuizResult{
		Total:     len(quiz),
		Questions: make([]QuestionResult, 0, len(quiz)),
	}
	for i, q := range quiz {
		selected, ok := answers[i]
		if !ok {
			selected = -1
		}
		correct := ok && selected == q.CorrectAnswer
		if correct {
			res.Correct++
		}
		res.Questions = append(res.Questions, QuestionResult{
			Index:         i,
			Selected:      selected,
			CorrectAnswer: q.CorrectAnswer,
			Correct:       correct,
			Feedback:      q.Feedback,
		})
	}
	if res.Total > 0 {
		res.Score = int(math.Round(float64(res.Correct) / float64(res.Total) * 100))
	}
	res.Message = ScoreFeedback(res.Score)
	return res
}

// ScoreFeedback returns the encouragement line for a percentage score.
func ScoreFeedback(score int) string {
	switch {
	case score >= 90:
		return "Excellent! You have a great understanding of the topic."
	case score >= 75:
		return "Well done! You've understood most of the key concepts."
	case score >= 60:
		return "Good job! There's still some room for improvement."
	default:
		return "Keep studying! Try reviewing the content and taking the quiz again."
	}
}
