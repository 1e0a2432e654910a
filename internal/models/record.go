package models

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// ErrInvalidRequest marks input that failed validation.
var ErrInvalidRequest = errors.New("invalid request")

// Kind says which app variant produced a record.
type Kind string

const (
	KindStory  Kind = "story"
	KindLesson Kind = "lesson"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindStory || k == KindLesson
}

// VocabularyItem is a term with a grade-appropriate definition.
type VocabularyItem struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// QuizItem is a multiple-choice question. CorrectAnswer is a 0-based index into Options.
type QuizItem struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Feedback      string   `json:"feedback,omitempty"`
}

// Validate checks that the answer index points into the options.
func (q QuizItem) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w: quiz question is empty", ErrInvalidRequest)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: quiz question %q needs at least two options", ErrInvalidRequest, q.Question)
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("%w: correct_answer %d out of range for %d options", ErrInvalidRequest, q.CorrectAnswer, len(q.Options))
	}
	return nil
}

// Record is a generated story or lesson.
type Record struct {
	ID                 string           `json:"id"`
	Kind               Kind             `json:"kind"`
	Title              string           `json:"title"`
	Content            string           `json:"content"`
	Summary            string           `json:"summary,omitempty"`
	Subject            string           `json:"subject"`
	Topic              string           `json:"topic,omitempty"`
	AcademicGrade      string           `json:"academic_grade"`
	TeacherStyle       string           `json:"teacher_style,omitempty"`
	WordCount          int              `json:"word_count"`
	Language           string           `json:"language"`
	CreatedAt          time.Time        `json:"created_at"`
	Vocabulary         []VocabularyItem `json:"vocabulary,omitempty"`
	Quiz               []QuizItem       `json:"quiz,omitempty"`
	LearningObjectives []string         `json:"learning_objectives,omitempty"`
}

// Validate checks the invariants a stored record must hold.
func (r *Record) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, r.Kind)
	}
	for i, q := range r.Quiz {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("quiz[%d]: %w", i, err)
		}
	}
	return nil
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// NewMockID returns a client-side placeholder id of the form mock-<millis>-<n>.
func NewMockID(now time.Time) string {
	return fmt.Sprintf("mock-%d-%d", now.UnixMilli(), rand.Intn(1000))
}

// IsMockID reports whether id was produced by NewMockID.
func IsMockID(id string) bool {
	return strings.HasPrefix(id, "mock-")
}
