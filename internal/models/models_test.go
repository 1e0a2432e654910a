package models

import (
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeAppendsContinuation(t *testing.T) {
	original := Record{
		ID:         "r1",
		Kind:       KindStory,
		Title:      "T",
		Content:    "A",
		WordCount:  1,
		Vocabulary: []VocabularyItem{{Term: "Cell", Definition: "unit"}},
		Quiz:       []QuizItem{{Question: "q1", Options: []string{"a", "b"}, CorrectAnswer: 0}},
	}
	cont := ContinuationResponse{
		Content:    "B",
		WordCount:  1,
		Summary:    "more",
		Vocabulary: []VocabularyItem{{Term: "cell", Definition: "dup"}, {Term: "Nucleus", Definition: "core"}},
		Quiz:       []QuizItem{{Question: "q2", Options: []string{"a", "b"}, CorrectAnswer: 1}},
	}

	merged := Merge(original, cont)

	assert.Equal(t, "A\n\n--- Continuation ---\n\nB", merged.Content)
	assert.Equal(t, 2, merged.WordCount)
	assert.Equal(t, "more", merged.Summary)
	assert.Equal(t, []VocabularyItem{{Term: "Cell", Definition: "unit"}, {Term: "Nucleus", Definition: "core"}}, merged.Vocabulary)
	require.Len(t, merged.Quiz, 2)
	assert.Equal(t, "q2", merged.Quiz[1].Question)
	assert.Equal(t, "r1", merged.ID)

	// original untouched
	assert.Equal(t, "A", original.Content)
	assert.Len(t, original.Quiz, 1)
	assert.Len(t, original.Vocabulary, 1)
}

func TestMergeKeepsOriginalSummary(t *testing.T) {
	merged := Merge(Record{Content: "A", Summary: "first"}, ContinuationResponse{Content: "B", Summary: "second"})
	assert.Equal(t, "first", merged.Summary)
	assert.Nil(t, merged.Quiz)
	assert.Nil(t, merged.Vocabulary)
}

func TestGrade(t *testing.T) {
	quiz := []QuizItem{{Question: "q", Options: []string{"x", "y", "z"}, CorrectAnswer: 1, Feedback: "y it is"}}

	res := Grade(quiz, map[int]int{0: 1})
	assert.Equal(t, "1/1", res.Display())
	assert.Equal(t, 100, res.Score)
	assert.True(t, res.Questions[0].Correct)
	assert.Equal(t, "y it is", res.Questions[0].Feedback)

	res = Grade(quiz, map[int]int{0: 2})
	assert.Equal(t, "0/1", res.Display())
	assert.Contains(t, res.Message, "Keep studying")
}

func TestGradeUnansweredAndEmpty(t *testing.T) {
	quiz := []QuizItem{
		{Question: "a", Options: []string{"1", "2"}, CorrectAnswer: 0},
		{Question: "b", Options: []string{"1", "2"}, CorrectAnswer: 0},
		{Question: "c", Options: []string{"1", "2"}, CorrectAnswer: 0},
	}
	res := Grade(quiz, map[int]int{0: 0, 1: 0})
	assert.Equal(t, 67, res.Score)
	assert.Equal(t, -1, res.Questions[2].Selected)
	assert.Equal(t, "Good job! There's still some room for improvement.", res.Message)

	empty := Grade(nil, nil)
	assert.Equal(t, 0, empty.Total)
	assert.Equal(t, 0, empty.Score)
}

func TestQuizItemValidate(t *testing.T) {
	assert.NoError(t, QuizItem{Question: "q", Options: []string{"a", "b"}, CorrectAnswer: 1}.Validate())
	err := QuizItem{Question: "q", Options: []string{"a", "b"}, CorrectAnswer: 2}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Error(t, QuizItem{Question: "q", Options: []string{"a"}}.Validate())
}

func TestRecordValidate(t *testing.T) {
	r := &Record{Kind: KindLesson, Title: "t", Quiz: []QuizItem{{Question: "q", Options: []string{"a", "b"}, CorrectAnswer: -1}}}
	assert.ErrorIs(t, r.Validate(), ErrInvalidRequest)
	r.Quiz[0].CorrectAnswer = 0
	assert.NoError(t, r.Validate())
	r.Kind = "poem"
	assert.Error(t, r.Validate())
}

func TestRecordOmitsAbsentSections(t *testing.T) {
	b, err := json.Marshal(Record{ID: "1", Kind: KindStory, Title: "t"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "vocabulary")
	assert.NotContains(t, string(b), "quiz")
	assert.NotContains(t, string(b), "summary")
}

func TestGenerationRequestCoercesWordCount(t *testing.T) {
	var req GenerationRequest
	require.NoError(t, json.Unmarshal([]byte(`{"academic_grade":"5","subject":"biology","word_count":"450"}`), &req))
	req.Normalize()
	assert.Equal(t, FlexInt(450), req.WordCount)
	assert.Equal(t, "English", req.Language)
	assert.NoError(t, req.Validate())

	var bad GenerationRequest
	err := json.Unmarshal([]byte(`{"word_count":"lots"}`), &bad)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestGenerationRequestValidate(t *testing.T) {
	req := GenerationRequest{AcademicGrade: "13", Subject: "other", WordCount: 10, TeacherStyle: "Loud"}
	err := req.Validate()
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "academic_grade")
	assert.Contains(t, err.Error(), "other_subject")
	assert.Contains(t, err.Error(), "word_count")
	assert.Contains(t, err.Error(), "teacher_style")

	ok := GenerationRequest{AcademicGrade: "university", Subject: "other", OtherSubject: "astronomy", WordCount: 300}
	assert.NoError(t, ok.Validate())
	assert.Equal(t, "astronomy", ok.DisplaySubject())
}

func TestValidGrade(t *testing.T) {
	for _, g := range []string{"K", "k", "1", "12", "University"} {
		assert.True(t, ValidGrade(g), g)
	}
	for _, g := range []string{"", "0", "13", "college"} {
		assert.False(t, ValidGrade(g), g)
	}
}

func TestContinuationRequestNormalize(t *testing.T) {
	req := ContinuationRequest{OriginalStoryContent: "Once", Difficulty: "impossible"}
	req.Normalize()
	assert.Equal(t, string(SameLevel), req.Difficulty)
	assert.Equal(t, DefaultFocus, req.Focus)
	assert.Equal(t, FlexInt(300), req.Length)
	assert.Equal(t, "Once", req.Original())
	assert.NoError(t, req.Validate())

	empty := ContinuationRequest{Length: 300}
	assert.ErrorIs(t, empty.Validate(), ErrInvalidRequest)
}

func TestNewMockID(t *testing.T) {
	id := NewMockID(time.UnixMilli(1700000000000))
	assert.Regexp(t, regexp.MustCompile(`^mock-1700000000000-\d{1,3}$`), id)
	assert.True(t, IsMockID(id))
	assert.Equal(t, 3, CountWords("  one two\n\nthree "))
}
