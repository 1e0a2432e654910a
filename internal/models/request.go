package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultWordCount = 300
	MinWordCount     = 50
	MaxWordCount     = 2000
	DefaultLanguage  = "English"
	DefaultFocus     = "general"
)

// FlexInt decodes from a JSON number or a numeric string. Form posts send
// word_count as "300".
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", ErrInvalidRequest, s)
		}
		*f = FlexInt(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexInt(int(n))
	return nil
}

// TeacherStyles maps the lesson teacher personas to a prompt description.
var TeacherStyles = map[string]string{
	"Encouraging": "warm, encouraging, slightly informal, uses analogies and real-world examples, focuses on building understanding and confidence.",
	"Structured":  "clear, structured, precise, step-by-step explanations, emphasizes key concepts and definitions, slightly more formal.",
	"Creative":    "imaginative, uses storytelling or creative scenarios, connects concepts in unexpected ways, more conversational.",
	"Direct":      "concise, to-the-point, focuses on essential information and facts, minimal fluff.",
}

// GenerationRequest is what the generation form posts.
type GenerationRequest struct {
	AcademicGrade        string  `json:"academic_grade"`
	Subject              string  `json:"subject"`
	OtherSubject         string  `json:"other_subject,omitempty"`
	SubjectSpecification string  `json:"subject_specification,omitempty"`
	Topic                string  `json:"topic,omitempty"`
	Setting              string  `json:"setting,omitempty"`
	MainCharacter        string  `json:"main_character,omitempty"`
	TeacherStyle         string  `json:"teacher_style,omitempty"`
	WordCount            FlexInt `json:"word_count"`
	Language             string  `json:"language,omitempty"`
	GenerateVocabulary   bool    `json:"generate_vocabulary"`
	GenerateSummary      bool    `json:"generate_summary"`
	GenerateQuiz         bool    `json:"generate_quiz"`
	UserPromptAddition   string  `json:"user_prompt_addition,omitempty"`
}

// Normalize fills defaults and trims fields in place.
func (r *GenerationRequest) Normalize() {
	r.AcademicGrade = strings.TrimSpace(r.AcademicGrade)
	r.Subject = strings.TrimSpace(r.Subject)
	r.OtherSubject = strings.TrimSpace(r.OtherSubject)
	if r.SubjectSpecification == "" {
		r.SubjectSpecification = r.Topic
	}
	r.SubjectSpecification = strings.TrimSpace(r.SubjectSpecification)
	r.Topic = r.SubjectSpecification
	if r.WordCount == 0 {
		r.WordCount = DefaultWordCount
	}
	if strings.TrimSpace(r.Language) == "" {
		r.Language = DefaultLanguage
	}
}

// Validate rejects requests the generator cannot serve.
func (r *GenerationRequest) Validate() error {
	var problems []string
	if r.AcademicGrade == "" {
		problems = append(problems, "academic_grade is required")
	} else if !ValidGrade(r.AcademicGrade) {
		problems = append(problems, fmt.Sprintf("academic_grade %q must be K, 1-12 or University", r.AcademicGrade))
	}
	if r.Subject == "" {
		problems = append(problems, "subject is required")
	}
	if r.Subject == "other" && r.OtherSubject == "" {
		problems = append(problems, "other_subject is required when subject is other")
	}
	if wc := int(r.WordCount); wc < MinWordCount || wc > MaxWordCount {
		problems = append(problems, fmt.Sprintf("word_count must be between %d and %d", MinWordCount, MaxWordCount))
	}
	if r.TeacherStyle != "" {
		if _, ok := TeacherStyles[r.TeacherStyle]; !ok {
			problems = append(problems, fmt.Sprintf("teacher_style %q is not supported", r.TeacherStyle))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return nil
}

// DisplaySubject is the subject used in prompts: other_subject replaces "other".
func (r *GenerationRequest) DisplaySubject() string {
	if r.Subject == "other" && r.OtherSubject != "" {
		return r.OtherSubject
	}
	return r.Subject
}

// ValidGrade accepts K, University or 1..12, case-insensitively.
func ValidGrade(grade string) bool {
	g := strings.TrimSpace(grade)
	if strings.EqualFold(g, "K") || strings.EqualFold(g, "University") {
		return true
	}
	n, err := strconv.Atoi(g)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 12
}

// Difficulty adjusts a continuation relative to the original.
type Difficulty string

const (
	MuchEasier     Difficulty = "much_easier"
	SlightlyEasier Difficulty = "slightly_easier"
	SameLevel      Difficulty = "same_level"
	SlightlyHarder Difficulty = "slightly_harder"
	MuchHarder     Difficulty = "much_harder"
)

// NormalizeDifficulty maps unknown values to SameLevel.
func NormalizeDifficulty(d string) Difficulty {
	switch Difficulty(strings.TrimSpace(d)) {
	case MuchEasier, SlightlyEasier, SameLevel, SlightlyHarder, MuchHarder:
		return Difficulty(strings.TrimSpace(d))
	default:
		return SameLevel
	}
}

// ContinuationRequest asks for more content after an existing record.
type ContinuationRequest struct {
	OriginalContent       string  `json:"original_content,omitempty"`
	OriginalStoryContent  string  `json:"original_story_content,omitempty"`
	OriginalLessonContent string  `json:"original_lesson_content,omitempty"`
	Length                FlexInt `json:"length"`
	Difficulty            string  `json:"difficulty,omitempty"`
	Focus                 string  `json:"focus,omitempty"`
	GenerateSummary       bool    `json:"generate_summary"`
	Prompt                string  `json:"prompt,omitempty"`
}

// Original returns the first non-empty original content field.
func (r *ContinuationRequest) Original() string {
	for _, s := range []string{r.OriginalContent, r.OriginalStoryContent, r.OriginalLessonContent} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// Normalize fills defaults in place.
func (r *ContinuationRequest) Normalize() {
	if r.Length == 0 {
		r.Length = DefaultWordCount
	}
	r.Difficulty = string(NormalizeDifficulty(r.Difficulty))
	r.Focus = strings.TrimSpace(r.Focus)
	if r.Focus == "" {
		r.Focus = DefaultFocus
	}
	r.Prompt = strings.TrimSpace(r.Prompt)
}

// Validate requires original content and a sane length.
func (r *ContinuationRequest) Validate() error {
	if r.Original() == "" {
		return fmt.Errorf("%w: original content is required", ErrInvalidRequest)
	}
	if l := int(r.Length); l < MinWordCount || l > MaxWordCount {
		return fmt.Errorf("%w: length must be between %d and %d", ErrInvalidRequest, MinWordCount, MaxWordCount)
	}
	return nil
}

// ContinuationResponse is the generated continuation of a record.
type ContinuationResponse struct {
	StoryID    string           `json:"story_id,omitempty"`
	LessonID   string           `json:"lesson_id,omitempty"`
	Content    string           `json:"continuation_text"`
	WordCount  int              `json:"word_count"`
	Difficulty string           `json:"difficulty"`
	Focus      string           `json:"focus"`
	Vocabulary []VocabularyItem `json:"vocabulary,omitempty"`
	Summary    string           `json:"summary,omitempty"`
	Quiz       []QuizItem       `json:"quiz,omitempty"`
}
