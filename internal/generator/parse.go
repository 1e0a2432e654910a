package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"easylesson/internal/models"
)

// ErrInvalidModelOutput is returned when the model reply cannot be used.
var ErrInvalidModelOutput = errors.New("invalid model output")

const (
	maxGenerationVocabulary   = 4
	maxContinuationVocabulary = 5
)

// StripFences removes surrounding whitespace and a wrapping ```json or ``` block.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	switch {
	case strings.HasPrefix(s, "```json"):
		s = s[len("```json") : len(s)-3]
	case strings.HasPrefix(s, "```"):
		s = s[3 : len(s)-3]
	}
	return strings.TrimSpace(s)
}

// ParseJSON decodes a model reply into a JSON object.
func ParseJSON(raw string) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(StripFences(raw)), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelOutput, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: reply is not a JSON object", ErrInvalidModelOutput)
	}
	return data, nil
}

// ParseGeneration turns a generation reply into a record without id or timestamp.
// Sections the request did not ask for are dropped.
func ParseGeneration(kind models.Kind, raw string, req *models.GenerationRequest) (*models.Record, error) {
	data, err := ParseJSON(raw)
	if err != nil {
		return nil, err
	}

	title, hasTitle := data["title"]
	content, hasContent := firstPresent(data, contentKeys(kind)...)
	if !hasTitle || !hasContent {
		return nil, fmt.Errorf("%w: reply is missing title or %s_content", ErrInvalidModelOutput, kind)
	}
	text, _ := content.(string)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s_content is empty", ErrInvalidModelOutput, kind)
	}

	rec := &models.Record{
		Kind:          kind,
		Title:         strings.TrimSpace(asString(title)),
		Content:       text,
		Subject:       req.DisplaySubject(),
		Topic:         req.SubjectSpecification,
		AcademicGrade: req.AcademicGrade,
		TeacherStyle:  req.TeacherStyle,
		WordCount:     models.CountWords(text),
		Language:      req.Language,
	}
	if rec.Title == "" {
		rec.Title = defaultTitle(kind, req)
	}
	if req.GenerateSummary {
		rec.Summary = strings.TrimSpace(asString(data["summary"]))
	}
	if req.GenerateVocabulary {
		rec.Vocabulary = ParseVocabulary(data["vocabulary"], maxGenerationVocabulary)
	}
	if req.GenerateQuiz {
		rec.Quiz = ParseQuiz(data["quiz"])
	}
	rec.LearningObjectives = parseStrings(data["learning_objectives"])
	return rec, nil
}

// ParseContinuation turns a continuation reply into a response.
func ParseContinuation(raw string, req *models.ContinuationRequest) (*models.ContinuationResponse, error) {
	data, err := ParseJSON(raw)
	if err != nil {
		return nil, err
	}
	v, ok := firstPresent(data, "continuation_text", "continuation_content")
	if !ok {
		return nil, fmt.Errorf("%w: reply is missing continuation_text", ErrInvalidModelOutput)
	}
	text, isString := v.(string)
	if !isString {
		return nil, fmt.Errorf("%w: continuation_text must be a string", ErrInvalidModelOutput)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: continuation_text is empty", ErrInvalidModelOutput)
	}

	resp := &models.ContinuationResponse{
		Content:    text,
		WordCount:  models.CountWords(text),
		Difficulty: req.Difficulty,
		Focus:      req.Focus,
		Vocabulary: ParseVocabulary(data["vocabulary"], maxContinuationVocabulary),
		Quiz:       ParseQuiz(data["quiz"]),
	}
	if req.GenerateSummary {
		resp.Summary = strings.TrimSpace(asString(data["summary"]))
	}
	return resp, nil
}

// ParseVocabulary keeps entries with both a term and a definition, up to limit.
func ParseVocabulary(v any, limit int) []models.VocabularyItem {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []models.VocabularyItem
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		term := strings.TrimSpace(asString(m["term"]))
		def := strings.TrimSpace(asString(m["definition"]))
		if term == "" || def == "" {
			continue
		}
		out = append(out, models.VocabularyItem{Term: term, Definition: def})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// ParseQuiz accepts both the index form (options []string, correct_answer)
// and the option-object form (options [{id,text}], correct_option_id).
// Questions whose answer does not index into their options are dropped.
func ParseQuiz(v any) []models.QuizItem {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []models.QuizItem
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		q, ok := parseQuestion(m)
		if !ok || q.Validate() != nil {
			continue
		}
		out = append(out, q)
	}
	return out
}

func parseQuestion(m map[string]any) (models.QuizItem, bool) {
	q := models.QuizItem{
		Question: strings.TrimSpace(asString(m["question"])),
		Feedback: strings.TrimSpace(asString(m["feedback"])),
	}
	if q.Feedback == "" {
		q.Feedback = strings.TrimSpace(asString(m["explanation"]))
	}

	rawOptions, ok := m["options"].([]any)
	if !ok {
		return q, false
	}
	var ids []string
	for _, o := range rawOptions {
		switch opt := o.(type) {
		case string:
			q.Options = append(q.Options, opt)
			ids = append(ids, "")
		case map[string]any:
			q.Options = append(q.Options, asString(opt["text"]))
			ids = append(ids, asString(opt["id"]))
		default:
			return q, false
		}
	}

	if ca, present := m["correct_answer"]; present {
		idx, ok := asIndex(ca)
		if !ok {
			return q, false
		}
		q.CorrectAnswer = idx
		return q, true
	}
	if id, present := m["correct_option_id"]; present {
		want := asString(id)
		for i, have := range ids {
			if have != "" && strings.EqualFold(have, want) {
				q.CorrectAnswer = i
				return q, true
			}
		}
		// "A".."Z" labels without explicit ids
		if len(want) == 1 && strings.ToUpper(want)[0] >= 'A' && strings.ToUpper(want)[0] <= 'Z' {
			q.CorrectAnswer = int(strings.ToUpper(want)[0] - 'A')
			return q, true
		}
	}
	return q, false
}

func asIndex(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return 0, false
			}
		}
		i, err := strconv.Atoi(s)
		return i, err == nil
	default:
		return 0, false
	}
}

func parseStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		if s := strings.TrimSpace(asString(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func firstPresent(data map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := data[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// contentKeys lists the accepted content keys, the kind's own key first.
func contentKeys(kind models.Kind) []string {
	if kind == models.KindLesson {
		return []string{"lesson_content", "story_content", "content"}
	}
	return []string{"story_content", "lesson_content", "content"}
}

func defaultTitle(kind models.Kind, req *models.GenerationRequest) string {
	if kind == models.KindLesson {
		return "Generated Lesson: " + req.DisplaySubject()
	}
	return "Generated Story"
}
