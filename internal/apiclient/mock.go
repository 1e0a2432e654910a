package apiclient

import (
	"fmt"
	"time"

	"easylesson/internal/models"
)

// MockRecord builds an offline placeholder for a generation request.
func MockRecord(kind models.Kind, req models.GenerationRequest, now time.Time) *models.Record {
	req.Normalize()
	subject := req.DisplaySubject()
	if subject == "" {
		subject = "learning"
	}
	setting := req.Setting
	if setting == "" {
		setting = "classroom"
	}
	character := req.MainCharacter
	if character == "" {
		character = "a student"
	}
	topic := req.SubjectSpecification
	if topic == "" {
		topic = "important concepts"
	}

	content := fmt.Sprintf("Once upon a time, in a %s, %s discovered the fascinating world of %s.\n\n"+
		"They were learning about %s and found it both challenging and exciting.\n\n"+
		"Through perseverance and curiosity, they mastered the topic and shared their knowledge with others.\n\n"+
		"The end.", setting, character, subject, topic)

	return &models.Record{
		ID:            models.NewMockID(now),
		Kind:          kind,
		Title:         fmt.Sprintf("A %s Adventure", subject),
		Content:       content,
		Subject:       subject,
		Topic:         req.SubjectSpecification,
		AcademicGrade: req.AcademicGrade,
		TeacherStyle:  req.TeacherStyle,
		WordCount:     models.CountWords(content),
		Language:      req.Language,
		CreatedAt:     now.UTC(),
	}
}
