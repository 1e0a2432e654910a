package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"easylesson/internal/models"
)

// ContentKey is the JSON key the model is asked to put the main text under.
func ContentKey(kind models.Kind) string {
	if kind == models.KindLesson {
		return "lesson_content"
	}
	return "story_content"
}

// DifficultyInstructions tells the model how to shift complexity in a continuation.
var DifficultyInstructions = map[models.Difficulty]string{
	models.MuchEasier:     "Use significantly simpler vocabulary and sentence structure. Reduce complexity considerably.",
	models.SlightlyEasier: "Use slightly simpler vocabulary and somewhat less complex sentences.",
	models.SameLevel:      "Maintain the same level of vocabulary and sentence complexity as the original.",
	models.SlightlyHarder: "Use slightly more advanced vocabulary and somewhat more complex sentences.",
	models.MuchHarder:     "Use significantly more advanced vocabulary and more complex sentence structures.",
}

// SystemPrompt wraps an output schema description.
func SystemPrompt(kind models.Kind, schema string) string {
	role := "an expert educational storyteller"
	if kind == models.KindLesson {
		role = "an expert educational content creator"
	}
	return fmt.Sprintf("You are %s. Generate content exactly in the JSON format described below:\n%s", role, schema)
}

// GenerationSchema describes the expected JSON for a generation request.
// Optional sections appear only when requested.
func GenerationSchema(kind models.Kind, req *models.GenerationRequest) map[string]string {
	schema := map[string]string{
		"title":               fmt.Sprintf("string (Compelling title for the %s)", kind),
		ContentKey(kind):      fmt.Sprintf("string (The full %s text, with paragraphs separated by double line breaks '\\n\\n')", kind),
		"learning_objectives": "[string] (Optional: 3-5 bullet points outlining potential educational takeaways)",
	}
	if req.GenerateSummary {
		schema["summary"] = "string (Concise 2-3 sentence summary)"
	}
	if req.GenerateVocabulary {
		schema["vocabulary"] = `[{"term": "string", "definition": "string"}] (List of 4 vocabulary words and definitions)`
	}
	if req.GenerateQuiz {
		schema["quiz"] = `[{"question": "string", "options": ["string"], "correct_answer": int, "feedback": "string"}] (List of quiz questions, each with an array of 4 options and the index of the correct answer (0-3))`
	}
	return schema
}

// BuildGenerationPrompt returns the system and user prompts for a new record.
func BuildGenerationPrompt(kind models.Kind, req *models.GenerationRequest) (string, string) {
	audience := fmt.Sprintf("Target Audience: Grade %s students.", req.AcademicGrade)
	if strings.EqualFold(req.AcademicGrade, "university") {
		audience = "Target Audience: University students."
	}

	lines := []string{
		fmt.Sprintf("Generate an educational %s in %s.", kind, req.Language),
		audience,
		fmt.Sprintf("Subject: %s.", req.DisplaySubject()),
	}
	if req.SubjectSpecification != "" {
		lines = append(lines, fmt.Sprintf("Specific Topic Focus: %s.", req.SubjectSpecification))
	}
	if req.Setting != "" {
		lines = append(lines, fmt.Sprintf("Setting: %s.", req.Setting))
	}
	if req.MainCharacter != "" {
		lines = append(lines, fmt.Sprintf("Main Character: %s.", req.MainCharacter))
	}
	if desc, ok := models.TeacherStyles[req.TeacherStyle]; ok {
		lines = append(lines, fmt.Sprintf("Teacher Style: %s (%s)", req.TeacherStyle, desc))
	}
	lines = append(lines, fmt.Sprintf("Approximate Word Count: %d words.", int(req.WordCount)))
	if kind == models.KindLesson {
		lines = append(lines,
			"Explain the core concepts clearly and engagingly.",
			"Structure the lesson logically (introduction, explanation, examples, conclusion). Use Markdown.",
		)
	} else {
		lines = append(lines, "The story should be engaging, age-appropriate, and educational, subtly teaching concepts related to the subject.")
	}
	lines = append(lines,
		"\nRequirements:",
		"- Generate a compelling title.",
		fmt.Sprintf("- Generate the main %s content. Use double line breaks '\\n\\n' between paragraphs.", kind),
	)
	if req.UserPromptAddition != "" {
		lines = append(lines, "\nAdditional Instructions:\n"+req.UserPromptAddition)
	}
	lines = append(lines, "\nOutput the entire result as a single JSON object conforming exactly to the specified structure.")

	return SystemPrompt(kind, marshalSchema(GenerationSchema(kind, req))), strings.Join(lines, "\n")
}

// ContinuationSchema describes the expected JSON for a continuation.
func ContinuationSchema(kind models.Kind, req *models.ContinuationRequest) map[string]string {
	schema := map[string]string{
		"continuation_text": fmt.Sprintf("string (The continuation of the %s, with paragraphs separated by double line breaks '\\n\\n')", kind),
		"vocabulary":        `[{"term": "string", "definition": "string"}] (List of 4 vocabulary words used in the continuation)`,
		"quiz":              `[{"question": "string", "options": ["string"], "correct_answer": int}] (List of 3-5 quiz questions with multiple-choice options and correct answer index)`,
	}
	if req.GenerateSummary {
		schema["summary"] = "string (A concise 2-3 sentence summary of the continuation)"
	}
	return schema
}

// BuildContinuationPrompt returns the system and user prompts for a continuation.
func BuildContinuationPrompt(kind models.Kind, req *models.ContinuationRequest) (string, string) {
	instruction, ok := DifficultyInstructions[models.NormalizeDifficulty(req.Difficulty)]
	if !ok {
		instruction = DifficultyInstructions[models.SameLevel]
	}

	lines := []string{
		fmt.Sprintf("Continue the following educational %s with approximately %d more words.", kind, int(req.Length)),
		"Difficulty adjustment: " + instruction,
		fmt.Sprintf("Ensure the continuation flows naturally from the original %s and maintains the educational themes.", kind),
	}
	if req.Focus != "" && req.Focus != models.DefaultFocus {
		lines = append(lines, focusBlock(req.Focus))
	}
	if req.Prompt != "" {
		lines = append(lines, "User instructions: "+req.Prompt)
	}
	lines = append(lines,
		fmt.Sprintf("\nOriginal %s:", strings.ToUpper(string(kind[:1]))+string(kind[1:])),
		req.Original(),
		"\nRequirements:",
		"- Generate a natural continuation that picks up exactly where the original left off.",
		"- Maintain consistent characters, setting, and educational themes.",
		"- Include 3-5 relevant vocabulary items that align with the specified difficulty level.",
	)

	return SystemPrompt(kind, marshalSchema(ContinuationSchema(kind, req))), strings.Join(lines, "\n")
}

func focusBlock(focus string) string {
	return fmt.Sprintf(`
Focus: Make '%[1]s' a central theme in this continuation.
- Introduce '%[1]s' early in the continuation
- Explain the concept of '%[1]s' in a clear, educational way
- Demonstrate practical examples of '%[1]s' within the context
- Make '%[1]s' essential to resolving a challenge or advancing the narrative
- Revisit '%[1]s' in the conclusion to reinforce its importance

This focus term is explicitly selected by the user as a learning priority, so make it unmistakably central to the continuation.`, focus)
}

func marshalSchema(schema map[string]string) string {
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
