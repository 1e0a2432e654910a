package models

import "strings"

// ContinuationSeparator is placed between original and continued content.
const ContinuationSeparator = "\n\n--- Continuation ---\n\n"

// Merge returns a copy of original extended with cont. The original is not modified.
func Merge(original Record, cont ContinuationResponse) Record {
	merged := original
	merged.Content = original.Content + ContinuationSeparator + cont.Content
	merged.WordCount = original.WordCount + cont.WordCount

	if merged.Summary == "" {
		merged.Summary = cont.Summary
	}

	merged.Vocabulary = nil
	seen := make(map[string]bool, len(original.Vocabulary)+len(cont.Vocabulary))
	for _, v := range original.Vocabulary {
		merged.Vocabulary = append(merged.Vocabulary, v)
		seen[strings.ToLower(strings.TrimSpace(v.Term))] = true
	}
	for _, v := range cont.Vocabulary {
		key := strings.ToLower(strings.TrimSpace(v.Term))
		if seen[key] {
			continue
		}
		seen[key] = true
		merged.Vocabulary = append(merged.Vocabulary, v)
	}

	merged.Quiz = nil
	if len(original.Quiz)+len(cont.Quiz) > 0 {
		merged.Quiz = make([]QuizItem, 0, len(original.Quiz)+len(cont.Quiz))
		merged.Quiz = append(merged.Quiz, original.Quiz...)
		merged.Quiz = append(merged.Quiz, cont.Quiz...)
	}

	if len(original.LearningObjectives) > 0 {
		merged.LearningObjectives = append([]string(nil), original.LearningObjectives...)
	}
	return merged
}
