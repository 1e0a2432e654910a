package tts

import (
	"strings"

	"easylesson/internal/models"
)

var markdownReplacer = strings.NewReplacer("**", "", "__", "", "`", "", "*", "")

// NarrationText is the title followed by the content, with Markdown markers and
// the continuation separator removed.
func NarrationText(rec *models.Record) string {
	content := strings.ReplaceAll(rec.Content, models.ContinuationSeparator, "\n\n")

	var paras []string
	if t := strings.TrimSpace(rec.Title); t != "" {
		paras = append(paras, t+".")
	}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "#>-")
		line = strings.TrimSpace(markdownReplacer.Replace(line))
		if line == "" {
			continue
		}
		paras = append(paras, line)
	}
	return strings.Join(paras, "\n\n")
}
