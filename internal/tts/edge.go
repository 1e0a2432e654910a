package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"easylesson/config"
	"easylesson/internal/logger"
)

// maxChunkRunes keeps each request under the read-aloud endpoint's text limit.
const maxChunkRunes = 2500

// ErrNoText is returned when there is nothing to narrate.
var ErrNoText = errors.New("no text to narrate")

// EdgeTTS calls the Edge read-aloud endpoint.
type EdgeTTS struct {
	baseURL      string
	outputFormat string
	client       *http.Client
	log          *logger.Logger
}

func NewEdgeTTS(cfg *config.TTSConfig, log *logger.Logger) *EdgeTTS {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EdgeTTS{
		baseURL:      cfg.EdgeURL,
		outputFormat: cfg.OutputFormat,
		client:       &http.Client{Timeout: timeout},
		log:          log.With("component", "tts", "provider", "edge"),
	}
}

func (e *EdgeTTS) Provider() string {
	return "edge"
}

// SynthesizeSpeech narrates text paragraph by paragraph and concatenates the
// MP3 results.
func (e *EdgeTTS) SynthesizeSpeech(ctx context.Context, text string, voice string) ([]byte, error) {
	chunks := SplitText(text, maxChunkRunes)
	if len(chunks) == 0 {
		return nil, ErrNoText
	}
	if voice == "" {
		voice = DefaultVoice
	}

	var audio []byte
	for i, chunk := range chunks {
		part, err := e.synthesize(ctx, chunk, voice)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		audio = append(audio, part...)
	}
	e.log.Info("narration synthesized", "voice", voice, "chunks", len(chunks), "bytes", len(audio))
	return audio, nil
}

func (e *EdgeTTS) synthesize(ctx context.Context, text string, voice string) ([]byte, error) {
	ssml := fmt.Sprintf(`
<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s">
	<voice name="%s">
		<prosody rate="0%%" pitch="0%%">%s</prosody>
	</voice>
</speak>`, voiceLocale(voice), voice, escapeXML(text))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", e.outputFormat)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/93.0.4577.63 Safari/537.36 Edg/93.0.961.47")
	req.Header.Set("Origin", "https://speech.platform.bing.com")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts request failed with status %d", resp.StatusCode)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("tts returned empty audio")
	}
	return audio, nil
}

// SplitText breaks text on paragraph boundaries into chunks of at most max runes.
// A single paragraph longer than max is split on sentence ends, then hard-cut.
func SplitText(text string, max int) []string {
	var chunks []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		for _, piece := range splitLong(para, max) {
			if cur.Len() > 0 && len([]rune(cur.String()))+len([]rune(piece))+2 > max {
				flush()
			}
			if cur.Len() > 0 {
				cur.WriteString("\n\n")
			}
			cur.WriteString(piece)
		}
	}
	flush()
	return chunks
}

func splitLong(para string, max int) []string {
	runes := []rune(para)
	if len(runes) <= max {
		return []string{para}
	}
	var out []string
	for len(runes) > max {
		cut := max
		for i := max - 1; i > max/2; i-- {
			if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
				cut = i + 1
				break
			}
		}
		out = append(out, strings.TrimSpace(string(runes[:cut])))
		runes = runes[cut:]
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		out = append(out, rest)
	}
	return out
}

func escapeXML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	text = strings.ReplaceAll(text, "\"", "&quot;")
	text = strings.ReplaceAll(text, "'", "&apos;")
	return text
}
