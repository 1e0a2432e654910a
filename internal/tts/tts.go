package tts

import (
	"context"
	"strings"
)

// Service turns text into audio.
type Service interface {
	// SynthesizeSpeech converts text to audio spoken by voice.
	SynthesizeSpeech(ctx context.Context, text string, voice string) ([]byte, error)

	Provider() string
}

const DefaultVoice = "en-US-AriaNeural"

// voices maps a lowercase language name or code to an Edge neural voice.
var voices = map[string]string{
	"english":    "en-US-AriaNeural",
	"en":         "en-US-AriaNeural",
	"spanish":    "es-ES-ElviraNeural",
	"es":         "es-ES-ElviraNeural",
	"french":     "fr-FR-DeniseNeural",
	"fr":         "fr-FR-DeniseNeural",
	"german":     "de-DE-KatjaNeural",
	"de":         "de-DE-KatjaNeural",
	"italian":    "it-IT-ElsaNeural",
	"it":         "it-IT-ElsaNeural",
	"portuguese": "pt-BR-FranciscaNeural",
	"pt":         "pt-BR-FranciscaNeural",
	"chinese":    "zh-CN-XiaoxiaoNeural",
	"mandarin":   "zh-CN-XiaoxiaoNeural",
	"zh":         "zh-CN-XiaoxiaoNeural",
	"japanese":   "ja-JP-NanamiNeural",
	"ja":         "ja-JP-NanamiNeural",
	"korean":     "ko-KR-SunHiNeural",
	"ko":         "ko-KR-SunHiNeural",
	"hindi":      "hi-IN-SwaraNeural",
	"hi":         "hi-IN-SwaraNeural",
	"arabic":     "ar-SA-ZariyahNeural",
	"ar":         "ar-SA-ZariyahNeural",
	"russian":    "ru-RU-SvetlanaNeural",
	"ru":         "ru-RU-SvetlanaNeural",
}

// VoiceForLanguage picks the voice for a record language. Unknown languages get DefaultVoice.
func VoiceForLanguage(language string) string {
	if v, ok := voices[strings.ToLower(strings.TrimSpace(language))]; ok {
		return v
	}
	return DefaultVoice
}

// voiceLocale returns the xml:lang of a voice name, e.g. "en-US" for en-US-AriaNeural.
func voiceLocale(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 3 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}
