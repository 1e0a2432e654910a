package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easylesson/internal/logger"
	"easylesson/internal/models"
)

func newTestCmd(t *testing.T, srvURL string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	log = logger.Nop()
	serverURL = srvURL
	timeout = 5 * time.Second
	mockFallback = false
	useProxies = false

	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(out)
	return cmd, out
}

func TestGenerateCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/stories/generate", r.URL.Path)
		var req models.GenerationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "7", req.AcademicGrade)
		assert.Equal(t, models.FlexInt(400), req.WordCount)
		assert.True(t, req.GenerateQuiz)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Record{ID: "s1", Kind: models.KindStory, Title: "Tides"})
	}))
	defer srv.Close()

	cmd, out := newTestCmd(t, srv.URL+"/api")
	genKind = "story"
	genRequest = models.GenerationRequest{AcademicGrade: "7", Subject: "Science", GenerateQuiz: true}
	genWords = 400
	defer func() { genRequest = models.GenerationRequest{} }()

	require.NoError(t, runGenerate(cmd, nil))
	var rec models.Record
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, "Tides", rec.Title)
}

func TestGenerateCmdMockFallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	cmd, out := newTestCmd(t, base)
	mockFallback = true
	defer func() { mockFallback = false }()
	genKind = "lesson"
	genRequest = models.GenerationRequest{AcademicGrade: "3", Subject: "math"}
	genWords = 300
	defer func() { genRequest = models.GenerationRequest{} }()

	require.NoError(t, runGenerate(cmd, nil))
	assert.Contains(t, out.String(), "A math Adventure")
}

func TestGenerateCmdRejectsUnknownKind(t *testing.T) {
	cmd, _ := newTestCmd(t, "http://127.0.0.1:1")
	genKind = "poem"
	defer func() { genKind = "lesson" }()
	assert.Error(t, runGenerate(cmd, nil))
}

func TestListAndDeleteCmds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/lessons":
			assert.Equal(t, "story", r.URL.Query().Get("kind"))
			_, _ = w.Write([]byte(`{"lessons":[{"id":"a"}],"total":1}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/lessons/a":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"record not found"}`))
		}
	}))
	defer srv.Close()

	cmd, out := newTestCmd(t, srv.URL)
	listKind = "story"
	defer func() { listKind = "" }()
	require.NoError(t, runList(cmd, nil))
	assert.Contains(t, out.String(), `"total": 1`)

	out.Reset()
	require.NoError(t, runDelete(cmd, []string{"a"}))
	assert.Equal(t, "deleted a\n", out.String())

	err := runDelete(cmd, []string{"b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestContinueCmdReadsFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stories/s1/continue", r.URL.Path)
		var req models.ContinuationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Once upon a time.", req.OriginalContent)
		assert.Equal(t, models.FlexInt(150), req.Length)
		assert.Equal(t, "much_harder", req.Difficulty)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.ContinuationResponse{StoryID: "s1", Content: "Then."})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "story.txt")
	require.NoError(t, os.WriteFile(path, []byte("Once upon a time."), 0o644))

	cmd, out := newTestCmd(t, srv.URL)
	contKind = "story"
	contFile = path
	contLength = 150
	contRequest = models.ContinuationRequest{Difficulty: "much_harder"}
	defer func() {
		contKind, contFile = "lesson", ""
		contRequest = models.ContinuationRequest{}
	}()

	require.NoError(t, runContinue(cmd, []string{"s1"}))
	assert.Contains(t, out.String(), `"continuation_text": "Then."`)
}

func TestGradeCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Answers map[string]int `json:"answers"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]int{"0": 1, "1": 3}, body.Answers)
		_ = json.NewEncoder(w).Encode(models.QuizResult{Correct: 1, Total: 2, Score: 50})
	}))
	defer srv.Close()

	cmd, out := newTestCmd(t, srv.URL)
	require.NoError(t, runGrade(cmd, []string{"q1", "0=1", "1=3"}))
	assert.Contains(t, out.String(), `"score": 50`)

	assert.Error(t, runGrade(cmd, []string{"q1", "zero=1"}))
}

func TestParseAnswers(t *testing.T) {
	got, err := parseAnswers([]string{"0=2", " 3 = 1 "})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 2, 3: 1}, got)

	for _, bad := range []string{"1", "-1=0", "1=x"} {
		_, err := parseAnswers([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestNarrateCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("force"))
		_, _ = w.Write([]byte(`{"audio_url":"http://minio/audio/x.mp3","cached":false}`))
	}))
	defer srv.Close()

	cmd, out := newTestCmd(t, srv.URL)
	narrateForce = true
	defer func() { narrateForce = false }()
	require.NoError(t, runNarrate(cmd, []string{"x"}))
	assert.Equal(t, "http://minio/audio/x.mp3", strings.TrimSpace(out.String()))
}
