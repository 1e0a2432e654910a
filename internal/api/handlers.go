package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"easylesson/internal/models"
	"easylesson/internal/store"
	"easylesson/internal/tts"
)

// healthHandler reports liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// statusHandler reports which backends are wired.
func (s *Server) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"version":        Version,
		"llm_configured": s.deps.LLMConfigured,
		"store":          s.deps.Store.Name(),
		"archive":        s.deps.Archive != nil,
		"narration":      s.deps.Archive != nil && s.deps.TTS != nil,
	})
}

func bindJSON(c *gin.Context, v any) error {
	// an empty body leaves the defaults in place
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", models.ErrInvalidRequest, err)
	}
	return nil
}

// generateHandler creates a story or lesson and stores it.
func (s *Server) generateHandler(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.GenerationRequest
		if err := bindJSON(c, &req); err != nil {
			s.respondError(c, err)
			return
		}

		rec, err := s.deps.Generator.Generate(c.Request.Context(), kind, &req)
		if err != nil {
			s.respondError(c, err)
			return
		}

		s.persist(c.Request.Context(), rec)
		c.JSON(http.StatusCreated, rec)
	}
}

// persist saves and archives rec. Failures are logged and never fail the request.
func (s *Server) persist(ctx context.Context, rec *models.Record) {
	if err := s.deps.Store.Save(ctx, rec); err != nil {
		s.log.Error("failed to save record", "id", rec.ID, "kind", rec.Kind, "error", err)
		return
	}
	if s.deps.Archive != nil {
		if _, err := s.deps.Archive.ArchiveRecord(ctx, rec); err != nil {
			s.log.Warn("failed to archive record", "id", rec.ID, "error", err)
		}
	}
}

// continueStoryHandler continues a story from the content in the request body.
// A stored story is used when the body has none.
func (s *Server) continueStoryHandler(c *gin.Context) {
	id := c.Param("id")
	var req models.ContinuationRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	if req.Original() == "" {
		if rec, err := s.deps.Store.Get(c.Request.Context(), id); err == nil {
			req.OriginalContent = rec.Content
		}
	}

	resp, err := s.deps.Generator.Continue(c.Request.Context(), models.KindStory, id, &req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// continueLessonHandler continues a stored lesson and saves the merged result.
func (s *Server) continueLessonHandler(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	lesson, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	var req models.ContinuationRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	if req.Original() == "" {
		req.OriginalContent = lesson.Content
	}

	cont, err := s.deps.Generator.Continue(ctx, lesson.Kind, id, &req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	merged := models.Merge(*lesson, *cont)
	s.persist(ctx, &merged)

	c.JSON(http.StatusCreated, gin.H{
		"continuation": cont,
		"lesson":       merged,
	})
}

// listHandler pages through stored records, newest first.
func (s *Server) listHandler(c *gin.Context) {
	opts := store.ListOptions{Kind: models.Kind(c.Query("kind"))}
	if opts.Kind != "" && !opts.Kind.Valid() {
		s.respondError(c, fmt.Errorf("%w: unknown kind %q", models.ErrInvalidRequest, opts.Kind))
		return
	}
	var err error
	if opts.Limit, err = queryInt(c, "limit"); err != nil {
		s.respondError(c, err)
		return
	}
	if opts.Offset, err = queryInt(c, "offset"); err != nil {
		s.respondError(c, err)
		return
	}

	records, total, err := s.deps.Store.List(c.Request.Context(), opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lessons": records,
		"total":   total,
	})
}

func queryInt(c *gin.Context, key string) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", models.ErrInvalidRequest, key)
	}
	return n, nil
}

func (s *Server) getHandler(c *gin.Context) {
	rec, err := s.deps.Store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// deleteHandler removes a record and its archive.
func (s *Server) deleteHandler(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	rec, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.deps.Store.Delete(ctx, id); err != nil {
		s.respondError(c, err)
		return
	}
	if s.deps.Archive != nil {
		if err := s.deps.Archive.RemoveArchive(ctx, rec); err != nil {
			s.log.Warn("failed to remove archive", "id", id, "error", err)
		}
	}
	c.Status(http.StatusNoContent)
}

type gradeRequest struct {
	Answers map[string]int `json:"answers"`
}

// gradeHandler scores submitted answers against a stored quiz.
func (s *Server) gradeHandler(c *gin.Context) {
	rec, err := s.deps.Store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	var req gradeRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	answers := make(map[int]int, len(req.Answers))
	for k, v := range req.Answers {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || idx >= len(rec.Quiz) {
			s.respondError(c, fmt.Errorf("%w: no quiz question %q", models.ErrInvalidRequest, k))
			return
		}
		answers[idx] = v
	}

	c.JSON(http.StatusOK, models.Grade(rec.Quiz, answers))
}

// narrationHandler returns a URL to MP3 narration of a record, synthesizing it
// on first use or when force=true.
func (s *Server) narrationHandler(c *gin.Context) {
	if s.deps.Archive == nil || s.deps.TTS == nil {
		s.respondError(c, errNarrationUnavailable)
		return
	}
	ctx := c.Request.Context()

	rec, err := s.deps.Store.Get(ctx, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	if c.Query("force") != "true" {
		if url, err := s.deps.Archive.AudioURL(ctx, rec); err != nil {
			s.log.Warn("audio lookup failed", "id", rec.ID, "error", err)
		} else if url != "" {
			c.JSON(http.StatusOK, gin.H{"audio_url": url, "cached": true})
			return
		}
	}

	audio, err := s.deps.TTS.SynthesizeSpeech(ctx, tts.NarrationText(rec), tts.VoiceForLanguage(rec.Language))
	if err != nil {
		s.respondError(c, fmt.Errorf("narrate %s: %w", rec.ID, err))
		return
	}
	url, err := s.deps.Archive.UploadAudio(ctx, rec, audio)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audio_url": url, "cached": false})
}
