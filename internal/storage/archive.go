package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gosimple/slug"

	"easylesson/internal/models"
)

// ObjectStore is the subset of MinioClient the archive needs.
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
	GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	DeleteFile(ctx context.Context, objectName string) error
	ObjectExists(ctx context.Context, objectName string) (bool, error)
}

// Archive stores record snapshots and narration audio in an ObjectStore.
type Archive struct {
	objects ObjectStore
}

func NewArchive(objects ObjectStore) *Archive {
	return &Archive{objects: objects}
}

func baseName(rec *models.Record) string {
	s := slug.Make(rec.Title)
	if s == "" {
		return rec.ID
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s + "-" + rec.ID
}

// RecordKey is lessons/<kind>/<slug(title)>-<id>.json.
func RecordKey(rec *models.Record) string {
	return fmt.Sprintf("lessons/%s/%s.json", rec.Kind, baseName(rec))
}

// AudioKey is audio/<slug(title)>-<id>.mp3.
func AudioKey(rec *models.Record) string {
	return fmt.Sprintf("audio/%s.mp3", baseName(rec))
}

// ArchiveRecord writes rec as JSON and returns its URL.
func (a *Archive) ArchiveRecord(ctx context.Context, rec *models.Record) (string, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode record %s: %w", rec.ID, err)
	}
	return a.objects.UploadFile(ctx, RecordKey(rec), data, "application/json")
}

// RemoveArchive deletes the JSON snapshot and any narration of rec.
func (a *Archive) RemoveArchive(ctx context.Context, rec *models.Record) error {
	if err := a.objects.DeleteFile(ctx, RecordKey(rec)); err != nil {
		return err
	}
	return a.objects.DeleteFile(ctx, AudioKey(rec))
}

// UploadAudio stores MP3 narration for rec and returns its URL.
func (a *Archive) UploadAudio(ctx context.Context, rec *models.Record, audio []byte) (string, error) {
	return a.objects.UploadFile(ctx, AudioKey(rec), audio, "audio/mpeg")
}

// AudioURL returns a URL for existing narration, or "" when none is stored.
func (a *Archive) AudioURL(ctx context.Context, rec *models.Record) (string, error) {
	ok, err := a.objects.ObjectExists(ctx, AudioKey(rec))
	if err != nil || !ok {
		return "", err
	}
	return a.objects.GetPresignedURL(ctx, AudioKey(rec), PresignExpiry)
}
