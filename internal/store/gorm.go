package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"easylesson/config"
	"easylesson/internal/logger"
	"easylesson/internal/models"
)

// lessonRow is the lessons table. Both stories and lessons are stored here.
type lessonRow struct {
	ID                 string                  `gorm:"primaryKey;type:varchar(64)"`
	Kind               string                  `gorm:"type:varchar(16);index;not null"`
	Title              string                  `gorm:"type:text;not null"`
	Content            string                  `gorm:"type:text"`
	Summary            string                  `gorm:"type:text"`
	Subject            string                  `gorm:"type:varchar(128)"`
	Topic              string                  `gorm:"type:text"`
	AcademicGrade      string                  `gorm:"type:varchar(32)"`
	TeacherStyle       string                  `gorm:"type:varchar(32)"`
	WordCount          int                     `gorm:"not null;default:0"`
	Language           string                  `gorm:"type:varchar(64)"`
	Vocabulary         []models.VocabularyItem `gorm:"type:json;serializer:json"`
	Quiz               []models.QuizItem       `gorm:"type:json;serializer:json"`
	LearningObjectives []string                `gorm:"type:json;serializer:json"`
	CreatedAt          time.Time               `gorm:"index;not null"`
	UpdatedAt          time.Time
}

func (lessonRow) TableName() string { return "lessons" }

func toRow(rec *models.Record) *lessonRow {
	return &lessonRow{
		ID:                 rec.ID,
		Kind:               string(rec.Kind),
		Title:              rec.Title,
		Content:            rec.Content,
		Summary:            rec.Summary,
		Subject:            rec.Subject,
		Topic:              rec.Topic,
		AcademicGrade:      rec.AcademicGrade,
		TeacherStyle:       rec.TeacherStyle,
		WordCount:          rec.WordCount,
		Language:           rec.Language,
		Vocabulary:         rec.Vocabulary,
		Quiz:               rec.Quiz,
		LearningObjectives: rec.LearningObjectives,
		CreatedAt:          rec.CreatedAt,
	}
}

func (r *lessonRow) toRecord() *models.Record {
	rec := &models.Record{
		ID:                 r.ID,
		Kind:               models.Kind(r.Kind),
		Title:              r.Title,
		Content:            r.Content,
		Summary:            r.Summary,
		Subject:            r.Subject,
		Topic:              r.Topic,
		AcademicGrade:      r.AcademicGrade,
		TeacherStyle:       r.TeacherStyle,
		WordCount:          r.WordCount,
		Language:           r.Language,
		CreatedAt:          r.CreatedAt.UTC(),
		Vocabulary:         r.Vocabulary,
		Quiz:               r.Quiz,
		LearningObjectives: r.LearningObjectives,
	}
	// empty JSON arrays read back as absent sections
	if len(rec.Vocabulary) == 0 {
		rec.Vocabulary = nil
	}
	if len(rec.Quiz) == 0 {
		rec.Quiz = nil
	}
	if len(rec.LearningObjectives) == 0 {
		rec.LearningObjectives = nil
	}
	return rec
}

// GormStore persists records with gorm (Supabase Postgres or SQLite).
type GormStore struct {
	db   *gorm.DB
	name string
	log  *logger.Logger
}

// OpenPostgres connects using DATABASE_URL, or the discrete DB_* settings.
func OpenPostgres(cfg *config.DatabaseConfig, log *logger.Logger) (*GormStore, error) {
	dsn := cfg.URL
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode,
		)
	}
	db, err := gorm.Open(postgres.Open(dsn), gormConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	return newGormStore(db, "postgres", log)
}

// OpenSQLite opens (or creates) the file at cfg.SQLitePath.
func OpenSQLite(cfg *config.DatabaseConfig, log *logger.Logger) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), gormConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	// single writer
	sqlDB.SetMaxOpenConns(1)
	return newGormStore(db, "sqlite", log)
}

func gormConfig(cfg *config.DatabaseConfig) *gorm.Config {
	level := gormlogger.Silent
	if cfg.LogQueries {
		level = gormlogger.Info
	}
	return &gorm.Config{Logger: gormlogger.Default.LogMode(level)}
}

func newGormStore(db *gorm.DB, name string, log *logger.Logger) (*GormStore, error) {
	if err := db.AutoMigrate(&lessonRow{}); err != nil {
		return nil, fmt.Errorf("migrate lessons: %w", err)
	}
	log.Info("database ready", "driver", name)
	return &GormStore{db: db, name: name, log: log.With("store", name)}, nil
}

func (s *GormStore) Name() string { return s.name }

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save inserts or replaces the record.
func (s *GormStore) Save(ctx context.Context, rec *models.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.ID == "" {
		return fmt.Errorf("%w: record id is required", models.ErrInvalidRequest)
	}
	if err := s.db.WithContext(ctx).Save(toRow(rec)).Error; err != nil {
		return fmt.Errorf("save %s: %w", rec.ID, err)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*models.Record, error) {
	var row lessonRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	return row.toRecord(), nil
}

func (s *GormStore) List(ctx context.Context, opts ListOptions) ([]*models.Record, int64, error) {
	opts = opts.Normalize()

	q := s.db.WithContext(ctx).Model(&lessonRow{})
	if opts.Kind != "" {
		q = q.Where("kind = ?", string(opts.Kind))
	}
	// reused for Count and Find
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}

	var rows []lessonRow
	if err := q.Order("created_at DESC").Order("id DESC").
		Limit(opts.Limit).Offset(opts.Offset).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}
	out := make([]*models.Record, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toRecord())
	}
	return out, total, nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&lessonRow{})
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Record, error) {
	var rows []lessonRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("created_at < ?", cutoff).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		ids := make([]string, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
		return tx.Where("id IN ?", ids).Delete(&lessonRow{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("delete records before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	out := make([]*models.Record, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toRecord())
	}
	s.log.Debug("deleted expired records", "count", len(out))
	return out, nil
}
