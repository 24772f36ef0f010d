// Package store persists books, characters and parts with gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/segmentio/ksuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"kadha/pkg/schema"
)

const DefaultTotalParts = 50

var ErrNotFound = errors.New("record not found")

type Store struct {
	db *gorm.DB
}

// Open connects to Postgres for postgres:// URLs and to a SQLite file otherwise, then migrates.
func Open(dsn string) (*Store, error) {
	gormLogger := logger.New(
		log.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel}),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
	cfg := &gorm.Config{Logger: gormLogger}

	var (
		db  *gorm.DB
		err error
	)
	if isPostgres(dsn) {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
	} else {
		db, err = gorm.Open(sqlite.Open(sqliteDSN(dsn)), cfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// a single writer avoids "database is locked" under concurrent develop runs
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	if err := migrate(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&schema.Book{},
		&schema.Character{},
		&schema.Part{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func (s *Store) CreateBook(ctx context.Context, book *schema.Book) error {
	if book.ID == "" {
		book.ID = ksuid.New().String()
	}
	if book.TotalParts <= 0 {
		book.TotalParts = DefaultTotalParts
	}
	if err := s.db.WithContext(ctx).Create(book).Error; err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (s *Store) Books(ctx context.Context) ([]schema.Book, error) {
	var books []schema.Book
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (s *Store) Book(ctx context.Context, id string) (*schema.Book, error) {
	var book schema.Book
	if err := s.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "book %s", id)
	}
	return &book, nil
}

// ReplaceCharacters swaps the book's cast for characters.
func (s *Store) ReplaceCharacters(ctx context.Context, bookID string, characters []schema.Character) error {
	for i := range characters {
		characters[i].ID = 0
		characters[i].BookID = bookID
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", bookID).Delete(&schema.Character{}).Error; err != nil {
			return err
		}
		if len(characters) == 0 {
			return nil
		}
		return tx.Create(&characters).Error
	})
	if err != nil {
		return fmt.Errorf("replace characters: %w", err)
	}
	return nil
}

func (s *Store) Characters(ctx context.Context, bookID string) ([]schema.Character, error) {
	var characters []schema.Character
	if err := s.db.WithContext(ctx).Where("book_id = ?", bookID).Order("id").Find(&characters).Error; err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	return characters, nil
}

// SetupArc replaces every part of the book with n empty skeletons numbered 1..n.
func (s *Store) SetupArc(ctx context.Context, bookID string, n int) ([]schema.Part, error) {
	parts := make([]schema.Part, n)
	for i := range parts {
		parts[i] = schema.Part{BookID: bookID, PartNumber: i + 1}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", bookID).Delete(&schema.Part{}).Error; err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&parts, 100).Error; err != nil {
			return err
		}
		return tx.Model(&schema.Book{}).Where("id = ?", bookID).Update("total_parts", n).Error
	})
	if err != nil {
		return nil, fmt.Errorf("setup arc: %w", err)
	}
	return parts, nil
}

func (s *Store) Parts(ctx context.Context, bookID string) ([]schema.Part, error) {
	var parts []schema.Part
	if err := s.db.WithContext(ctx).Where("book_id = ?", bookID).Order("part_number").Find(&parts).Error; err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	return parts, nil
}

func (s *Store) Part(ctx context.Context, bookID string, partNumber int) (*schema.Part, error) {
	var part schema.Part
	err := s.db.WithContext(ctx).
		Where("book_id = ? AND part_number = ?", bookID, partNumber).
		First(&part).Error
	if err != nil {
		return nil, notFound(err, "part %d of book %s", partNumber, bookID)
	}
	return &part, nil
}

// SavePart upserts the part keyed by (book, part number), overwriting its summary and content.
func (s *Store) SavePart(ctx context.Context, part *schema.Part) error {
	return s.upsertPart(ctx, part, "summary", "content")
}

// SaveContent upserts only the part's content, leaving a concurrently edited summary alone.
func (s *Store) SaveContent(ctx context.Context, bookID string, partNumber int, content string) error {
	return s.upsertPart(ctx, &schema.Part{BookID: bookID, PartNumber: partNumber, Content: content}, "content")
}

// SaveSummary upserts only the part's summary.
func (s *Store) SaveSummary(ctx context.Context, bookID string, partNumber int, summary string) error {
	return s.upsertPart(ctx, &schema.Part{BookID: bookID, PartNumber: partNumber, Summary: summary}, "summary")
}

func (s *Store) upsertPart(ctx context.Context, part *schema.Part, columns ...string) error {
	row := schema.Part{
		BookID:      part.BookID,
		PartNumber:  part.PartNumber,
		Title:       part.Title,
		Summary:     part.Summary,
		Content:     part.Content,
		Personality: part.Personality,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "book_id"}, {Name: "part_number"}},
		DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save part %d: %w", part.PartNumber, err)
	}
	return nil
}

// PartUpdate carries the editable fields of a part; nil fields are left alone.
type PartUpdate struct {
	Title       *string `json:"title,omitempty"`
	Summary     *string `json:"summary,omitempty"`
	Content     *string `json:"content,omitempty"`
	Personality *string `json:"personality,omitempty"`
}

// UpdatePart applies u and returns the part as it was before and after the change.
// A missing part row is created.
func (s *Store) UpdatePart(ctx context.Context, bookID string, partNumber int, u PartUpdate) (before, after *schema.Part, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var part schema.Part
		res := tx.Where("book_id = ? AND part_number = ?", bookID, partNumber).
			Attrs(schema.Part{BookID: bookID, PartNumber: partNumber}).
			FirstOrCreate(&part)
		if res.Error != nil {
			return res.Error
		}
		prev := part
		before = &prev

		if u.Title != nil {
			part.Title = *u.Title
		}
		if u.Summary != nil {
			part.Summary = *u.Summary
		}
		if u.Content != nil {
			part.Content = *u.Content
		}
		if u.Personality != nil {
			part.Personality = *u.Personality
		}
		if err := tx.Save(&part).Error; err != nil {
			return err
		}
		after = &part
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("update part %d: %w", partNumber, err)
	}
	return before, after, nil
}

func (s *Store) ClearSummaries(ctx context.Context, bookID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&schema.Part{}).
		Where("book_id = ?", bookID).
		Update("summary", "")
	if res.Error != nil {
		return 0, fmt.Errorf("clear summaries: %w", res.Error)
	}
	return res.RowsAffected, nil
}
