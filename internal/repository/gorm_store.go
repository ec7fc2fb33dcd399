package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/Lixing-Zhang/medicine-catalog/internal/models"
)

const deleteBatchSize = 100

// GormStore implements CatalogStore on a relational database through gorm.
// Default order is the primary key.
type GormStore struct {
	db  *gorm.DB
	log *slog.Logger
}

// OpenGormStore connects to postgres or sqlite and migrates the medicines table.
func OpenGormStore(driver, dsn string, log *slog.Logger) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	store := NewGormStore(db, log)
	if err := store.AutoMigrate(); err != nil {
		return nil, err
	}
	return store, nil
}

// NewGormStore wraps an open gorm handle.
func NewGormStore(db *gorm.DB, log *slog.Logger) *GormStore {
	return &GormStore{
		db:  db,
		log: log.With("store", "gorm"),
	}
}

// AutoMigrate creates or updates the medicines table.
func (s *GormStore) AutoMigrate() error {
	s.log.Info("auto migrating medicines table")
	if err := s.db.AutoMigrate(&models.Medicine{}); err != nil {
		return fmt.Errorf("failed to migrate medicines table: %w", err)
	}
	return nil
}

func (s *GormStore) Create(ctx context.Context, m *models.Medicine) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return writeErr("create", err)
	}
	return nil
}

func (s *GormStore) GetByMedicineID(ctx context.Context, medicineID string) (*models.Medicine, error) {
	var m models.Medicine
	err := s.db.WithContext(ctx).Where("medicineid = ?", medicineID).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMedicineNotFound
	}
	if err != nil {
		return nil, readErr("get", err)
	}
	return &m, nil
}

func (s *GormStore) ListPage(ctx context.Context, page, pageSize int) ([]models.Medicine, error) {
	if err := validatePage(page, pageSize); err != nil {
		return nil, readErr("list", err)
	}

	out := make([]models.Medicine, 0, pageSize)
	err := s.db.WithContext(ctx).
		Order("id").
		Offset(offset(page, pageSize)).
		Limit(pageSize).
		Find(&out).Error
	if err != nil {
		return nil, readErr("list", err)
	}
	return out, nil
}

func (s *GormStore) SearchByName(ctx context.Context, term string) ([]models.Medicine, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"

	out := make([]models.Medicine, 0)
	err := s.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, readErr("search", err)
	}
	return out, nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Medicine{})
	if res.Error != nil {
		return writeErr("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMedicineNotFound
	}
	return nil
}

// DeleteAll scans ids in batches and deletes each row with its own statement.
func (s *GormStore) DeleteAll(ctx context.Context) (int, error) {
	deleted := 0
	for {
		var ids []string
		err := s.db.WithContext(ctx).
			Model(&models.Medicine{}).
			Order("id").
			Limit(deleteBatchSize).
			Pluck("id", &ids).Error
		if err != nil {
			return deleted, readErr("delete all scan", err)
		}
		if len(ids) == 0 {
			s.log.Debug("catalog emptied", "deleted", deleted)
			return deleted, nil
		}

		for _, id := range ids {
			res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Medicine{})
			if res.Error != nil {
				return deleted, writeErr("delete all", res.Error)
			}
			deleted += int(res.RowsAffected)
		}
	}
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// escapeLike escapes LIKE wildcards so the term matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
