package mirror

import (
	"context"
	"errors"
	"time"

	"feed-client/internal/shared/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Entry struct {
	Key       string `gorm:"primaryKey;size:190"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "mirror_entries" }

type GormBackend struct {
	db     *gorm.DB
	prefix string
}

func NewGormBackend(s *db.Store, prefix string) *GormBackend {
	return &GormBackend{db: s.Base, prefix: prefix}
}

func (g *GormBackend) Migrate() error { return g.db.AutoMigrate(&Entry{}) }

func (g *GormBackend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var e Entry
	err := g.db.WithContext(ctx).First(&e, "key = ?", g.prefix+key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(e.Value), true, nil
}

func (g *GormBackend) Save(ctx context.Context, key string, val []byte) error {
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&Entry{Key: g.prefix + key, Value: string(val), UpdatedAt: time.Now()}).Error
}
