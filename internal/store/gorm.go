package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateEntry is one persisted snapshot row.
type StateEntry struct {
	Key       string    `gorm:"column:state_key;primaryKey;size:255"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (StateEntry) TableName() string { return "state_entries" }

// GormKV stores snapshots in the state_entries table.
type GormKV struct {
	db *gorm.DB
}

func NewGormKV(db *gorm.DB) *GormKV {
	return &GormKV{db: db}
}

// Migrate creates the state_entries table if needed.
func (g *GormKV) Migrate() error {
	return g.db.AutoMigrate(&StateEntry{})
}

func (g *GormKV) Get(ctx context.Context, key string) ([]byte, error) {
	var e StateEntry
	err := g.db.WithContext(ctx).Where("state_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(e.Value), nil
}

func (g *GormKV) Set(ctx context.Context, key string, value []byte) error {
	e := StateEntry{Key: key, Value: string(value), UpdatedAt: time.Now()}
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "state_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&e).Error
}

func (g *GormKV) Delete(ctx context.Context, key string) error {
	return g.db.WithContext(ctx).Where("state_key = ?", key).Delete(&StateEntry{}).Error
}

// PurgeOlderThan deletes snapshots not written since cutoff and returns how
// many rows were removed.
func (g *GormKV) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := g.db.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&StateEntry{})
	return res.RowsAffected, res.Error
}
