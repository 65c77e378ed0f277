package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SlotRepository defines decoupled operations for session slot persistence.
type SlotRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	All(ctx context.Context) (map[string]string, error)
}

// gormSlotRepo is a GORM-backed implementation of SlotRepository.
// Use constructor NewSlotRepository to obtain an instance.
type gormSlotRepo struct{ db *gorm.DB }

// NewSlotRepository creates a SlotRepository. Accepts *gorm.DB to avoid global access.
func NewSlotRepository(db *gorm.DB) SlotRepository { return &gormSlotRepo{db: db} }

func (r *gormSlotRepo) Get(ctx context.Context, key string) (string, error) {
	if r.db == nil {
		return "", fmt.Errorf("repository not initialized")
	}
	var slot Slot
	err := r.db.WithContext(ctx).First(&slot, "name = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return slot.Value, nil
}

func (r *gormSlotRepo) Set(ctx context.Context, key, value string) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	slot := Slot{Name: key, Value: value, UpdatedAt: time.Now()}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&slot).Error; err != nil {
		log.Error().Err(err).Str("slot", key).Msg("Failed to write slot")
		return err
	}
	return nil
}

func (r *gormSlotRepo) Delete(ctx context.Context, keys ...string) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("name IN ?", keys).Delete(&Slot{}).Error; err != nil {
		log.Error().Err(err).Strs("slots", keys).Msg("Failed to delete slots")
		return err
	}
	return nil
}

func (r *gormSlotRepo) All(ctx context.Context) (map[string]string, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	var slots []Slot
	if err := r.db.WithContext(ctx).Find(&slots).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(slots))
	for _, s := range slots {
		out[s.Name] = s.Value
	}
	return out, nil
}
