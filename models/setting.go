package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting is one key/value pair of the back-office settings screen.
type Setting struct {
	Key       string    `json:"key" gorm:"primaryKey;column:setting_key;size:64"`
	Value     string    `json:"value" gorm:"type:text"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GetSettings returns all settings as a map.
func GetSettings(tx *gorm.DB) (map[string]string, error) {
	var rows []Setting
	if err := tx.Order("setting_key ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// UpsertSettings writes every pair, replacing existing values.
func UpsertSettings(tx *gorm.DB, values map[string]string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, newError(ErrValidation, "No settings given")
	}
	now := time.Now().UTC()
	rows := make([]Setting, 0, len(values))
	for k, v := range values {
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, newError(ErrValidation, "Setting key is required")
		}
		if len(k) > 64 {
			return nil, newError(ErrValidation, "Setting key %q is too long", k)
		}
		rows = append(rows, Setting{Key: k, Value: v, UpdatedAt: now})
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return nil, err
	}
	return GetSettings(tx)
}
