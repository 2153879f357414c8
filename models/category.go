package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Category is a node of the service taxonomy. Services refer to it by name,
// not by ID, so deleting a category leaves those names behind.
type Category struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	Name          string     `json:"name" gorm:"uniqueIndex;not null"`
	IsActive      bool       `json:"isActive" gorm:"default:true"`
	SubCategories StringList `json:"subCategories"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// CategoryUpdate lists the fields an admin may change; nil means unchanged.
type CategoryUpdate struct {
	Name     *string
	IsActive *bool
}

func GetCategory(tx *gorm.DB, id uint) (*Category, error) {
	var category Category
	if err := tx.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Category")
		}
		return nil, err
	}
	return &category, nil
}

// categoryNameTaken compares names case-insensitively, ignoring excludeID.
func categoryNameTaken(tx *gorm.DB, name string, excludeID uint) (bool, error) {
	var count int64
	q := tx.Model(&Category{}).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func CreateCategory(tx *gorm.DB, name string, subCategories []string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(ErrValidation, "Category name is required")
	}
	taken, err := categoryNameTaken(tx, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, newError(ErrConflict, "Category %q already exists", name)
	}

	category := Category{Name: name, IsActive: true, SubCategories: CleanList(subCategories)}
	if err := tx.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func UpdateCategory(tx *gorm.DB, id uint, in CategoryUpdate) (*Category, error) {
	category, err := GetCategory(tx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, newError(ErrValidation, "Category name is required")
		}
		taken, err := categoryNameTaken(tx, name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, newError(ErrConflict, "Category %q already exists", name)
		}
		updates["name"] = name
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) == 0 {
		return category, nil
	}

	if err := tx.Model(category).Updates(updates).Error; err != nil {
		return nil, err
	}
	return GetCategory(tx, id)
}

// SetSubCategories replaces the whole sub-category list.
func SetSubCategories(tx *gorm.DB, id uint, subCategories []string) (*Category, error) {
	category, err := GetCategory(tx, id)
	if err != nil {
		return nil, err
	}
	category.SubCategories = CleanList(subCategories)
	if err := tx.Model(category).Update("sub_categories", category.SubCategories).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func DeleteCategory(tx *gorm.DB, id uint) error {
	res := tx.Delete(&Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("Category")
	}
	return nil
}

// ListActiveCategories returns the categories shown to clients, A to Z.
func ListActiveCategories(tx *gorm.DB) ([]Category, error) {
	categories := []Category{}
	err := tx.Where("is_active = ?", true).Order("LOWER(name) ASC").Find(&categories).Error
	return categories, err
}

// ListAllCategories includes inactive categories for the back office.
func ListAllCategories(tx *gorm.DB) ([]Category, error) {
	categories := []Category{}
	err := tx.Order("LOWER(name) ASC").Find(&categories).Error
	return categories, err
}
