package db

import (
	"fmt"
	"log"

	"github.com/meinhoongagan/servicemarket/models"
	"gorm.io/gorm"
)

func schema() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Service{},
		&models.Booking{},
		&models.ChatMessage{},
		&models.Setting{},
	}
}

// Migrate creates or updates every table the API uses. It runs only when
// main is started with -migrate.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(schema()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("✅ Migrations applied successfully!")
	return nil
}

// MissingTables names the tables Migrate would create that do not exist yet.
func MissingTables(db *gorm.DB) ([]string, error) {
	missing := []string{}
	for _, model := range schema() {
		if db.Migrator().HasTable(model) {
			continue
		}
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, err
		}
		missing = append(missing, stmt.Schema.Table)
	}
	return missing, nil
}
