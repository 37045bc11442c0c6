package db

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"go-avatar/internal/config"
	"go-avatar/internal/memory"
	"go-avatar/internal/state"
	"go-avatar/internal/user"
)

var DB *gorm.DB

func Init(cfg *config.Config) error {
	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{})
	if err != nil {
		return err
	}

	// Auto-migrate user model
	if err := db.AutoMigrate(&user.User{}); err != nil {
		return err
	}

	// Auto-migrate the state snapshot row and memory records
	if err := db.AutoMigrate(&state.StateRecord{}, &memory.Record{}); err != nil {
		return err
	}

	DB = db
	log.Printf("Database connected and migrated")
	return nil
}
