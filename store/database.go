package store

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the sqlite database at path and migrates the schema.
// Use ":memory:" for an ephemeral database in tests.
func Connect(path string) (*gorm.DB, error) {
	log.Printf("Opening sqlite database: %s", path)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&bookingModel{}, &downloadModel{}, &couponModel{}); err != nil {
		return nil, err
	}
	return db, nil
}
