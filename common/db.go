package common

import (
	"log"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Directories used for uploaded inputs and repaired outputs
const (
	UploadsDir = "uploads"
	OutputsDir = "outputs"
)

var db *gorm.DB

// Init opens the sqlite database and stores the shared handle.
// The path comes from DATABASE_PATH, defaulting to repair.db.
func Init() *gorm.DB {
	path := os.Getenv("DATABASE_PATH")
	if path == "" {
		path = "repair.db"
	}

	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Fatal("db setup error: ", err)
	}
	db = conn
	return db
}

// TestDBInit opens an in-memory database for tests
func TestDBInit() *gorm.DB {
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		log.Fatal("test db setup error: ", err)
	}
	db = conn
	return db
}

// GetDB returns the shared database handle
func GetDB() *gorm.DB {
	return db
}
