package main

import (
	"log"
	"os"
	"time"

	"csv-repair/common"
	"csv-repair/repairs"
	"csv-repair/watch"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) {
	common.AutoMigrateJobs(db)
}

func main() {
	// Initialize database
	db := common.Init()
	Migrate(db)

	// Ensure database connection is closed on exit
	sqlDB, err := db.DB()
	if err != nil {
		log.Println("Failed to get sql.DB:", err)
	} else {
		defer sqlDB.Close()
	}

	// Setup Gin router
	r := gin.Default()
	r.RedirectTrailingSlash = false
	r.Use(common.MetricsMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	if secret := os.Getenv("AUTH_SECRET"); secret != "" {
		v1.Use(common.AuthMiddleware(secret))
	}
	repairs.RegisterRoutes(v1.Group("/repairs"))

	// Optional drop-directory mode: files placed there are repaired
	// automatically with the default configuration
	if dir := os.Getenv("WATCH_DIR"); dir != "" {
		watcher, err := watch.New(dir, 2*time.Second, func(path string) {
			go repairs.SubmitFile(path)
		})
		if err != nil {
			log.Fatal("Failed to watch drop directory: ", err)
		}
		watcher.Start()
		defer watcher.Stop()
		log.Printf("Watching %s for files to repair...", dir)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
