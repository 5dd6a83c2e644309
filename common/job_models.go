package common

import (
	"time"

	"gorm.io/gorm"
)

// Job lifecycle states
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// RepairJob tracks one repair run over an uploaded delimited file
type RepairJob struct {
	ID             string `gorm:"primaryKey;type:text" json:"id"`
	IdempotencyKey string `gorm:"uniqueIndex;not null" json:"idempotency_key"`
	Status         string `gorm:"not null" json:"status"` // pending, processing, completed, failed
	InputPath      string `json:"input_path,omitempty"`
	OutputPath     string `json:"output_path,omitempty"`

	// Repair configuration, stored in API form
	Delimiter       string `gorm:"not null" json:"delimiter"`   // comma, semicolon, tab, pipe
	HeaderMode      string `gorm:"not null" json:"header_mode"` // has_headers, no_headers
	ExpectedColumns int    `gorm:"default:0" json:"expected_columns,omitempty"`

	// Outcome of the run
	TotalRows   int     `gorm:"default:0" json:"total_rows"`
	FixedRows   int     `gorm:"default:0" json:"fixed_rows"`
	RemovedRows int     `gorm:"default:0" json:"removed_rows"`
	OutputRows  int     `gorm:"default:0" json:"output_rows"`
	SuccessRate float64 `gorm:"default:0" json:"success_rate"`
	DurationMs  int     `gorm:"default:0" json:"duration_ms"`

	Errors      string     `gorm:"type:text" json:"errors,omitempty"` // JSON array of errors
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ApiMetric tracks API performance metrics
type ApiMetric struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Endpoint      string    `gorm:"not null" json:"endpoint"`
	Method        string    `gorm:"not null" json:"method"`
	StatusCode    int       `gorm:"not null" json:"status_code"`
	DurationMs    int       `gorm:"not null" json:"duration_ms"`
	RowsProcessed int       `gorm:"default:0" json:"rows_processed"`
	Errors        string    `gorm:"type:text" json:"errors,omitempty"`
	Timestamp     time.Time `gorm:"not null" json:"timestamp"`
}

func (RepairJob) TableName() string { return "repair_jobs" }
func (ApiMetric) TableName() string { return "api_metrics" }

// AutoMigrateJobs creates the job tracking tables
func AutoMigrateJobs(db *gorm.DB) {
	db.AutoMigrate(&RepairJob{}, &ApiMetric{})
}
