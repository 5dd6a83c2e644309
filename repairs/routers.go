package repairs

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"csv-repair/common"
	"csv-repair/engine"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateRepairRequest represents the JSON request body for URL-based repairs
type CreateRepairRequest struct {
	FileURL         string `json:"file_url" binding:"required"`
	Delimiter       string `json:"delimiter" binding:"omitempty,oneof=comma semicolon tab pipe"`
	HeaderMode      string `json:"header_mode" binding:"omitempty,oneof=has_headers no_headers"`
	ExpectedColumns int    `json:"expected_columns"`
}

// CreateRepairResponse represents the response for repair job creation
type CreateRepairResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// GetRepairResponse represents the response for repair job status
type GetRepairResponse struct {
	JobID           string   `json:"job_id"`
	Status          string   `json:"status"`
	Delimiter       string   `json:"delimiter"`
	HeaderMode      string   `json:"header_mode"`
	ExpectedColumns int      `json:"expected_columns,omitempty"`
	TotalRows       int      `json:"total_rows"`
	FixedRows       int      `json:"fixed_rows"`
	RemovedRows     int      `json:"removed_rows"`
	OutputRows      int      `json:"output_rows"`
	SuccessRate     float64  `json:"success_rate"`
	DurationMs      int      `json:"duration_ms"`
	Errors          []string `json:"errors,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	CompletedAt     *string  `json:"completed_at,omitempty"`
}

// RegisterRoutes wires the repair endpoints onto the given group
func RegisterRoutes(router *gin.RouterGroup) {
	router.POST("", CreateRepair)
	router.GET("/:job_id", GetRepair)
	router.GET("/:job_id/download", DownloadRepair)
}

// CreateRepair godoc
// @Summary Create a new repair job
// @Description Creates a job that reconstructs a delimited file whose records were split by unescaped line breaks
// @Tags repairs
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Unique key to prevent duplicate repairs"
// @Param file formData file false "Delimited file to repair"
// @Param delimiter formData string false "Field delimiter (comma, semicolon, tab, pipe)"
// @Param header_mode formData string false "Header mode (has_headers, no_headers)"
// @Param expected_columns formData int false "Expected column count (required with no_headers)"
// @Success 202 {object} CreateRepairResponse "Repair job created"
// @Success 200 {object} CreateRepairResponse "Existing job returned (idempotency)"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /repairs [post]
func CreateRepair(c *gin.Context) {
	db := common.GetDB()

	idempotencyKey := c.GetHeader("Idempotency-Key")
	if idempotencyKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Idempotency-Key header is required"})
		return
	}

	// Return the existing job when the key was seen before
	var existingJob common.RepairJob
	if err := db.Where("idempotency_key = ?", idempotencyKey).First(&existingJob).Error; err == nil {
		c.JSON(http.StatusOK, CreateRepairResponse{
			JobID:     existingJob.ID,
			Status:    existingJob.Status,
			CreatedAt: existingJob.CreatedAt.Format(time.RFC3339),
		})
		return
	}

	var filePath string
	var cfg repairConfig

	contentType := c.GetHeader("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
			return
		}
		defer file.Close()

		parsed, err := parseRepairConfig(
			c.PostForm("delimiter"),
			c.PostForm("header_mode"),
			c.PostForm("expected_columns"),
		)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cfg = parsed

		filePath, err = saveUpload(file, header.Filename)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
			return
		}

	} else {
		var req CreateRepairRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		columns := ""
		if req.ExpectedColumns != 0 {
			columns = strconv.Itoa(req.ExpectedColumns)
		}
		parsed, err := parseRepairConfig(req.Delimiter, req.HeaderMode, columns)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cfg = parsed

		os.MkdirAll(common.UploadsDir, 0755)
		fileName := fmt.Sprintf("%s_%s.csv", time.Now().Format("20060102_150405"), uuid.New().String()[:8])
		filePath = filepath.Join(common.UploadsDir, fileName)

		if err := downloadFile(req.FileURL, filePath); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to download file: %v", err)})
			return
		}
	}

	job := common.RepairJob{
		ID:              uuid.New().String(),
		IdempotencyKey:  idempotencyKey,
		Status:          common.JobStatusPending,
		InputPath:       filePath,
		Delimiter:       cfg.delimiter.String(),
		HeaderMode:      cfg.headerMode.String(),
		ExpectedColumns: cfg.expectedColumns,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	if err := db.Create(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create repair job"})
		return
	}

	// Queue job for background processing
	go ProcessRepairJob(job.ID)

	c.JSON(http.StatusAccepted, CreateRepairResponse{
		JobID:     job.ID,
		Status:    job.Status,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
	})
}

// GetRepair godoc
// @Summary Get repair job status
// @Description Retrieves the status, statistics and outcome of a repair job
// @Tags repairs
// @Produce json
// @Param job_id path string true "Repair Job ID"
// @Success 200 {object} GetRepairResponse "Repair job details"
// @Failure 404 {object} map[string]string "Job not found"
// @Router /repairs/{job_id} [get]
func GetRepair(c *gin.Context) {
	db := common.GetDB()
	jobID := c.Param("job_id")

	var job common.RepairJob
	if err := db.Where("id = ?", jobID).First(&job).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Repair job not found"})
		return
	}

	// Set rows processed for metrics
	c.Set("rows_processed", job.TotalRows)

	response := GetRepairResponse{
		JobID:           job.ID,
		Status:          job.Status,
		Delimiter:       job.Delimiter,
		HeaderMode:      job.HeaderMode,
		ExpectedColumns: job.ExpectedColumns,
		TotalRows:       job.TotalRows,
		FixedRows:       job.FixedRows,
		RemovedRows:     job.RemovedRows,
		OutputRows:      job.OutputRows,
		SuccessRate:     job.SuccessRate,
		DurationMs:      job.DurationMs,
		Errors:          decodeJobErrors(job.Errors),
		CreatedAt:       job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       job.UpdatedAt.Format(time.RFC3339),
	}

	if job.CompletedAt != nil {
		completedStr := job.CompletedAt.Format(time.RFC3339)
		response.CompletedAt = &completedStr
	}

	c.JSON(http.StatusOK, response)
}

// DownloadRepair godoc
// @Summary Download the repaired file
// @Description Streams the repaired output of a completed job
// @Tags repairs
// @Produce text/csv
// @Param job_id path string true "Repair Job ID"
// @Success 200 {file} file "Repaired file"
// @Failure 404 {object} map[string]string "Job not found"
// @Failure 409 {object} map[string]string "Job not completed"
// @Router /repairs/{job_id}/download [get]
func DownloadRepair(c *gin.Context) {
	db := common.GetDB()
	jobID := c.Param("job_id")

	var job common.RepairJob
	if err := db.Where("id = ?", jobID).First(&job).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Repair job not found"})
		return
	}

	if job.Status != common.JobStatusCompleted || job.OutputPath == "" {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Repair job is %s", job.Status)})
		return
	}

	c.Set("rows_processed", job.OutputRows)
	c.FileAttachment(job.OutputPath, filepath.Base(job.OutputPath))
}

// saveUpload stores an uploaded file under the uploads directory
func saveUpload(file io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(common.UploadsDir, 0755); err != nil {
		return "", err
	}

	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = ".csv"
	}
	fileName := fmt.Sprintf("%s_%s%s", time.Now().Format("20060102_150405"), uuid.New().String()[:8], ext)
	filePath := filepath.Join(common.UploadsDir, fileName)

	out, err := os.Create(filePath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		return "", err
	}
	return filePath, nil
}

// downloadFile downloads a file from URL
func downloadFile(url, filePath string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	out, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

// repairConfig is a resolved, validated repair configuration
type repairConfig struct {
	delimiter       engine.Delimiter
	headerMode      engine.HeaderMode
	expectedColumns int
}

// parseRepairConfig validates the configuration fields at the API boundary.
// Empty values fall back to the defaults (comma, has_headers).
func parseRepairConfig(delimiter, headerMode, expectedColumns string) (repairConfig, error) {
	var cfg repairConfig

	d, err := engine.ParseDelimiter(delimiter)
	if err != nil {
		return cfg, err
	}
	cfg.delimiter = d

	m, err := engine.ParseHeaderMode(headerMode)
	if err != nil {
		return cfg, err
	}
	cfg.headerMode = m

	if m == engine.NoHeaders {
		columns, err := strconv.Atoi(expectedColumns)
		if err != nil || columns <= 0 {
			return cfg, fmt.Errorf("expected_columns must be a positive integer in no_headers mode, got %q", expectedColumns)
		}
		cfg.expectedColumns = columns
	}

	return cfg, nil
}
