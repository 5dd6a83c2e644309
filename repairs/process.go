package repairs

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"csv-repair/common"
	"csv-repair/engine"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ProcessRepairJob runs one repair job in the background: it reads the
// input file, reconstructs its logical rows, and writes the repaired output.
// No output file is left behind when the run fails.
func ProcessRepairJob(jobID string) {
	db := common.GetDB()

	var job common.RepairJob
	if err := db.Where("id = ?", jobID).First(&job).Error; err != nil {
		return
	}

	job.Status = common.JobStatusProcessing
	job.UpdatedAt = time.Now()
	db.Save(&job)

	start := time.Now()
	stats, outputRows, err := runRepair(&job)

	now := time.Now()
	job.DurationMs = int(time.Since(start).Milliseconds())
	job.TotalRows = stats.TotalRows
	job.FixedRows = stats.FixedRows
	job.RemovedRows = stats.RemovedRows
	job.OutputRows = outputRows
	job.SuccessRate = stats.SuccessRate()
	job.CompletedAt = &now
	job.UpdatedAt = now

	if err != nil {
		job.Status = common.JobStatusFailed
		job.Errors = encodeJobErrors([]string{err.Error()})
		log.Printf("repair job %s failed: %v", job.ID, err)
	} else {
		job.Status = common.JobStatusCompleted
	}

	db.Save(&job)
}

// runRepair does the reconstruction and atomic output write for a job,
// filling in job.OutputPath on success.
func runRepair(job *common.RepairJob) (engine.Stats, int, error) {
	opts, err := jobOptions(job)
	if err != nil {
		return engine.Stats{}, 0, err
	}

	input, err := os.Open(job.InputPath)
	if err != nil {
		return engine.Stats{}, 0, fmt.Errorf("open input file: %w", err)
	}
	defer input.Close()

	rows, stats, err := engine.ReconstructRecords(input, opts)
	if err != nil {
		return stats, 0, err
	}

	outputPath, err := writeOutput(job, rows, opts.Delimiter)
	if err != nil {
		return stats, 0, err
	}

	job.OutputPath = outputPath
	return stats, len(rows), nil
}

// writeOutput serializes the repaired rows into the outputs directory,
// going through a temp file so a write failure leaves no partial output.
func writeOutput(job *common.RepairJob, rows [][]string, delimiter engine.Delimiter) (string, error) {
	if err := os.MkdirAll(common.OutputsDir, 0755); err != nil {
		return "", fmt.Errorf("create outputs dir: %w", err)
	}

	outputPath := filepath.Join(common.OutputsDir, outputFileName(job.InputPath))

	tmp, err := os.CreateTemp(common.OutputsDir, "repair-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}

	if err := engine.WriteRecords(tmp, rows, delimiter); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close output file: %w", err)
	}

	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("finalize output file: %w", err)
	}
	return outputPath, nil
}

// outputFileName derives a safe output name from the input file name
func outputFileName(inputPath string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s-repaired.csv", slug.Make(base))
}

// jobOptions converts the stored job configuration back into engine options
func jobOptions(job *common.RepairJob) (engine.Options, error) {
	var opts engine.Options

	d, err := engine.ParseDelimiter(job.Delimiter)
	if err != nil {
		return opts, err
	}
	m, err := engine.ParseHeaderMode(job.HeaderMode)
	if err != nil {
		return opts, err
	}

	opts.Delimiter = d
	opts.HeaderMode = m
	opts.ExpectedColumns = job.ExpectedColumns
	return opts, nil
}

// SubmitFile creates and processes a repair job for a file that appeared in
// the watched drop directory, using the default configuration. The
// idempotency key is derived from the path and modification time so a file
// is not repaired twice for the same change.
func SubmitFile(path string) {
	db := common.GetDB()

	info, err := os.Stat(path)
	if err != nil {
		log.Printf("watch: skipping %s: %v", path, err)
		return
	}

	key := fmt.Sprintf("watch-%s-%d", slug.Make(path), info.ModTime().Unix())

	var existing common.RepairJob
	if err := db.Where("idempotency_key = ?", key).First(&existing).Error; err == nil {
		return
	}

	job := common.RepairJob{
		ID:             uuid.New().String(),
		IdempotencyKey: key,
		Status:         common.JobStatusPending,
		InputPath:      path,
		Delimiter:      engine.Comma.String(),
		HeaderMode:     engine.HasHeaders.String(),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := db.Create(&job).Error; err != nil {
		log.Printf("watch: failed to create job for %s: %v", path, err)
		return
	}

	log.Printf("watch: queued repair job %s for %s", job.ID, path)
	ProcessRepairJob(job.ID)
}

// encodeJobErrors stores job errors as a JSON array
func encodeJobErrors(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	data, _ := json.Marshal(errs)
	return string(data)
}

// decodeJobErrors parses the stored error JSON, tolerating empty values
func decodeJobErrors(raw string) []string {
	if raw == "" {
		return nil
	}
	var errs []string
	if err := json.Unmarshal([]byte(raw), &errs); err != nil {
		return []string{raw}
	}
	return errs
}
