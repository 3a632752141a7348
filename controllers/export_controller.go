package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/tenantly/rewards-server/config"
	"github.com/tenantly/rewards-server/middleware"
	"github.com/tenantly/rewards-server/models"
)

type exportRequest struct {
	Format    string  `json:"format"`
	RangeFrom *string `json:"range_from,omitempty"`
	RangeTo   *string `json:"range_to,omitempty"`
}

// POST /api/admin/surveys/:id/export
func CreateExport(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}
	if req.Format == "" {
		req.Format = "csv"
	}
	if req.Format != "csv" && req.Format != "xlsx" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": fmt.Sprintf("Unsupported format %q", req.Format)})
		return
	}

	var fromPtr, toPtr *time.Time
	if req.RangeFrom != nil {
		if t, err := time.Parse(time.RFC3339, *req.RangeFrom); err == nil {
			fromPtr = &t
		}
	}
	if req.RangeTo != nil {
		if t, err := time.Parse(time.RFC3339, *req.RangeTo); err == nil {
			toPtr = &t
		}
	}

	jobID := uuid.New().String()
	job := models.ExportJob{
		JobID:     jobID,
		SurveyID:  survey.ID,
		Format:    req.Format,
		RangeFrom: fromPtr,
		RangeTo:   toPtr,
		Status:    "queued",
	}
	config.DB.Create(&job)

	go processExportJob(jobID)

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": jobID,
		"status": "queued",
	})
}

// GET /api/admin/exports/:job_id
func GetExport(c *gin.Context) {
	jobID := c.Param("job_id")
	var job models.ExportJob
	if err := config.DB.First(&job, "job_id = ?", jobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "DB error"})
		return
	}

	if job.Status == "done" && job.FilePath != nil {
		c.FileAttachment(*job.FilePath, path.Base(*job.FilePath))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id": job.JobID,
		"status": job.Status,
		"error":  job.ErrorMsg,
	})
}

func failExportJob(job *models.ExportJob, err error) {
	em := err.Error()
	config.DB.Model(job).Updates(map[string]interface{}{"status": "failed", "error_msg": em})
}

func processExportJob(jobID string) {
	var job models.ExportJob
	if err := config.DB.First(&job, "job_id = ?", jobID).Error; err != nil {
		return
	}
	config.DB.Model(&job).Update("status", "processing")

	outDir := "./exports"
	os.MkdirAll(outDir, 0755)

	var results []models.FeedbackResult
	q := config.DB.Preload("Answers").Where("survey_id = ?", job.SurveyID)
	if job.RangeFrom != nil {
		q = q.Where("created_at >= ?", job.RangeFrom)
	}
	if job.RangeTo != nil {
		q = q.Where("created_at <= ?", job.RangeTo)
	}
	if err := q.Find(&results).Error; err != nil {
		failExportJob(&job, err)
		return
	}

	header := []string{"result_id", "user_email", "status", "earned_cents", "created_at", "completed_at", "answers"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		email := ""
		var user models.User
		if err := config.DB.First(&user, r.UserID).Error; err == nil {
			email = user.Email
		}
		completedAt := ""
		if r.CompletedAt != nil {
			completedAt = r.CompletedAt.Format(time.RFC3339)
		}
		answers := make([]string, 0, len(r.Answers))
		for _, a := range r.Answers {
			answers = append(answers, fmt.Sprintf("%d:%s", a.QuestionID, strings.Join(a.Keys(), "|")))
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.ID),
			email,
			r.Status,
			fmt.Sprintf("%d", r.EarnedCents),
			r.CreatedAt.Format(time.RFC3339),
			completedAt,
			strings.Join(answers, " "),
		})
	}

	var outPath string
	var err error
	switch job.Format {
	case "xlsx":
		outPath = path.Join(outDir, fmt.Sprintf("export_%s.xlsx", job.JobID))
		err = writeXLSX(outPath, header, rows)
	default:
		outPath = path.Join(outDir, fmt.Sprintf("export_%s.csv", job.JobID))
		err = writeCSV(outPath, header, rows)
	}
	if err != nil {
		failExportJob(&job, err)
		return
	}

	config.DB.Model(&job).Updates(map[string]interface{}{"status": "done", "file_path": outPath})
}

func writeCSV(outPath string, header []string, rows [][]string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeXLSX(outPath string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Results"
	f.SetSheetName("Sheet1", sheet)

	for col, h := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for i, row := range rows {
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}
	return f.SaveAs(outPath)
}
