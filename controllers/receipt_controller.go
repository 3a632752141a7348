package controllers

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tenantly/rewards-server/config"
	"github.com/tenantly/rewards-server/middleware"
	"github.com/tenantly/rewards-server/models"
	"github.com/tenantly/rewards-server/utils"
)

// POST /api/receipts — multipart form with an "image" file and optional "note".
func SubmitReceipt(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing receipt image"})
		return
	}

	if err := validateReceiptImage(fileHeader); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	fileID := fmt.Sprintf("%d_%d", u.ID, time.Now().UnixNano())
	imageURL, err := utils.UploadToSupabase(fileHeader, fileHeader.Filename, fileID, "receipts", "")
	if err != nil {
		log.Printf("receipt upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not store receipt image"})
		return
	}

	receipt := models.Receipt{
		UserID:   u.ID,
		ImageURL: imageURL,
		Note:     c.PostForm("note"),
		Status:   models.ReceiptPending,
	}
	if err := config.DB.Create(&receipt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not save receipt"})
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

func validateReceiptImage(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > 10<<20 {
		return fmt.Errorf("file exceeds the 10MB limit")
	}

	allowedTypes := map[string]bool{
		"image/jpeg":      true,
		"image/png":       true,
		"image/gif":       true,
		"application/pdf": true,
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	// Sniff the first 512 bytes; the client's Content-Type header is not trusted.
	buffer := make([]byte, 512)
	if _, err := file.Read(buffer); err != nil {
		return err
	}

	contentType := http.DetectContentType(buffer)
	if !allowedTypes[contentType] {
		return fmt.Errorf("unsupported file type %s", contentType)
	}

	return nil
}

// GET /api/receipts — the caller's own receipts.
func MyReceipts(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var receipts []models.Receipt
	if err := config.DB.
		Where("user_id = ?", u.ID).
		Order("submitted_at DESC").
		Find(&receipts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not list receipts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": receipts})
}

// GET /api/admin/receipts?status=pending&page=1&limit=10&start_date=2026-01-01&end_date=2026-02-01
func ListReceipts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	query := config.DB.Model(&models.Receipt{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if startDateStr := c.Query("start_date"); startDateStr != "" {
		if startDate, err := time.Parse("2006-01-02", startDateStr); err == nil {
			query = query.Where("submitted_at >= ?", startDate)
		}
	}
	if endDateStr := c.Query("end_date"); endDateStr != "" {
		if endDate, err := time.Parse("2006-01-02", endDateStr); err == nil {
			// end date + 1 day keeps the filter inclusive
			query = query.Where("submitted_at < ?", endDate.Add(24*time.Hour))
		}
	}

	var total int64
	query.Count(&total)

	var receipts []models.Receipt
	if err := query.
		Order("submitted_at DESC").
		Limit(limit).Offset(offset).
		Find(&receipts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not list receipts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":     page,
		"limit":    limit,
		"total":    total,
		"receipts": receipts,
	})
}

type reviewReceiptReq struct {
	Approve          bool    `json:"approve"`
	PointsValueCents int64   `json:"points_value_cents"`
	RejectReason     *string `json:"reject_reason"`
}

// PUT /api/admin/receipts/:id/review — approval credits the points atomically.
func ReviewReceipt(c *gin.Context) {
	admin := c.MustGet(middleware.CtxUser).(models.User)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid receipt id"})
		return
	}

	var req reviewReceiptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}
	if req.Approve && req.PointsValueCents <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "points_value_cents must be positive on approval"})
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var receipt models.Receipt
		if err := tx.First(&receipt, id).Error; err != nil {
			return err
		}
		if receipt.Status != models.ReceiptPending {
			return fmt.Errorf("receipt already reviewed")
		}

		now := time.Now()
		updates := map[string]interface{}{
			"reviewed_at": now,
			"reviewer_id": admin.ID,
		}
		if req.Approve {
			updates["status"] = models.ReceiptApproved
			updates["points_value_cents"] = req.PointsValueCents
		} else {
			updates["status"] = models.ReceiptRejected
			updates["reject_reason"] = req.RejectReason
		}
		if err := tx.Model(&receipt).Updates(updates).Error; err != nil {
			return err
		}

		if req.Approve {
			return tx.Model(&models.User{}).
				Where("id = ?", receipt.UserID).
				Update("balance_cents", gorm.Expr("balance_cents + ?", req.PointsValueCents)).Error
		}
		return nil
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Receipt not found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "reviewed"})
}
