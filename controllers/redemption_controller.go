package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tenantly/rewards-server/config"
	"github.com/tenantly/rewards-server/middleware"
	"github.com/tenantly/rewards-server/models"
)

type createRedemptionReq struct {
	AmountCents int64  `json:"amount_cents" binding:"required,min=1"`
	Description string `json:"description"`
}

// POST /api/redemptions — debits the balance in the same transaction; the
// conditional UPDATE is what prevents overdraws under concurrent requests.
func CreateRedemption(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var req createRedemptionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	var redemption models.Redemption
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND balance_cents >= ?", u.ID, req.AmountCents).
			Update("balance_cents", gorm.Expr("balance_cents - ?", req.AmountCents))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("insufficient balance")
		}

		redemption = models.Redemption{
			UserID:      u.ID,
			AmountCents: req.AmountCents,
			Description: req.Description,
			Status:      models.RedemptionPending,
		}
		return tx.Create(&redemption).Error
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, redemption)
}

// GET /api/redemptions — the caller's own redemptions.
func MyRedemptions(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var redemptions []models.Redemption
	if err := config.DB.
		Where("user_id = ?", u.ID).
		Order("created_at DESC").
		Find(&redemptions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not list redemptions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"redemptions": redemptions})
}

// GET /api/admin/redemptions?status=pending&page=1&limit=10
func ListRedemptions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	query := config.DB.Model(&models.Redemption{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var redemptions []models.Redemption
	if err := query.
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&redemptions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not list redemptions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":        page,
		"limit":       limit,
		"total":       total,
		"redemptions": redemptions,
	})
}

type reviewRedemptionReq struct {
	Fulfill      bool    `json:"fulfill"`
	RejectReason *string `json:"reject_reason"`
}

// PUT /api/admin/redemptions/:id/review — a rejection refunds the debit.
func ReviewRedemption(c *gin.Context) {
	admin := c.MustGet(middleware.CtxUser).(models.User)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid redemption id"})
		return
	}

	var req reviewRedemptionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var redemption models.Redemption
		if err := tx.First(&redemption, id).Error; err != nil {
			return err
		}
		if redemption.Status != models.RedemptionPending {
			return fmt.Errorf("redemption already reviewed")
		}

		now := time.Now()
		updates := map[string]interface{}{
			"reviewed_at": now,
			"reviewer_id": admin.ID,
		}
		if req.Fulfill {
			updates["status"] = models.RedemptionFulfilled
		} else {
			updates["status"] = models.RedemptionRejected
			updates["reject_reason"] = req.RejectReason
		}
		if err := tx.Model(&redemption).Updates(updates).Error; err != nil {
			return err
		}

		if !req.Fulfill {
			return tx.Model(&models.User{}).
				Where("id = ?", redemption.UserID).
				Update("balance_cents", gorm.Expr("balance_cents + ?", redemption.AmountCents)).Error
		}
		return nil
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Redemption not found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "reviewed"})
}
