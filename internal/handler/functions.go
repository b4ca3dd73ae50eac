package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"Lifeline/internal/models"
	"Lifeline/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// notifyContactsRequest 下游通知函数请求体，与客户端约定保持一致
type notifyContactsRequest struct {
	AlertID string `json:"alertId" binding:"required"`
}

// handleNotifyContacts 下游 notify-contacts 函数。
// 调用方身份由 X-User-ID 声明并经 HMAC 签名背书；告警必须归属调用方。
func (h *Handlers) handleNotifyContacts(context *gin.Context) {
	rawUID := context.GetHeader("X-User-ID")
	if rawUID == "" {
		context.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing caller identity"})
		return
	}
	uid, err := strconv.ParseUint(rawUID, 10, 32)
	if err != nil {
		context.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid caller identity"})
		return
	}

	var req notifyContactsRequest
	if err := context.ShouldBindJSON(&req); err != nil {
		context.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	alert, err := models.GetAlertByID(h.db, req.AlertID)
	if err != nil {
		context.JSON(http.StatusNotFound, gin.H{"success": false, "error": "alert not found"})
		return
	}
	if alert.UserID != uint(uid) {
		context.JSON(http.StatusForbidden, gin.H{"success": false, "error": "alert not owned by caller"})
		return
	}

	contacts, err := models.ListContactsByUser(h.db, alert.UserID)
	if err != nil {
		context.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	subject := fmt.Sprintf("Emergency alert (%s)", alert.Category)
	body := alert.Message
	if body == "" {
		body = "An emergency alert was raised. Please try to reach this person."
	}

	notified := 0
	for _, contact := range contacts {
		if contact.Phone == "" && contact.Email == "" {
			continue
		}
		if contact.Email != "" && h.mailer != nil {
			if err := h.mailer.SendAlertEmail(context, []string{contact.Email}, subject, body); err != nil {
				logger.Warn("contact mail not delivered", zap.String("email", contact.Email), zap.Error(err))
				continue
			}
		}
		notified++
	}

	detail := fmt.Sprintf("notified %d contact(s) for %s alert", notified, alert.Category)
	if err := models.CreateAlertAudit(h.db, alert.ID, alert.UserID, "notify_contacts", detail); err != nil {
		logger.Warn("audit row not written", zap.String("alert_id", alert.ID), zap.Error(err))
	}

	context.JSON(http.StatusOK, gin.H{
		"success":          true,
		"contactsNotified": notified,
	})
}
