package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"Lifeline/internal/models"
	"Lifeline/pkg/logger"
	"Lifeline/pkg/metrics"
	"Lifeline/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handlers) handleReadLogs(context *gin.Context) {
	user := models.CurrentUser(context)
	if user.IsAdmin && context.Query("all") == "true" {
		response.Success(context, "success", gin.H{"entries": h.logStore.ReadAll()})
		return
	}
	response.Success(context, "success", gin.H{"entries": h.logStore.ReadByOriginator(user.ID)})
}

func (h *Handlers) handleLogStatistics(context *gin.Context) {
	user := models.CurrentUser(context)
	if user.IsAdmin && context.Query("all") == "true" {
		response.Success(context, "success", gin.H{"statistics": h.logStore.Stats(nil)})
		return
	}
	response.Success(context, "success", gin.H{"statistics": h.logStore.Stats(&user.ID)})
}

// handleExportLogs 导出全部日志为 JSON；配置对象存储时同步归档一份
func (h *Handlers) handleExportLogs(context *gin.Context) {
	user := models.CurrentUser(context)
	if !user.IsAdmin {
		response.FailWithCode(context, http.StatusForbidden, "admin only", nil)
		return
	}
	raw, err := h.logStore.Export()
	if err != nil {
		response.Fail(context, err.Error(), nil)
		return
	}
	if h.objectStore != nil {
		key := fmt.Sprintf("logs/export_%s.json", time.Now().Format("20060102_150405"))
		if err := h.objectStore.Write(key, bytes.NewReader(raw)); err != nil {
			logger.Warn("log export not archived", zap.String("key", key), zap.Error(err))
		} else {
			context.Header("X-Archive-URL", h.objectStore.PublicURL(key))
		}
	}
	context.Data(http.StatusOK, "application/json", raw)
}

func (h *Handlers) handleRemoveLogEntry(context *gin.Context) {
	alertID := context.Param("alertId")
	user := models.CurrentUser(context)
	if !user.IsAdmin {
		// 非管理员只能删除自己的条目；不存在按无操作处理
		owned := false
		for _, e := range h.logStore.ReadByOriginator(user.ID) {
			if e.AlertID == alertID {
				owned = true
				break
			}
		}
		if !owned {
			response.Success(context, "success", gin.H{"removed": false})
			return
		}
	}
	removed := h.logStore.Remove(alertID)
	if m := metrics.GetGlobalMonitor(); m != nil {
		m.SetLogStoreSize(h.logStore.Len())
	}
	response.Success(context, "success", gin.H{"removed": removed})
}

func (h *Handlers) handleClearLogs(context *gin.Context) {
	h.logStore.Clear()
	if m := metrics.GetGlobalMonitor(); m != nil {
		m.SetLogStoreSize(0)
	}
	response.Success(context, "logs cleared", nil)
}
