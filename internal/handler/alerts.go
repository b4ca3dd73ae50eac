package handlers

import (
	"fmt"
	"net/http"
	"time"

	"Lifeline/internal/logstore"
	"Lifeline/internal/models"
	"Lifeline/pkg/errors"
	"Lifeline/pkg/llm"
	"Lifeline/pkg/logger"
	"Lifeline/pkg/metrics"
	"Lifeline/pkg/response"
	"Lifeline/pkg/search"
	"Lifeline/pkg/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateAlertRequest 提交告警请求体
type CreateAlertRequest struct {
	Category string  `json:"category" binding:"required"`
	Message  string  `json:"message"`
	Severity int     `json:"severity"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Address  string  `json:"address"`
	HasGeo   bool    `json:"has_geo"`
}

func (h *Handlers) handleCreateAlert(context *gin.Context) {
	var req CreateAlertRequest
	if err := context.ShouldBindJSON(&req); err != nil {
		context.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := models.CurrentUser(context)

	var loc *models.Location
	if req.HasGeo {
		var err error
		loc, err = models.NewLocation(req.Lat, req.Lng, req.Address)
		if err != nil {
			context.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errors.GetMessage(err)})
			return
		}
	}

	alert, err := models.NewAlertRecord(user.ID, models.AlertCategory(req.Category), req.Message, loc)
	if err != nil {
		context.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errors.GetMessage(err)})
		return
	}
	if req.Severity >= 1 && req.Severity <= 5 {
		alert.Severity = req.Severity
	}
	if err := models.CreateAlertRecord(h.db, alert); err != nil {
		response.Fail(context, "error", gin.H{"error": errors.GetMessage(err)})
		return
	}
	if h.search != nil {
		if err := h.search.Index(alertDoc(alert)); err != nil {
			logger.Warn("alert not indexed", zap.String("alert_id", alert.ID), zap.Error(err))
		}
	}
	response.Success(context, "alert created", gin.H{"alert": alert})
}

func (h *Handlers) handleListAlerts(context *gin.Context) {
	user := models.CurrentUser(context)
	var (
		alerts []models.AlertRecord
		err    error
	)
	if user.IsAdmin && context.Query("all") == "true" {
		alerts, err = models.ListAllAlerts(h.db)
	} else {
		alerts, err = models.ListAlertsByUser(h.db, user.ID)
	}
	if err != nil {
		response.Fail(context, "error", gin.H{"error": err.Error()})
		return
	}
	response.Success(context, "success", gin.H{"alerts": alerts})
}

// loadOwnedAlert 取告警并校验归属；管理员越过归属检查
func (h *Handlers) loadOwnedAlert(context *gin.Context) (*models.AlertRecord, *models.User, bool) {
	user := models.CurrentUser(context)
	alert, err := models.GetAlertByID(h.db, context.Param("id"))
	if err != nil {
		response.FailWithCode(context, http.StatusNotFound, errors.GetMessage(err), nil)
		return nil, nil, false
	}
	if alert.UserID != user.ID && !user.IsAdmin {
		response.FailWithCode(context, http.StatusForbidden, "alert belongs to another user", nil)
		return nil, nil, false
	}
	return alert, user, true
}

func (h *Handlers) handleGetAlert(context *gin.Context) {
	if h.cache != nil {
		if cached, ok := h.cache.Get(context, alertCacheKey(context.Param("id"))); ok {
			if alert, ok := cached.(*models.AlertRecord); ok {
				user := models.CurrentUser(context)
				if alert.UserID == user.ID || user.IsAdmin {
					response.Success(context, "success", gin.H{"alert": alert})
					return
				}
			}
		}
	}
	alert, _, ok := h.loadOwnedAlert(context)
	if !ok {
		return
	}
	if h.cache != nil {
		_ = h.cache.Set(context, alertCacheKey(alert.ID), alert, 30*time.Second)
	}
	response.Success(context, "success", gin.H{"alert": alert})
}

func alertCacheKey(id string) string { return "alert:" + id }

// UpdateMessageRequest 修改告警描述请求体
type UpdateMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handlers) handleUpdateAlertMessage(context *gin.Context) {
	var req UpdateMessageRequest
	if err := context.ShouldBindJSON(&req); err != nil {
		context.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := models.CurrentUser(context)
	alert, err := models.GetAlertByID(h.db, context.Param("id"))
	if err != nil {
		response.FailWithCode(context, http.StatusNotFound, errors.GetMessage(err), nil)
		return
	}
	if err := alert.UpdateMessage(user.ID, req.Message); err != nil {
		response.FailWithCode(context, errors.GetCode(err), errors.GetMessage(err), nil)
		return
	}
	if err := models.SaveAlertRecord(h.db, alert); err != nil {
		response.Fail(context, "error", gin.H{"error": err.Error()})
		return
	}
	h.invalidateAlertCache(context, alert.ID)
	if h.search != nil {
		_ = h.search.Index(alertDoc(alert))
	}
	response.Success(context, "message updated", gin.H{"alert": alert})
}

// handleDispatchAlert 执行一次派发周期：扇出全部适用通道、等齐、
// 聚合、落库最终快照并写入本地日志仓库。
func (h *Handlers) handleDispatchAlert(context *gin.Context) {
	alert, user, ok := h.loadOwnedAlert(context)
	if !ok {
		return
	}
	if alert.Status == models.StatusResolved {
		response.FailWithCode(context, http.StatusConflict, "alert already resolved", nil)
		return
	}

	contacts, err := models.ListContactsByUser(h.db, alert.UserID)
	if err != nil {
		response.Fail(context, "error", gin.H{"error": err.Error()})
		return
	}

	result := h.coordinator.Dispatch(context.Request.Context(), alert, contacts, user.Devices())

	if err := models.SaveAlertRecord(h.db, alert); err != nil {
		logger.Error("dispatched alert not saved", zap.String("alert_id", alert.ID), zap.Error(err))
	}
	persisted := true
	if err := models.PersistDispatchRecord(h.db, alert, result.OverallSuccess, result.Outcomes); err != nil {
		persisted = false
		logger.Error("dispatch record not persisted", zap.String("alert_id", alert.ID), zap.Error(err))
	}
	logged := h.logStore.Append(logstore.Snapshot(alert, result.Outcomes))
	if m := metrics.GetGlobalMonitor(); m != nil {
		m.SetLogStoreSize(h.logStore.Len())
	}
	h.invalidateAlertCache(context, alert.ID)

	util.Sig().Emit(models.SigAlertDispatched, alert, result)

	response.Success(context, "dispatch completed", gin.H{
		"alert":           alert,
		"overall_success": result.OverallSuccess,
		"outcomes":        result.Outcomes,
		"persisted":       persisted,
		"logged":          logged,
	})
}

// UpdateStatusRequest 管理端状态推进请求体
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handlers) handleUpdateAlertStatus(context *gin.Context) {
	var req UpdateStatusRequest
	if err := context.ShouldBindJSON(&req); err != nil {
		context.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	alert, err := models.GetAlertByID(h.db, context.Param("id"))
	if err != nil {
		response.FailWithCode(context, http.StatusNotFound, errors.GetMessage(err), nil)
		return
	}
	if err := alert.SetStatus(models.AlertStatus(req.Status)); err != nil {
		response.FailWithCode(context, errors.GetCode(err), errors.GetMessage(err), nil)
		return
	}
	if err := models.SaveAlertRecord(h.db, alert); err != nil {
		response.Fail(context, "error", gin.H{"error": err.Error()})
		return
	}
	h.invalidateAlertCache(context, alert.ID)
	if alert.Status == models.StatusResolved {
		util.Sig().Emit(models.SigAlertResolved, alert)
	}
	response.Success(context, "status updated", gin.H{"alert": alert})
}

func (h *Handlers) handleDeleteAlert(context *gin.Context) {
	id := context.Param("id")
	if err := models.DeleteAlertRecord(h.db, id); err != nil {
		response.Fail(context, "error", gin.H{"error": err.Error()})
		return
	}
	h.logStore.Remove(id)
	h.invalidateAlertCache(context, id)
	if h.search != nil {
		_ = h.search.Remove(id)
	}
	response.Success(context, "alert deleted", nil)
}

func (h *Handlers) handleSearchAlerts(context *gin.Context) {
	if h.search == nil {
		response.Fail(context, "search disabled", nil)
		return
	}
	q := context.Query("q")
	if q == "" {
		context.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	user := models.CurrentUser(context)
	result, err := h.search.Search(q, user.ID, user.IsAdmin)
	if err != nil {
		response.Fail(context, "error", gin.H{"error": err.Error()})
		return
	}
	response.Success(context, "success", gin.H{"total": result.Total, "hits": result.Hits})
}

// alertDoc 告警入索引的投影
func alertDoc(a *models.AlertRecord) search.AlertDoc {
	doc := search.AlertDoc{
		ID:        a.ID,
		UserID:    float64(a.UserID),
		Category:  string(a.Category),
		Message:   a.Message,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
	}
	if a.Location != nil {
		doc.Address = a.Location.Address
	}
	return doc
}

// handleAlertBriefing 用 LLM 起草一段面向调度员的情况简报
func (h *Handlers) handleAlertBriefing(context *gin.Context) {
	if h.llm == nil {
		response.Fail(context, "briefing disabled", nil)
		return
	}
	alert, _, ok := h.loadOwnedAlert(context)
	if !ok {
		return
	}
	prompt := fmt.Sprintf(
		"Draft a two-sentence dispatcher briefing for this emergency alert. Category: %s. Severity: %d/5. Message: %s.",
		alert.Category, alert.Severity, alert.Message)
	if alert.Location != nil {
		prompt += fmt.Sprintf(" Location: %s (%.4f, %.4f).",
			alert.Location.Address, alert.Location.Latitude, alert.Location.Longitude)
	}
	text, err := h.llm.Chat(context.Request.Context(), []llm.Message{
		{Role: "system", Content: "You are an emergency dispatch assistant. Be factual and terse."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		response.Fail(context, "error", gin.H{"error": err.Error()})
		return
	}
	response.Success(context, "success", gin.H{"briefing": text})
}

func (h *Handlers) invalidateAlertCache(c *gin.Context, id string) {
	if h.cache != nil {
		_ = h.cache.Delete(c, alertCacheKey(id))
	}
}
