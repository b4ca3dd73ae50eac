package handlers

import (
	"net/http"

	"Lifeline/internal/models"
	"Lifeline/pkg/errors"
	"Lifeline/pkg/logger"
	"Lifeline/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignupRequest 注册请求体
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (h *Handlers) handleUserSignup(context *gin.Context) {
	var req SignupRequest
	if err := context.ShouldBindJSON(&req); err != nil {
		context.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := models.CreateUser(h.db, req.Username, req.Email, req.Password)
	if err != nil {
		response.Fail(context, errors.GetMessage(err), nil)
		return
	}
	if err := models.Login(context, user); err != nil {
		logger.Warn("session not persisted after signup", zap.Error(err))
	}
	response.Success(context, "user created", gin.H{"user": user})
}

// SigninRequest 登录请求体
type SigninRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) handleUserSignin(context *gin.Context) {
	var req SigninRequest
	if err := context.ShouldBindJSON(&req); err != nil {
		context.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := models.Authenticate(h.db, req.Username, req.Password)
	if err != nil {
		response.FailWithCode(context, http.StatusUnauthorized, "invalid username or password", nil)
		return
	}
	if err := models.Login(context, user); err != nil {
		response.FailWithCode(context, http.StatusInternalServerError, "session not persisted", nil)
		return
	}
	response.Success(context, "signed in", gin.H{"user": user})
}

func (h *Handlers) handleUserLogout(context *gin.Context) {
	if err := models.Logout(context); err != nil {
		response.Fail(context, "logout failed", nil)
		return
	}
	response.Success(context, "signed out", nil)
}

func (h *Handlers) handleUserInfo(context *gin.Context) {
	user := models.CurrentUser(context)
	response.Success(context, "success", gin.H{
		"user":    user,
		"devices": user.Devices(),
	})
}

// UpdateDevicesRequest 推送设备令牌更新请求体
type UpdateDevicesRequest struct {
	Tokens []string `json:"tokens"`
}

func (h *Handlers) handleUpdateDevices(context *gin.Context) {
	var req UpdateDevicesRequest
	if err := context.ShouldBindJSON(&req); err != nil {
		context.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := models.CurrentUser(context)
	if err := user.SetDevices(h.db, req.Tokens); err != nil {
		response.Fail(context, errors.GetMessage(err), nil)
		return
	}
	response.Success(context, "devices updated", gin.H{"devices": user.Devices()})
}
