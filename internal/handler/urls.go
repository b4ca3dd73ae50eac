package handlers

import (
	"Lifeline/internal/dispatch"
	"Lifeline/internal/logstore"
	"Lifeline/internal/models"
	"Lifeline/pkg/cache"
	"Lifeline/pkg/config"
	"Lifeline/pkg/llm"
	"Lifeline/pkg/middleware"
	"Lifeline/pkg/notification"
	"Lifeline/pkg/search"
	stores "Lifeline/pkg/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handlers struct {
	db          *gorm.DB
	coordinator *dispatch.Coordinator
	logStore    *logstore.Store
	cache       cache.Cache
	search      *search.AlertIndex             // 可为 nil（禁用搜索）
	llm         llm.LLMClient                  // 可为 nil（禁用简报）
	objectStore stores.Store                   // 可为 nil（禁用导出归档）
	limiter     *middleware.RateLimiter        // 可为 nil（禁用限流）
	mailer      *notification.MailNotification // 可为 nil（函数端仅登记审计）
}

func NewHandlers(db *gorm.DB, coordinator *dispatch.Coordinator, logStore *logstore.Store) *Handlers {
	return &Handlers{
		db:          db,
		coordinator: coordinator,
		logStore:    logStore,
	}
}

// WithCache 启用热点读缓存
func (h *Handlers) WithCache(c cache.Cache) *Handlers {
	h.cache = c
	return h
}

// WithSearch 启用全文搜索
func (h *Handlers) WithSearch(idx *search.AlertIndex) *Handlers {
	h.search = idx
	return h
}

// WithLLM 启用派发简报
func (h *Handlers) WithLLM(client llm.LLMClient) *Handlers {
	h.llm = client
	return h
}

// WithObjectStore 启用日志导出归档
func (h *Handlers) WithObjectStore(s stores.Store) *Handlers {
	h.objectStore = s
	return h
}

// WithRateLimiter 启用限流
func (h *Handlers) WithRateLimiter(l *middleware.RateLimiter) *Handlers {
	h.limiter = l
	return h
}

// WithMailer 启用联系人邮件通知
func (h *Handlers) WithMailer(m *notification.MailNotification) *Handlers {
	h.mailer = m
	return h
}

func (h *Handlers) Register(engine *gin.Engine) {
	r := engine.Group(config.GlobalConfig.APIPrefix)

	// Register Global Singleton DB
	r.Use(middleware.InjectDB(h.db))
	if h.limiter != nil {
		r.Use(h.limiter.Middleware())
	}

	// Register System Module Routes
	h.registerSystemRoutes(r)

	// Register Business Module Routes
	h.registerAuthRoutes(r)
	h.registerContactRoutes(r)
	h.registerAlertRoutes(r)
	h.registerLogRoutes(r)

	// 下游通知函数：挂在引擎根部，经 HMAC 签名保护
	engine.POST(notification.NotifyContactsPath,
		middleware.InjectDB(h.db),
		middleware.SignVerifyMiddleware(),
		h.handleNotifyContacts)

	if config.GlobalConfig.AdminPrefix != "" {
		admin := r.Group(config.GlobalConfig.AdminPrefix)
		admin.Use(models.AdminRequired)
		models.RegisterAdmins(admin, h.db, models.LifelineAdminObjects())
	}
}

// User Module
func (h *Handlers) registerAuthRoutes(r *gin.RouterGroup) {
	auth := r.Group(config.GlobalConfig.AuthPrefix)
	{
		auth.POST("/register", h.handleUserSignup)

		auth.POST("/login", h.handleUserSignin)

		auth.GET("/logout", models.AuthRequired, h.handleUserLogout)

		auth.GET("/info", models.AuthRequired, h.handleUserInfo)

		auth.PUT("/devices", models.AuthRequired, h.handleUpdateDevices)
	}
}

func (h *Handlers) registerContactRoutes(r *gin.RouterGroup) {
	contacts := r.Group("contacts")
	contacts.Use(models.AuthRequired)
	{
		contacts.POST("", h.handleCreateContact)

		contacts.GET("", h.handleListContacts)

		contacts.GET("/:id", h.handleGetContact)

		contacts.PUT("/:id", h.handleUpdateContact)

		contacts.DELETE("/:id", h.handleDeleteContact)
	}
}

func (h *Handlers) registerAlertRoutes(r *gin.RouterGroup) {
	alerts := r.Group("alerts")
	alerts.Use(models.AuthRequired)
	{
		alerts.POST("", h.handleCreateAlert)

		alerts.GET("", h.handleListAlerts)

		alerts.GET("/search", h.handleSearchAlerts)

		alerts.GET("/:id", h.handleGetAlert)

		alerts.PUT("/:id/message", h.handleUpdateAlertMessage)

		// 重试安全：同一 Idempotency-Key 的重复派发被拒绝
		alerts.POST("/:id/dispatch", middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{}), h.handleDispatchAlert)

		alerts.POST("/:id/briefing", h.handleAlertBriefing)

		alerts.PUT("/:id/status", models.AdminRequired, h.handleUpdateAlertStatus)

		alerts.DELETE("/:id", models.AdminRequired, h.handleDeleteAlert)
	}
}

func (h *Handlers) registerLogRoutes(r *gin.RouterGroup) {
	logs := r.Group("logs")
	logs.Use(models.AuthRequired)
	{
		logs.GET("", h.handleReadLogs)

		logs.GET("/statistics", h.handleLogStatistics)

		logs.GET("/export", h.handleExportLogs)

		logs.DELETE("/:alertId", h.handleRemoveLogEntry)

		logs.DELETE("", models.AdminRequired, h.handleClearLogs)
	}
}

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	system := r.Group("system")
	{
		system.POST("/rate-limiter/config", models.AdminRequired, h.UpdateRateLimiterConfig)

		system.GET("/health", h.HealthCheck)

		system.GET("/docs", h.handleDocs)
	}
}
