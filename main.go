package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"Lifeline/internal/dispatch"
	handlers "Lifeline/internal/handler"
	"Lifeline/internal/listeners"
	"Lifeline/internal/logstore"
	"Lifeline/internal/models"
	"Lifeline/pkg/backup"
	"Lifeline/pkg/cache"
	"Lifeline/pkg/config"
	"Lifeline/pkg/grpcx"
	"Lifeline/pkg/i18n"
	"Lifeline/pkg/llm"
	"Lifeline/pkg/logger"
	"Lifeline/pkg/metrics"
	"Lifeline/pkg/middleware"
	"Lifeline/pkg/notification"
	"Lifeline/pkg/registry"
	"Lifeline/pkg/scheduler"
	"Lifeline/pkg/search"
	"Lifeline/pkg/sse"
	stores "Lifeline/pkg/storage"
	"Lifeline/pkg/util"
	"Lifeline/pkg/websocket"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := config.GlobalConfig

	logger.Init(cfg.Log)
	defer logger.Sync()

	db, err := util.InitDB(cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Fatal("打开数据库失败", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Contact{},
		&models.AlertRecord{},
		&models.AuthorityDispatch{},
		&models.DispatchRecord{},
		&models.AlertAudit{},
		&middleware.OperationLog{},
	); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	monitor := metrics.NewMonitor(nil)
	metrics.SetGlobalMonitor(monitor)
	monitor.Start()
	defer monitor.Stop()

	// 通知提供方：未配置真实凭据时退化为本地模拟投递
	smsSender := notification.NewAliyunSMS(cfg.SMS, notification.SimulatedSMSClient{})
	pushSender := notification.NewJPush(cfg.Push, notification.SimulatedPushClient{})
	mailer := notification.NewMailNotification(cfg.Mail)
	if cfg.Mail.Host == "" {
		mailer = mailer.WithSender(notification.SimulatedMailSender{})
	}
	registry.Set(registry.KeyMailer, mailer)

	// 下游 notify-contacts 函数默认回环到本进程
	functionBase := cfg.FunctionBaseURL
	if functionBase == "" {
		functionBase = "http://127.0.0.1" + cfg.Addr
	}
	edge := notification.NewEdgeFunction(notification.EdgeFunctionConfig{
		BaseURL:   functionBase,
		SecretKey: cfg.APISecretKey,
	})
	notifier := dispatch.DownstreamNotifierFunc(func(ctx context.Context, alertID string, userID uint) (*dispatch.NotifyResult, error) {
		ok, n, err := edge.NotifyContacts(ctx, alertID, userID)
		if err != nil {
			return nil, err
		}
		return &dispatch.NotifyResult{Success: ok, ContactsNotified: n}, nil
	})

	coordinator := dispatch.NewCoordinator(
		dispatch.SMSChannel(smsSender),
		dispatch.EmailChannel(mailer),
		dispatch.PushChannel(pushSender),
		dispatch.AuthorityChannel(dispatch.NewAuthorityRegistry(db), notifier),
	)
	if cfg.DispatchTimeout > 0 {
		coordinator = coordinator.WithTimeout(cfg.DispatchTimeout)
	}
	if cfg.DispatchAckPolicy != "" {
		coordinator = coordinator.WithAckPolicy(dispatch.AckPolicy(cfg.DispatchAckPolicy))
	}

	logStore := logstore.NewStore(cfg.LogStoreCapacity)
	if cfg.LogStoreSnapshot != "" {
		logStore = logStore.WithSnapshotFile(cfg.LogStoreSnapshot)
	}
	monitor.SetLogStoreSize(logStore.Len())

	cacheType := util.GetEnv("CACHE_TYPE")
	if cacheType == "" {
		cacheType = "local"
	}
	appCache, err := cache.NewCache(cache.Config{
		Type: cacheType,
		Redis: cache.RedisConfig{
			Addr:     util.GetEnv("REDIS_ADDR"),
			Password: util.GetEnv("REDIS_PASSWORD"),
			DB:       int(util.GetIntEnv("REDIS_DB")),
		},
		Local: cache.LocalConfig{
			MaxSize:           int(util.GetIntEnv("LOCAL_CACHE_MAX_SIZE")),
			DefaultExpiration: 5 * time.Minute,
			CleanupInterval:   10 * time.Minute,
		},
	})
	if err != nil {
		logger.Fatal("初始化缓存失败", zap.Error(err))
	}
	defer appCache.Close()

	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(sessions.Sessions("lifeline_session", cookie.NewStore([]byte(cfg.SessionSecret))))
	engine.Use(metrics.MonitorMiddleware(monitor))
	engine.Use(middleware.OperationLogMiddleware(util.GetEnv("GEOIP_DB_PATH")))
	if cfg.LanguageEnabled {
		i18nSupport, err := i18n.NewI18nSupport("en")
		if err != nil {
			logger.Warn("初始化国际化失败", zap.Error(err))
		} else {
			engine.Use(middleware.LanguageMiddleware(i18nSupport))
		}
	}

	h := handlers.NewHandlers(db, coordinator, logStore).
		WithCache(appCache).
		WithMailer(mailer)

	if cfg.SearchEnabled {
		idx, err := search.Open(search.Config{IndexPath: cfg.SearchPath})
		if err != nil {
			logger.Fatal("打开搜索索引失败", zap.Error(err))
		}
		defer idx.Close()
		h = h.WithSearch(idx)
	}
	if cfg.LLMProvider != "" {
		llmClient, err := llm.New(llm.Config{
			Provider: cfg.LLMProvider,
			APIKey:   cfg.LLMApiKey,
			BaseURL:  cfg.LLMBaseURL,
			Model:    cfg.LLMModel,
		})
		if err != nil {
			logger.Warn("初始化 LLM 客户端失败", zap.Error(err))
		} else {
			h = h.WithLLM(llmClient)
		}
	}
	if cfg.StorageBackend != "" {
		h = h.WithObjectStore(stores.New(cfg.StorageBackend))
	}
	if cfg.RateLimit != "" {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:       cfg.RateLimit,
			Identifier: "ip",
		}, nil).WithObserver(middleware.NewPrometheusObserver())
		h = h.WithRateLimiter(limiter)
	}
	h.Register(engine)

	// 实时推送：WebSocket 与 SSE 两条出口
	wsHub := websocket.NewHub(websocket.LoadConfigFromEnv())
	defer wsHub.Close()
	registry.Set(registry.KeyWSHub, wsHub)
	wsHandler := websocket.NewHandler(wsHub)
	ws := engine.Group("", middleware.InjectDB(db), models.AuthRequired)
	{
		ws.GET(websocket.RouteWebSocket, wsHandler.HandleWebSocket)
		ws.GET(websocket.RouteWebSocketStats, wsHandler.GetStats)
		ws.GET(websocket.RouteWebSocketHealth, wsHandler.HealthCheck)
	}

	sseHub := sse.NewHub(0)
	registry.Set(registry.KeySSEHub, sseHub)
	engine.GET("/events", middleware.InjectDB(db), models.AuthRequired, func(c *gin.Context) {
		u := models.CurrentUser(c)
		sseHub.Serve(c, strconv.FormatUint(uint64(u.ID), 10))
	})

	listeners.InitUserListeners()
	listeners.InitAlertListeners(listeners.AlertEventSinks{
		Hub:     wsHub,
		SSE:     sseHub,
		Monitor: monitor,
	})

	if cfg.MonitorPrefix != "" {
		api := metrics.NewMonitorAPI(monitor)
		grp := engine.Group(cfg.MonitorPrefix)
		api.RegisterRoutes(grp)
		metrics.RegisterMonitorUI(grp, api)
	}

	tick := scheduler.New()
	defer tick.Stop()
	tick.Every(10*time.Minute, scheduler.FuncJob(func(ctx context.Context) {
		stats := logStore.Stats(nil)
		monitor.SetLogStoreSize(stats.Total)
		monitor.SetCustomMetric("alert_log_entries", stats.Total)
		monitor.SetCustomMetric("alert_log_by_status", stats.ByStatus)
		logger.Info("dispatch log summary",
			zap.Int("entries", stats.Total),
			zap.Any("by_category", stats.ByCategory),
			zap.Any("by_status", stats.ByStatus))
	}))

	cr := scheduler.NewCron(nil)
	if cfg.RetentionDays > 0 {
		retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour
		_, err := cr.AddWithCtx("0 3 * * *", func(ctx context.Context) {
			n, err := models.PurgeResolvedAlertsBefore(db, time.Now().Add(-retention))
			if err != nil {
				logger.Warn("清理过期告警失败", zap.Error(err))
				return
			}
			logger.Info("清理过期告警完成", zap.Int64("purged", n))
		})
		if err != nil {
			logger.Warn("注册清理任务失败", zap.Error(err))
		}
	}
	cr.Start()
	defer cr.Stop()

	if cfg.BackupEnabled {
		backup.StartBackupScheduler()
	}

	if cfg.GRPCAddr != "" {
		grpcServer := grpcx.NewServer(grpcx.ServerConfig{
			Addr:             cfg.GRPCAddr,
			EnableReflection: true,
		})
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Fatal("监听 gRPC 端口失败", zap.Error(err))
		}
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC 服务退出", zap.Error(err))
			}
		}()
		defer grpcServer.GracefulStop()
	}

	addr := cfg.Addr
	if addr == "" {
		addr = ":8000"
	}
	srv := &http.Server{Addr: addr, Handler: engine}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("服务启动", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("收到退出信号，开始优雅停机")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("停机超时", zap.Error(err))
	}
}
