package config

import (
	"log"
	"os"
	"time"

	"Lifeline/pkg/logger"
	"Lifeline/pkg/notification"
	"Lifeline/pkg/util"
)

// config/config.go
type Config struct {
	DBDriver      string `env:"DB_DRIVER"`
	DSN           string `env:"DSN"`
	Addr          string `env:"ADDR"`
	Mode          string `env:"MODE"`
	APIPrefix     string `env:"API_PREFIX"`
	AuthPrefix    string `env:"AUTH_PREFIX"`
	AdminPrefix   string `env:"ADMIN_PREFIX"`
	MonitorPrefix string `env:"MONITOR_PREFIX"`
	SessionSecret string `env:"SESSION_SECRET"`
	APISecretKey  string `env:"API_SECRET_KEY"`

	Log  logger.LogConfig
	Mail notification.MailConfig
	SMS  notification.AliyunSMSConfig
	Push notification.JPushConfig

	// 派发
	DispatchTimeout   time.Duration // 单通道尝试时限
	DispatchAckPolicy string        `env:"DISPATCH_ACK_POLICY"` // any | all
	FunctionBaseURL   string        `env:"FUNCTION_BASE_URL"`

	// 本地日志仓库
	LogStoreCapacity int    `env:"LOGSTORE_CAPACITY"`
	LogStoreSnapshot string `env:"LOGSTORE_SNAPSHOT"`

	// 告警留存
	RetentionDays int `env:"ALERT_RETENTION_DAYS"`

	// 对象存储（日志导出归档）
	StorageBackend string `env:"STORAGE_BACKEND"` // minio | cos | 空为禁用

	SearchEnabled   bool   `env:"SEARCH_ENABLED"`
	SearchPath      string `env:"SEARCH_PATH"`
	LLMProvider     string `env:"LLM_PROVIDER"` // ollama | lmstudio | openai
	LLMApiKey       string `env:"LLM_API_KEY"`
	LLMBaseURL      string `env:"LLM_BASE_URL"`
	LLMModel        string `env:"LLM_MODEL"`
	LanguageEnabled bool   `env:"LANGUAGE_ENABLED"`
	BackupEnabled   bool   `env:"BACKUP_ENABLED"`
	BackupPath      string `env:"BACKUP_PATH"`
	BackupSchedule  string `env:"BACKUP_SCHEDULE"`
	GRPCAddr        string `env:"GRPC_ADDR"`
	RateLimit       string `env:"RATE_LIMIT"` // 如 "30-M"
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development" // 默认使用开发环境
	}
	err := util.LoadEnv(env)
	if err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	GlobalConfig = &Config{
		DBDriver:      util.GetEnv("DB_DRIVER"),
		DSN:           util.GetEnv("DSN"),
		Addr:          util.GetEnv("ADDR"),
		Mode:          util.GetEnv("MODE"),
		APIPrefix:     util.GetEnv("API_PREFIX"),
		AuthPrefix:    util.GetEnv("AUTH_PREFIX"),
		AdminPrefix:   util.GetEnv("ADMIN_PREFIX"),
		MonitorPrefix: util.GetEnv("MONITOR_PREFIX"),
		SessionSecret: util.GetEnv("SESSION_SECRET"),
		APISecretKey:  util.GetEnv("API_SECRET_KEY"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Mail: notification.MailConfig{
			Host:     util.GetEnv("MAIL_HOST"),
			Username: util.GetEnv("MAIL_USERNAME"),
			Password: util.GetEnv("MAIL_PASSWORD"),
			Port:     util.GetIntEnv("MAIL_PORT"),
			From:     util.GetEnv("MAIL_FROM"),
		},
		SMS: notification.AliyunSMSConfig{
			AccessKeyId:     util.GetEnv("SMS_ACCESS_KEY_ID"),
			AccessKeySecret: util.GetEnv("SMS_ACCESS_KEY_SECRET"),
			SignName:        util.GetEnv("SMS_SIGN_NAME"),
			TemplateCode:    util.GetEnv("SMS_TEMPLATE_CODE"),
			Endpoint:        util.GetEnv("SMS_ENDPOINT"),
		},
		Push: notification.JPushConfig{
			AppKey:       util.GetEnv("PUSH_APP_KEY"),
			MasterSecret: util.GetEnv("PUSH_MASTER_SECRET"),
		},
		DispatchTimeout:   time.Duration(util.GetIntEnv("DISPATCH_TIMEOUT_MS")) * time.Millisecond,
		DispatchAckPolicy: util.GetEnv("DISPATCH_ACK_POLICY"),
		FunctionBaseURL:   util.GetEnv("FUNCTION_BASE_URL"),
		LogStoreCapacity:  int(util.GetIntEnv("LOGSTORE_CAPACITY")),
		LogStoreSnapshot:  util.GetEnv("LOGSTORE_SNAPSHOT"),
		RetentionDays:     int(util.GetIntEnv("ALERT_RETENTION_DAYS")),
		StorageBackend:    util.GetEnv("STORAGE_BACKEND"),
		SearchEnabled:     util.GetBoolEnv("SEARCH_ENABLED"),
		SearchPath:        util.GetEnv("SEARCH_PATH"),
		LLMProvider:       util.GetEnv("LLM_PROVIDER"),
		LLMApiKey:         util.GetEnv("LLM_API_KEY"),
		LLMBaseURL:        util.GetEnv("LLM_BASE_URL"),
		LLMModel:          util.GetEnv("LLM_MODEL"),
		LanguageEnabled:   util.GetBoolEnv("LANGUAGE_ENABLED"),
		BackupEnabled:     util.GetBoolEnv("BACKUP_ENABLED"),
		BackupPath:        util.GetEnv("BACKUP_PATH"),
		BackupSchedule:    util.GetEnv("BACKUP_SCHEDULE"),
		GRPCAddr:          util.GetEnv("GRPC_ADDR"),
		RateLimit:         util.GetEnv("RATE_LIMIT"),
	}
	return nil
}
