package logger

import (
	"os"
	"sync"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig 日志配置
type LogConfig struct {
	Level      string `env:"LOG_LEVEL"`
	Filename   string `env:"LOG_FILENAME"`
	MaxSize    int    `env:"LOG_MAX_SIZE"` // 单个日志文件上限（MB）
	MaxAge     int    `env:"LOG_MAX_AGE"`  // 保留天数
	MaxBackups int    `env:"LOG_MAX_BACKUPS"`
}

var (
	mu     sync.RWMutex
	log    = newLogger(LogConfig{})
	atomic = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func newLogger(cfg LogConfig) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	ws := zapcore.AddSync(os.Stdout)
	if cfg.Filename != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxAge:     cfg.MaxAge,
			MaxBackups: cfg.MaxBackups,
		}
		ws = zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout), zapcore.AddSync(rotator))
	}
	core := zapcore.NewCore(encoder, ws, atomic)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// Init 按配置重建全局日志器
func Init(cfg LogConfig) {
	mu.Lock()
	defer mu.Unlock()
	log = newLogger(cfg)
	if cfg.Level != "" {
		SetLevel(cfg.Level)
	}
}

// SetLevel 动态调整日志级别
func SetLevel(level string) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = zapcore.InfoLevel
	}
	atomic.SetLevel(l)
}

func get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debug(msg string, fields ...zap.Field) { get().Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { get().Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { get().Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { get().Error(msg, fields...) }

func Fatal(msg string, fields ...zap.Field) { get().Fatal(msg, fields...) }

// Sync 刷新缓冲日志，进程退出前调用
func Sync() {
	_ = get().Sync()
}
