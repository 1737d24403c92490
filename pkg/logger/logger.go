package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/metrics-reporter/pkg/config"
)

type Logger = zap.Logger

var (
	baseLogger     *zap.Logger
	loggerInitOnce sync.Once
	mu             sync.RWMutex
)

// ParseLevel 配置中的级别转换为 zap 级别，未知值默认 info
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "dbg", "debug":
		return zapcore.DebugLevel
	case "war", "warn":
		return zapcore.WarnLevel
	case "err", "error":
		return zapcore.ErrorLevel
	case "pan", "panic":
		return zapcore.PanicLevel
	case "fat", "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init 全局只初始化一次：stdout 彩色控制台 + cfg.Path 下按天切割的文件
func Init(cfg config.ZapLogConfig) error {
	var err error
	loggerInitOnce.Do(func() {
		level := ParseLevel(cfg.Level)

		if err = os.MkdirAll(cfg.Path, 0755); err != nil {
			return
		}

		maxAge := time.Duration(cfg.MaxAge) * 24 * time.Hour
		if maxAge <= 0 {
			maxAge = 7 * 24 * time.Hour
		}
		writer, wErr := rotatelogs.New(
			filepath.Join(cfg.Path, "reporter-%Y%m%d.log"),
			rotatelogs.WithMaxAge(maxAge),
			rotatelogs.WithRotationTime(24*time.Hour),
			rotatelogs.WithRotationSize(int64(cfg.MaxSize)*1024*1024),
		)
		if wErr != nil {
			err = wErr
			return
		}

		consoleEncoderCfg := zap.NewDevelopmentEncoderConfig()
		consoleEncoderCfg.ConsoleSeparator = " "
		consoleEncoderCfg.EncodeLevel = coloredLevelEncoder
		consoleEncoderCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(fmt.Sprintf("\033[34m%s\033[0m", t.Format("2006-01-02 15:04:05.000 -07:00")))
		}
		// 保留两级路径：scheduler/task.go:42
		consoleEncoderCfg.EncodeCaller = func(c zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
			rel := filepath.Join(filepath.Base(filepath.Dir(c.File)), filepath.Base(c.File))
			enc.AppendString(fmt.Sprintf("%s:%d", rel, c.Line))
		}

		jsonCfg := zap.NewProductionEncoderConfig()
		jsonCfg.TimeKey = "timestamp"
		jsonCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format("2006-01-02 15:04:05.000 -07:00"))
		}
		jsonCfg.EncodeLevel = zapcore.LowercaseLevelEncoder

		var stdoutEncoder zapcore.Encoder
		if cfg.Format == "json" {
			stdoutEncoder = zapcore.NewJSONEncoder(jsonCfg)
		} else {
			stdoutEncoder = zapcore.NewConsoleEncoder(consoleEncoderCfg)
		}

		core := zapcore.NewTee(
			zapcore.NewCore(stdoutEncoder, zapcore.AddSync(os.Stdout), level),
			zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), zapcore.AddSync(writer), level),
		)

		mu.Lock()
		baseLogger = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
		mu.Unlock()
	})
	return err
}

func coloredLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var levelStr string
	switch level {
	case zapcore.DebugLevel:
		levelStr = "\033[36mDEBUG\033[0m"
	case zapcore.InfoLevel:
		levelStr = "\033[32mINFO \033[0m"
	case zapcore.WarnLevel:
		levelStr = "\033[33mWARN \033[0m"
	case zapcore.ErrorLevel:
		levelStr = "\033[31mERROR\033[0m"
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		levelStr = "\033[35m" + level.CapitalString() + "\033[0m"
	default:
		levelStr = "UNK  "
	}
	enc.AppendString(levelStr)
}

// L 获取全局 logger，Init 之前返回 no-op logger
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if baseLogger == nil {
		return zap.NewNop()
	}
	return baseLogger
}

// Named 带 component 字段的子 logger
func Named(component string) *zap.Logger {
	return L().Named(component).With(zap.String("component", component))
}

func Debug(msg string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

func Panic(msg string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Panic(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Fatal(msg, fields...)
}

// Sync 刷盘，Init 之前为空操作
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if baseLogger == nil {
		return nil
	}
	return baseLogger.Sync()
}
