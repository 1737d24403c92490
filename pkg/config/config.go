package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var valid = validator.New()

// 上报模式
const (
	ModeEvents       = "events"
	ModeMeasurements = "measurements"
)

// reporter.sources / reporter.sinks 可选值
const (
	SourceProcess   = "process"
	SourceGoRuntime = "goruntime"

	SinkPrometheus = "prometheus"
	SinkLog        = "log"
	SinkOTel       = "otel"
)

// Config 全局配置结构体
type Config struct {
	Reporter ReporterConfig `yaml:"reporter" mapstructure:"reporter" comment:"metric reporting"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server" comment:"HTTP server"`
	Log      ZapLogConfig   `yaml:"log" mapstructure:"log" comment:"logging"`
}

// ReporterConfig 调度器与上报任务配置
type ReporterConfig struct {
	Interval         time.Duration `yaml:"interval" mapstructure:"interval" env:"REPORTER_INTERVAL" validate:"required,gt=0" comment:"reporting interval (e.g. 30s)" default:"30s"`
	Mode             string        `yaml:"mode" mapstructure:"mode" env:"REPORTER_MODE" validate:"required,oneof=events measurements" comment:"events: one batched event per firing; measurements: one measurement per reading" default:"measurements"`
	MetricPrefix     string        `yaml:"metric_prefix" mapstructure:"metric_prefix" env:"REPORTER_METRIC_PREFIX" comment:"prefix for measurement names" default:"MessageBroker/Runtime/Internal/"`
	EventType        string        `yaml:"event_type" mapstructure:"event_type" env:"REPORTER_EVENT_TYPE" comment:"event type name" default:"RuntimeMetrics"`
	Debug            bool          `yaml:"debug" mapstructure:"debug" env:"REPORTER_DEBUG" comment:"log every narrowed sample" default:"false"`
	WorkerNameFormat string        `yaml:"worker_name_format" mapstructure:"worker_name_format" env:"REPORTER_WORKER_NAME_FORMAT" validate:"required" comment:"worker name template, one integer verb" default:"metrics-reporter-%d"`
	Sources          []string      `yaml:"sources" mapstructure:"sources" env:"REPORTER_SOURCES" validate:"required,min=1,dive,oneof=process goruntime" comment:"enabled metric sources"`
	Sinks            []string      `yaml:"sinks" mapstructure:"sinks" env:"REPORTER_SINKS" validate:"required,min=1,dive,oneof=prometheus log otel" comment:"enabled backends"`
}

// AsEvents 是否每次触发合并为一个事件上报
func (r ReporterConfig) AsEvents() bool {
	return r.Mode == ModeEvents
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr" env:"HTTP_ADDR" validate:"required,hostname_port" comment:"listen address (ip:port)"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" env:"HTTP_READ_TIMEOUT" validate:"required,gt=0" comment:"read timeout (e.g. 30s)"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" env:"HTTP_WRITE_TIMEOUT" validate:"required,gt=0" comment:"write timeout (e.g. 30s)"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" validate:"required,gt=0" comment:"idle timeout (e.g. 60s)"`
}

// ZapLogConfig 全局日志配置
type ZapLogConfig struct {
	Level     string `yaml:"level" mapstructure:"level" env:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal" comment:"log level" default:"info"`
	Format    string `yaml:"format" mapstructure:"format" env:"LOG_FORMAT" validate:"required,oneof=json console" comment:"log format (json/console)" default:"json"`
	Path      string `yaml:"path" mapstructure:"path" env:"LOG_PATH" validate:"required" comment:"log directory" default:"./logs"`
	MaxSize   int    `yaml:"max_size" mapstructure:"max_size" env:"LOG_MAX_SIZE" validate:"required,gt=0" comment:"max size of one file (MB)" default:"100"`
	MaxBackup int    `yaml:"max_backup" mapstructure:"max_backup" env:"LOG_MAX_BACKUP" validate:"gte=0" comment:"number of rotated files to keep" default:"30"`
	MaxAge    int    `yaml:"max_age" mapstructure:"max_age" env:"LOG_MAX_AGE" validate:"gte=0" comment:"max age of rotated files (days)" default:"7"`
	Compress  bool   `yaml:"compress" mapstructure:"compress" env:"LOG_COMPRESS" comment:"compress rotated files" default:"true"`
}

// NewDefaultConfig 默认配置（所有字段均有值）
func NewDefaultConfig() *Config {
	return &Config{
		Reporter: ReporterConfig{
			Interval:         30 * time.Second,
			Mode:             ModeMeasurements,
			MetricPrefix:     "MessageBroker/Runtime/Internal/",
			EventType:        "RuntimeMetrics",
			Debug:            false,
			WorkerNameFormat: "metrics-reporter-%d",
			Sources:          []string{SourceProcess, SourceGoRuntime},
			Sinks:            []string{SinkPrometheus},
		},
		Server: ServerConfig{
			Addr:         "0.0.0.0:8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Log: ZapLogConfig{
			Level:     "info",
			Format:    "json",
			Path:      "./logs",
			MaxSize:   100,
			MaxBackup: 30,
			MaxAge:    7,
			Compress:  true,
		},
	}
}

// LoadConfigWithCli 加载配置（优先级：显式指定的 flag > 环境变量 > 配置文件 > flag 默认值），并做校验
func LoadConfigWithCli(cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	// REPORTER_INTERVAL -> reporter.interval
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return decode(v)
}

// Load 只从配置文件加载，不经过命令行
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}

	if err := decoder.Decode(normalizeKeys(v.AllSettings())); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// normalizeKeys flag 写法（max-size）转换为结构体 key（max_size）
func normalizeKeys(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, val := range in {
		if nested, ok := val.(map[string]any); ok {
			val = normalizeKeys(nested)
		}
		out[strings.ReplaceAll(k, "-", "_")] = val
	}
	return out
}

// Validate 配置校验
func (c *Config) Validate() error {
	if err := valid.Struct(c); err != nil {
		return err
	}
	if err := c.Reporter.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}
