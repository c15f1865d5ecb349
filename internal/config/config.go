package config

import (
	"os"
	"strconv"

	"wisefido-careguard/internal/common/config"
)

// Config 守护服务配置
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	// 守护服务特定配置
	Guard struct {
		// Redis Streams 配置
		Streams struct {
			Narratives    string // 叙述文本事件流，如 "careguard:narratives"
			Observations  string // 结构化观测事件流，如 "careguard:observations"
			Cases         string // 案例指令事件流，如 "careguard:cases"
			ConsumerGroup string // 消费者组名
			ConsumerName  string // 消费者名（同组内唯一）
			BatchSize     int64  // 单次读取消息数，默认 10
		}

		// 纵向异常检测阈值（由配置暴露，不由引擎临时发明）
		Anomaly struct {
			WindowDays           int     // 滚动窗口天数，默认 90
			InjuryCountThreshold int     // 无解释伤痕次数阈值，默认 3
			WeightDropFraction   float64 // 体重下降比例阈值，默认 0.04
			WeightLookbackDays   int     // 体重对比回看天数，默认 30
			MonotonicRunLength   int     // 单调下降读数条数，默认 3
		}

		// 工作流配置
		Workflow struct {
			FollowupDelayHours int // 跟进截止延迟（小时），默认 24
		}

		DefaultLanguage string // 缺失语言标签时的默认值，默认 "de"
		AlertTopic      string // AlertEvent 发布主题前缀，如 "careguard/alerts"
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 基础设施配置：默认值 + 环境变量覆盖
	cfg.Database = config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "careguard",
		SSLMode:  "disable",
		MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		MaxIdle:  getEnvInt("DB_MAX_IDLE", 5),
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis = config.RedisConfig{
		Addr: "localhost:6379",
	}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT = config.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "wisefido-careguard",
		QoS:      1,
	}
	cfg.MQTT.LoadFromEnv("MQTT")

	// Streams 配置
	cfg.Guard.Streams.Narratives = getEnv("STREAM_NARRATIVES", "careguard:narratives")
	cfg.Guard.Streams.Observations = getEnv("STREAM_OBSERVATIONS", "careguard:observations")
	cfg.Guard.Streams.Cases = getEnv("STREAM_CASES", "careguard:cases")
	cfg.Guard.Streams.ConsumerGroup = getEnv("STREAM_CONSUMER_GROUP", "careguard")
	cfg.Guard.Streams.ConsumerName = getEnv("STREAM_CONSUMER_NAME", "careguard-1")
	cfg.Guard.Streams.BatchSize = 10

	// 异常检测阈值
	cfg.Guard.Anomaly.WindowDays = getEnvInt("GUARD_WINDOW_DAYS", 90)
	cfg.Guard.Anomaly.InjuryCountThreshold = getEnvInt("GUARD_INJURY_COUNT", 3)
	cfg.Guard.Anomaly.WeightDropFraction = getEnvFloat("GUARD_WEIGHT_DROP_FRACTION", 0.04)
	cfg.Guard.Anomaly.WeightLookbackDays = getEnvInt("GUARD_WEIGHT_LOOKBACK_DAYS", 30)
	cfg.Guard.Anomaly.MonotonicRunLength = getEnvInt("GUARD_MONOTONIC_RUN", 3)

	cfg.Guard.Workflow.FollowupDelayHours = getEnvInt("GUARD_FOLLOWUP_HOURS", 24)

	cfg.Guard.DefaultLanguage = getEnv("GUARD_DEFAULT_LANGUAGE", "de")
	cfg.Guard.AlertTopic = getEnv("GUARD_ALERT_TOPIC", "careguard/alerts")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
