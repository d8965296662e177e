// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	AI            AIConfig            `mapstructure:"ai"`
	Chat          ChatConfig          `mapstructure:"chat"`
	Buddie        BuddieConfig        `mapstructure:"buddie"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 WebSocket 连接票据签发相关的配置。
type JWTConfig struct {
	Secret              string `mapstructure:"secret"`
	TicketExpireMinutes int    `mapstructure:"ticket_expire_minutes"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储审核事件流相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置（Buddie 语料数据集，可选）。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// AIConfig 存储多提供商 AI 管线的配置。
// Providers 的顺序即回退顺序：首个为主力，越靠后越廉价/本地。
type AIConfig struct {
	Timeout      time.Duration    `mapstructure:"timeout"`
	Retries      int              `mapstructure:"retries"`
	BackoffBase  time.Duration    `mapstructure:"backoff_base"`
	MaxTotalWait time.Duration    `mapstructure:"max_total_wait"`
	Providers    []ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig 描述单个文本生成提供商。
// Type 取值: gemini / openai / huggingface / ollama。
// openai 类型通过 base_url 覆盖同时支持 Groq、Mistral、DeepSeek 等兼容后端。
type ProviderConfig struct {
	Name    string `mapstructure:"name"`
	Type    string `mapstructure:"type"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// ChatConfig 存储聊天准入相关的配置。
type ChatConfig struct {
	// Denylist 为快速关键词过滤的静态词表，命中则直接拒绝，不再调用 AI 审核。
	Denylist          []string `mapstructure:"denylist"`
	HistoryLimit      int      `mapstructure:"history_limit"`
	AbuseCountTTLHour int      `mapstructure:"abuse_count_ttl_hours"`
}

// BuddieConfig 存储 Buddie 人格语料相关的配置。
type BuddieConfig struct {
	DialogDataPath     string `mapstructure:"dialog_data_path"`
	CounselingDataPath string `mapstructure:"counseling_data_path"`
	FewShotCount       int    `mapstructure:"few_shot_count"`
	// DatasetObject 非空时优先从 MinIO 拉取语料（对象为 JSON 数组）。
	DatasetObject string `mapstructure:"dataset_object"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}
