// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Tika          TikaConfig          `mapstructure:"tika"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Prompt        PromptConfig        `mapstructure:"prompt"`
	Chunker       ChunkerConfig       `mapstructure:"chunker"`
	Retriever     RetrieverConfig     `mapstructure:"retriever"`
	Index         IndexConfig         `mapstructure:"index"`
	Session       SessionConfig       `mapstructure:"session"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	Mode          string `mapstructure:"mode"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// RedisConfig 存储 Redis 的配置。Addr 为空时不启用 Redis。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TikaConfig 存储 Tika 服务器相关的配置。
type TikaConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。Enabled 为 false 时上传文件直接在内存中解析。
type MinIOConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// EmbeddingConfig 存储 Embedding 模型相关的配置。
type EmbeddingConfig struct {
	Provider   string               `mapstructure:"provider"`
	APIKey     string               `mapstructure:"api_key"`
	BaseURL    string               `mapstructure:"base_url"`
	Model      string               `mapstructure:"model"`
	Dimensions int                  `mapstructure:"dimensions"`
	BatchSize  int                  `mapstructure:"batch_size"`
	Cache      EmbeddingCacheConfig `mapstructure:"cache"`
}

// EmbeddingCacheConfig 配置向量缓存：进程内 LRU 与可选的 Redis 共享缓存。
type EmbeddingCacheConfig struct {
	LRUSize int           `mapstructure:"lru_size"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   bool          `mapstructure:"redis"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	Provider   string              `mapstructure:"provider"`
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	Timeout    time.Duration       `mapstructure:"timeout"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig 配置生成相关参数（可选，零值表示使用模型默认值）。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// PromptConfig 配置提示词模板与上下文包裹格式。
type PromptConfig struct {
	Rules        string `mapstructure:"rules"`
	RefStart     string `mapstructure:"ref_start"`
	RefEnd       string `mapstructure:"ref_end"`
	Delimiter    string `mapstructure:"delimiter"`
	NoResultText string `mapstructure:"no_result_text"`
	NotFoundText string `mapstructure:"not_found_text"`
}

// ChunkerConfig 配置文本分块参数（按字符计）。
type ChunkerConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

// RetrieverConfig 配置检索参数。
type RetrieverConfig struct {
	TopK             int     `mapstructure:"top_k"`
	MinScore         float64 `mapstructure:"min_score"`
	ThresholdEnabled bool    `mapstructure:"score_threshold_enabled"`
}

// IndexConfig 选择向量索引后端：memory 或 elasticsearch。
type IndexConfig struct {
	Backend string `mapstructure:"backend"`
}

// SessionConfig 配置会话容量与过期时间。
type SessionConfig struct {
	MaxSessions int           `mapstructure:"max_sessions"`
	TTL         time.Duration `mapstructure:"ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max_upload_size", 20<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tika.server_url", "http://localhost:9998")
	v.SetDefault("tika.timeout", 60*time.Second)

	v.SetDefault("minio.bucket_name", "podcast-uploads")

	v.SetDefault("elasticsearch.addresses", "http://localhost:9200")
	v.SetDefault("elasticsearch.index_name", "podcast_chunks")

	v.SetDefault("embedding.provider", "gemini")
	v.SetDefault("embedding.model", "gemini-embedding-001")
	v.SetDefault("embedding.batch_size", 32)
	v.SetDefault("embedding.cache.lru_size", 4096)
	v.SetDefault("embedding.cache.ttl", 2*time.Hour)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.timeout", 120*time.Second)

	v.SetDefault("prompt.delimiter", "\n\n")

	v.SetDefault("chunker.size", 1000)
	v.SetDefault("chunker.overlap", 200)

	v.SetDefault("retriever.top_k", 3)
	v.SetDefault("retriever.min_score", 0.0)
	v.SetDefault("retriever.score_threshold_enabled", false)

	v.SetDefault("index.backend", "memory")

	v.SetDefault("session.max_sessions", 256)
	v.SetDefault("session.ttl", 2*time.Hour)
}

// Load 读取 YAML 配置文件（可为空，仅使用默认值与环境变量）并返回解析后的配置。
// 环境变量使用 PODCAST_RAG_ 前缀，例如 PODCAST_RAG_SERVER_PORT；GEMINI_KEY 同时作用于 embedding 与 llm。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PODCAST_RAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("embedding.api_key", "PODCAST_RAG_EMBEDDING_API_KEY", "GEMINI_KEY")
	_ = v.BindEnv("llm.api_key", "PODCAST_RAG_LLM_API_KEY", "GEMINI_KEY")

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查配置中相互约束的字段。
func (c *Config) Validate() error {
	if c.Chunker.Size <= 0 {
		return fmt.Errorf("chunker.size 必须大于 0, 当前为 %d", c.Chunker.Size)
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.Size {
		return fmt.Errorf("chunker.overlap 必须在 [0, %d) 之间, 当前为 %d", c.Chunker.Size, c.Chunker.Overlap)
	}
	if c.Retriever.TopK <= 0 {
		return fmt.Errorf("retriever.top_k 必须大于 0, 当前为 %d", c.Retriever.TopK)
	}
	switch c.Index.Backend {
	case "memory", "elasticsearch":
	default:
		return fmt.Errorf("不支持的 index.backend: %q", c.Index.Backend)
	}
	return nil
}

// Init 初始化配置加载，解析失败直接 panic，并写入全局 Conf。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = *cfg
}
