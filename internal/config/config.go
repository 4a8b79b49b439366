package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port      int              `json:"port"`
	CORSAllow []string         `json:"cors_allow"`
	LogConfig logger.LogConfig `json:"log_config"`
	Database  DatabaseConfig   `json:"database"`
	FileStore FileStoreConfig  `json:"file_store"`
	AI        AIConfig         `json:"ai"`
	OCR       OCRConfig        `json:"ocr"`
	WebSearch WebSearchConfig  `json:"web_search"`
	Vector    VectorConfig     `json:"vector"`
	Search    SearchConfig     `json:"search"`
	Ingest    IngestConfig     `json:"ingest"`
	Jobs      JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type FileStoreConfig struct {
	Type      string   `json:"type"`
	Dir       string   `json:"dir"`
	PathRoots []string `json:"path_roots"`
	S3        S3Config `json:"s3"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	UseSSL    bool   `json:"use_ssl"`
}

type AIConfig struct {
	Provider   string      `json:"provider"`
	Model      string      `json:"model"`
	EmbedModel string      `json:"embed_model"`
	Timeout    int         `json:"timeout"`
	Data       interface{} `json:"data"`
}

type OCRConfig struct {
	Endpoint   string           `json:"endpoint"`
	Timeout    int              `json:"timeout"`
	Preprocess PreprocessConfig `json:"preprocess"`
}

type PreprocessConfig struct {
	Upscale   bool `json:"upscale"`
	Contrast  bool `json:"contrast"`
	Denoise   bool `json:"denoise"`
	Sharpen   bool `json:"sharpen"`
	Grayscale bool `json:"grayscale"`
}

type WebSearchConfig struct {
	Endpoint string `json:"endpoint"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`
	Timeout  int    `json:"timeout"`
}

type VectorConfig struct {
	Enabled   bool `json:"enabled"`
	Dimension int  `json:"dimension"`
	Timeout   int  `json:"timeout"`
}

// SearchConfig carries the ranking constants the original system hardcoded.
type SearchConfig struct {
	CacheSize           int     `json:"cache_size"`
	CacheTTLHours       int     `json:"cache_ttl_hours"`
	RecencyBoost        float64 `json:"recency_boost"`
	EngagementBoost     float64 `json:"engagement_boost"`
	CategoryBoost       float64 `json:"category_boost"`
	EngagementThreshold int     `json:"engagement_threshold"`
	TitleShare          float64 `json:"title_share"`
	ContentShare        float64 `json:"content_share"`
	KeywordShare        float64 `json:"keyword_share"`
}

type IngestConfig struct {
	MaxChunkSize  int `json:"max_chunk_size"`
	ChunkOverlap  int `json:"chunk_overlap"`
	MinTextLength int `json:"min_text_length"`
	BatchDelayMS  int `json:"batch_delay_ms"`
}

type JobsConfig struct {
	ReindexSpec  string `json:"reindex_spec"`
	ReindexLimit int    `json:"reindex_limit"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		return nil, fmt.Errorf("database.host and database.db_name are required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	switch cfg.FileStore.Type {
	case "local":
		if cfg.FileStore.Dir == "" {
			return nil, fmt.Errorf("file_store.dir is required for local store")
		}
	case "s3":
		if cfg.FileStore.S3.Endpoint == "" || cfg.FileStore.S3.Bucket == "" || cfg.FileStore.S3.SecretID == "" || cfg.FileStore.S3.SecretKey == "" {
			return nil, fmt.Errorf("file_store.s3 endpoint/bucket/secret_id/secret_key are required for s3 store")
		}
		if cfg.FileStore.S3.Region == "" {
			cfg.FileStore.S3.Region = "us-east-1"
		}
	default:
		return nil, fmt.Errorf("file_store.type must be local or s3")
	}
	applySearchDefaults(&cfg.Search)
	applyIngestDefaults(&cfg.Ingest)
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.OCR.Timeout == 0 {
		cfg.OCR.Timeout = 120
	}
	if cfg.WebSearch.Timeout == 0 {
		cfg.WebSearch.Timeout = 30
	}
	if cfg.Vector.Dimension == 0 {
		cfg.Vector.Dimension = 768
	}
	if cfg.Vector.Timeout == 0 {
		cfg.Vector.Timeout = 15
	}
	if cfg.Jobs.ReindexSpec == "" {
		cfg.Jobs.ReindexSpec = "0 3 * * *"
	}
	if cfg.Jobs.ReindexLimit == 0 {
		cfg.Jobs.ReindexLimit = 50
	}
	return &cfg, nil
}

func applySearchDefaults(s *SearchConfig) {
	if s.CacheSize == 0 {
		s.CacheSize = 1000
	}
	if s.CacheTTLHours == 0 {
		s.CacheTTLHours = 24
	}
	if s.RecencyBoost == 0 {
		s.RecencyBoost = 1.2
	}
	if s.EngagementBoost == 0 {
		s.EngagementBoost = 1.1
	}
	if s.CategoryBoost == 0 {
		s.CategoryBoost = 1.3
	}
	if s.EngagementThreshold == 0 {
		s.EngagementThreshold = 10
	}
	if s.TitleShare == 0 {
		s.TitleShare = 0.4
	}
	if s.ContentShare == 0 {
		s.ContentShare = 0.4
	}
	if s.KeywordShare == 0 {
		s.KeywordShare = 0.2
	}
}

func applyIngestDefaults(i *IngestConfig) {
	if i.MaxChunkSize == 0 {
		i.MaxChunkSize = 3800
	}
	if i.ChunkOverlap == 0 {
		i.ChunkOverlap = 200
	}
	if i.MinTextLength == 0 {
		i.MinTextLength = 50
	}
	if i.BatchDelayMS == 0 {
		i.BatchDelayMS = 500
	}
}
