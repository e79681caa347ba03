package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Web       WebConfig
	Embedding EmbeddingConfig
	Detection DetectionConfig
	Redis     RedisConfig
	Jobs      JobsConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Download  DownloadConfig
	Log       LogConfig
	Analysis  AnalysisDefaults
}

type WebConfig struct {
	Host           string   // defaults to 0.0.0.0
	Port           int      // defaults to 5000
	AllowedOrigins []string // extra CORS origins besides localhost
}

type EmbeddingConfig struct {
	URL     string        // defaults to http://localhost:8000
	Timeout time.Duration // per inference call
}

type DetectionConfig struct {
	URL     string // object detection server; empty disables detection
	Timeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	DB       int
	Password string
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Job store backends.
const (
	JobStoreRedis    = "redis"
	JobStorePostgres = "postgres"
	JobStoreMemory   = "memory"
)

type JobsConfig struct {
	Store string        // redis, postgres or memory
	TTL   time.Duration // record expiry, defaults to one hour
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type StorageConfig struct {
	UploadDir string // annotated images go to <UploadDir>/tagged_results
}

// TaggedDir returns the directory for annotated images.
func (c StorageConfig) TaggedDir() string {
	return strings.TrimSuffix(c.UploadDir, "/") + "/tagged_results"
}

type DownloadConfig struct {
	Timeout  time.Duration
	MaxBytes int64
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

// SlogLevel maps Level to a slog level. Unknown values fall back to info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type AnalysisDefaults struct {
	FaceDistanceThreshold float64           `yaml:"face_distance_threshold"`
	SimilarityThreshold   float64           `yaml:"similarity_threshold"`
	BlurThreshold         float64           `yaml:"blur_threshold"`
	MinFaceSize           int               `yaml:"min_face_size"`
	Detection             DetectionDefaults `yaml:"detection"`
}

type DetectionDefaults struct {
	Conf    float64 `yaml:"conf"`
	ImgSize int     `yaml:"imgsz"`
}

type defaultsFile struct {
	Analysis AnalysisDefaults `yaml:"analysis"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envNonNegInt is envInt that also accepts zero (e.g. Redis DB 0).
func envNonNegInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

// envSeconds reads a duration given either as whole seconds ("3600") or as a
// Go duration string ("1h").
func envSeconds(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func envList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Defaults returns the embedded analysis defaults.
func Defaults() AnalysisDefaults {
	var f defaultsFile
	if err := yaml.Unmarshal(defaultsYAML, &f); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return f.Analysis
}

func Load() *Config {
	return &Config{
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 5000),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Embedding: EmbeddingConfig{
			URL:     os.Getenv("EMBEDDING_URL"),
			Timeout: envSeconds("EMBEDDING_TIMEOUT", time.Minute),
		},
		Detection: DetectionConfig{
			URL:     os.Getenv("OBJECT_DETECTION_URL"),
			Timeout: envSeconds("DETECTION_TIMEOUT", time.Minute),
		},
		Redis: RedisConfig{
			Host:     envString("REDIS_HOST", "127.0.0.1"),
			Port:     envInt("REDIS_PORT", 6379),
			DB:       envNonNegInt("REDIS_DB", 0),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Jobs: JobsConfig{
			Store: strings.ToLower(envString("JOB_STORE", JobStoreRedis)),
			TTL:   envSeconds("JOB_STATUS_TTL", time.Hour),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Storage: StorageConfig{
			UploadDir: envString("UPLOAD_DIR", "uploads"),
		},
		Download: DownloadConfig{
			Timeout:  envSeconds("DOWNLOAD_TIMEOUT", 10*time.Second),
			MaxBytes: int64(envInt("DOWNLOAD_MAX_BYTES", 20<<20)),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: strings.ToLower(envString("LOG_FORMAT", "text")),
		},
		Analysis: Defaults(),
	}
}
