package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

// LLM providers accepted in VOICENOTE_LLM_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderVertex = "vertex"
	ProviderMock   = "mock"
)

// Storage backends accepted in VOICENOTE_STORAGE_BACKEND.
const (
	StorageMemory    = "memory"
	StorageFirestore = "firestore"
	StorageSQLite    = "sqlite"
)

const (
	defaultMaxUploadBytes = 10 << 20
	defaultMaxJSONBytes   = 1 << 20
)

type Config struct {
	Mode        Mode
	Environment string // "production" hides error details

	Host string
	Port string

	// Static key every client must send in x-api-key.
	APIKey string

	LLMProvider     string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	SummaryModel    string
	TranscribeModel string
	PromptFile      string

	GCPProjectID string
	GCPLocation  string
	VertexModel  string

	StorageBackend string // "memory", "firestore" or "sqlite"
	SQLitePath     string

	LogFile  string
	LogLevel slog.Level

	MaxUploadBytes int64
	MaxJSONBytes   int64

	CORSEnabled bool
}

// ClientConfig configures the CLI and the client library.
type ClientConfig struct {
	APIBaseURL     string
	APIKey         string
	UserID         string
	SummaryTimeout time.Duration
}

// fileConfig mirrors the optional YAML file pointed to by VOICENOTE_CONFIG.
// Environment variables win over file values.
type fileConfig struct {
	Host           string `yaml:"host"`
	Port           string `yaml:"port"`
	Environment    string `yaml:"environment"`
	LLMProvider    string `yaml:"llm_provider"`
	SummaryModel   string `yaml:"summary_model"`
	PromptFile     string `yaml:"prompt_file"`
	StorageBackend string `yaml:"storage_backend"`
	SQLitePath     string `yaml:"sqlite_path"`
	LogFile        string `yaml:"log_file"`
	LogLevel       string `yaml:"log_level"`
	Client         struct {
		APIBaseURL     string `yaml:"api_base_url"`
		UserID         string `yaml:"user_id"`
		SummaryTimeout string `yaml:"summary_timeout"`
	} `yaml:"client"`
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getInt64Env(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Load reads .env (if present), the optional YAML file and all env vars, and builds the config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	file, err := loadFile(os.Getenv("VOICENOTE_CONFIG"))
	if err != nil {
		return nil, err
	}

	modeStr := getEnv("VOICENOTE_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	defaultProvider := ProviderOpenAI
	if mode == ModeGCP {
		defaultProvider = ProviderVertex
	}

	cfg := &Config{
		Mode:        mode,
		Environment: getEnv("VOICENOTE_ENV", or(file.Environment, "development")),

		Host: getEnv("HOST", or(file.Host, "0.0.0.0")),
		Port: getEnv("PORT", or(file.Port, "5000")),

		APIKey: getEnv("VOICENOTE_API_KEY", ""),

		LLMProvider:     strings.ToLower(getEnv("VOICENOTE_LLM_PROVIDER", or(file.LLMProvider, defaultProvider))),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		SummaryModel:    getEnv("VOICENOTE_SUMMARY_MODEL", or(file.SummaryModel, "gpt-4")),
		TranscribeModel: getEnv("VOICENOTE_TRANSCRIBE_MODEL", "whisper-1"),
		PromptFile:      getEnv("VOICENOTE_PROMPT_FILE", file.PromptFile),

		GCPProjectID: getEnv("VOICENOTE_GCP_PROJECT", ""),
		GCPLocation:  getEnv("VOICENOTE_GCP_LOCATION", "us-central1"),
		VertexModel:  getEnv("VOICENOTE_VERTEX_MODEL", "gemini-2.5-flash"),

		StorageBackend: strings.ToLower(getEnv("VOICENOTE_STORAGE_BACKEND", or(file.StorageBackend, StorageMemory))),
		SQLitePath:     getEnv("VOICENOTE_SQLITE_PATH", or(file.SQLitePath, "voicenote.db")),

		LogFile:  getEnv("VOICENOTE_LOG_FILE", file.LogFile),
		LogLevel: ParseLogLevel(getEnv("VOICENOTE_LOG_LEVEL", or(file.LogLevel, "INFO"))),

		MaxUploadBytes: getInt64Env("VOICENOTE_MAX_UPLOAD_BYTES", defaultMaxUploadBytes),
		MaxJSONBytes:   getInt64Env("VOICENOTE_MAX_JSON_BYTES", defaultMaxJSONBytes),

		CORSEnabled: getBoolEnv("VOICENOTE_CORS", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("VOICENOTE_API_KEY must be set")
	}
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderVertex, ProviderMock:
	default:
		return fmt.Errorf("unsupported LLM provider %q", c.LLMProvider)
	}
	switch c.StorageBackend {
	case StorageMemory, StorageSQLite:
	case StorageFirestore:
		if c.GCPProjectID == "" {
			return fmt.Errorf("VOICENOTE_GCP_PROJECT is required for firestore storage")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", c.StorageBackend)
	}
	if c.LLMProvider == ProviderVertex && c.GCPProjectID == "" {
		return fmt.Errorf("VOICENOTE_GCP_PROJECT is required for the vertex provider")
	}
	return nil
}

// Addr is the listen address for http.Server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// Production reports whether error responses must hide internal details.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

// LoadClient builds the client-side configuration. Flags may override it afterwards.
func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	file, err := loadFile(os.Getenv("VOICENOTE_CONFIG"))
	if err != nil {
		return nil, err
	}

	timeout := 10 * time.Second
	if file.Client.SummaryTimeout != "" {
		d, err := time.ParseDuration(file.Client.SummaryTimeout)
		if err != nil {
			return nil, fmt.Errorf("client.summary_timeout: %w", err)
		}
		timeout = d
	}

	return &ClientConfig{
		APIBaseURL:     getEnv("VOICENOTE_API_URL", or(file.Client.APIBaseURL, "http://localhost:5000")),
		APIKey:         getEnv("VOICENOTE_API_KEY", "test_api_key_123"),
		UserID:         getEnv("VOICENOTE_USER_ID", or(file.Client.UserID, "tester")),
		SummaryTimeout: getDurationEnv("VOICENOTE_SUMMARY_TIMEOUT", timeout),
	}, nil
}

func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

// ParseLogLevel maps DEBUG/INFO/WARN/ERROR to slog levels, defaulting to INFO.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func or(v, def string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return def
}
