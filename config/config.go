package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the researcher daemon.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Index      IndexConfig      `yaml:"index"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Jobs       JobsConfig       `yaml:"jobs"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	UploadsDir string `yaml:"uploads_dir"`
}

// IndexConfig holds chunking and index configuration.
type IndexConfig struct {
	DataDir      string   `yaml:"data_dir"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	Backend      string   `yaml:"backend"` // "bruteforce" or "hnsw"
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "openai", "ollama", "mock"
	Model     string `yaml:"model"`       // e.g., "nomic-embed-text"
	BaseURL   string `yaml:"base_url"`    // for ollama / self-hosted endpoints
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// GenerationConfig holds text generation configuration.
type GenerationConfig struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
	MaxTokens  int    `yaml:"max_tokens"`
}

// JobsConfig holds background job execution configuration.
type JobsConfig struct {
	Workers       int `yaml:"workers"`
	QueueSize     int `yaml:"queue_size"`
	RetentionMin  int `yaml:"retention_min"`
	GCIntervalSec int `yaml:"gc_interval_sec"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       8000,
			UploadsDir: "uploads",
		},
		Index: IndexConfig{
			DataDir:      "data",
			ChunkSize:    1000,
			ChunkOverlap: 200,
			Backend:      "bruteforce",
			Includes:     []string{"**/*.pdf", "**/*.docx", "**/*.csv", "**/*.txt", "**/*.md", "**/*.log"},
			Excludes:     []string{"**/.*"},
		},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			Model:     "nomic-embed-text",
			BaseURL:   "http://localhost:11434/v1",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 768,
			BatchSize: 100,
		},
		Generation: GenerationConfig{
			BaseURL:    "http://127.0.0.1:11434/api/generate",
			Model:      "deepseek-r1:7b",
			TimeoutSec: 600,
			MaxTokens:  300,
		},
		Jobs: JobsConfig{
			Workers:       4,
			QueueSize:     64,
			RetentionMin:  60,
			GCIntervalSec: 300,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// GenerationTimeout returns the generation ceiling as a duration.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.Generation.TimeoutSec) * time.Second
}

// JobRetention returns how long terminal jobs are kept before eviction.
func (c *Config) JobRetention() time.Duration {
	return time.Duration(c.Jobs.RetentionMin) * time.Minute
}

// GCInterval returns how often the job registry sweeps expired jobs.
func (c *Config) GCInterval() time.Duration {
	return time.Duration(c.Jobs.GCIntervalSec) * time.Second
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for researcher.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "researcher.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".researcher", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the on-disk index database.
func IndexDBPath(dataDir string) string {
	return filepath.Join(dataDir, "index.db")
}

// EnsureDirs creates the data and uploads directories if missing.
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(c.Index.DataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.Server.UploadsDir, 0755)
}
