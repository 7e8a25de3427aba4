package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the lectern service
type Config struct {
	General     GeneralConfig     `mapstructure:"general"`
	Server      ServerConfig      `mapstructure:"server"`
	Providers   ProvidersConfig   `mapstructure:"providers"`
	Sessions    SessionsConfig    `mapstructure:"sessions"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Chunking    ChunkingConfig    `mapstructure:"chunking"`
	Search      SearchConfig      `mapstructure:"search"`
	Ingest      IngestConfig      `mapstructure:"ingest"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address      string   `mapstructure:"address"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// ProvidersConfig groups external API client settings
type ProvidersConfig struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
}

// AnthropicConfig configures the completion provider
type AnthropicConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// OpenAIConfig configures the embeddings provider
type OpenAIConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// SessionsConfig controls conversation-history retention and backing store
type SessionsConfig struct {
	Backend      string        `mapstructure:"backend"` // inmemory, redis
	MaxExchanges int           `mapstructure:"max_exchanges"`
	TTL          time.Duration `mapstructure:"ttl"`
	Redis        RedisConfig   `mapstructure:"redis"`
}

// RedisConfig contains redis connection settings for the session backend
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

func (r RedisConfig) Validate() error {
	if r.Host == "" || r.Port == "" {
		return errors.New("sessions.redis.host and sessions.redis.port are required for the redis backend")
	}
	return nil
}

// VectorStoreConfig selects and configures the vector index backend
type VectorStoreConfig struct {
	Backend string       `mapstructure:"backend"` // memory, qdrant
	Qdrant  QdrantConfig `mapstructure:"qdrant"`
}

// QdrantConfig contains connection details for a qdrant vector store
type QdrantConfig struct {
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	Collection string        `mapstructure:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func (q QdrantConfig) Validate() error {
	if q.URL == "" {
		return errors.New("vector_store.qdrant.url is required for the qdrant backend")
	}
	if q.Collection == "" {
		return errors.New("vector_store.qdrant.collection is required for the qdrant backend")
	}
	return nil
}

// ChunkingConfig configures how lesson text is split for indexing
type ChunkingConfig struct {
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
}

func (c ChunkingConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return errors.New("chunking.chunk_size must be > 0")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return errors.New("chunking.chunk_overlap must be in [0, chunk_size)")
	}
	return nil
}

// SearchConfig bounds semantic search results
type SearchConfig struct {
	MaxResults int `mapstructure:"max_results"`
}

// IngestConfig locates the course transcript corpus
type IngestConfig struct {
	DocsDir string `mapstructure:"docs_dir"`
}

// LoadConfig loads config from file, falling back to defaults plus
// LECTERN_* environment overrides when no file is present.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":8000")
	viper.SetDefault("server.allow_origins", []string{"*"})
	viper.SetDefault("providers.anthropic.model", "claude-sonnet-4-20250514")
	viper.SetDefault("providers.anthropic.base_url", "https://api.anthropic.com/v1")
	viper.SetDefault("providers.anthropic.max_tokens", 800)
	viper.SetDefault("providers.anthropic.temperature", 0.0)
	viper.SetDefault("providers.anthropic.timeout", 60*time.Second)
	viper.SetDefault("providers.openai.embedding_model", "text-embedding-3-small")
	viper.SetDefault("providers.openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("providers.openai.timeout", 30*time.Second)
	viper.SetDefault("sessions.backend", "inmemory")
	viper.SetDefault("sessions.max_exchanges", 2)
	viper.SetDefault("sessions.ttl", time.Hour)
	viper.SetDefault("sessions.redis.db", 0)
	viper.SetDefault("vector_store.backend", "memory")
	viper.SetDefault("vector_store.qdrant.collection", "course_content")
	viper.SetDefault("vector_store.qdrant.timeout", 15*time.Second)
	viper.SetDefault("chunking.chunk_size", 800)
	viper.SetDefault("chunking.chunk_overlap", 100)
	viper.SetDefault("search.max_results", 5)
	viper.SetDefault("ingest.docs_dir", "./docs")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("LECTERN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	// API keys come from the environment when not in the file; the repo
	// convention is a .env with ANTHROPIC_API_KEY / OPENAI_API_KEY.
	if config.Providers.Anthropic.APIKey == "" {
		config.Providers.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if config.Providers.OpenAI.APIKey == "" {
		config.Providers.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := config.Chunking.Validate(); err != nil {
		panic(err)
	}
	if config.Sessions.Backend == "redis" {
		if err := config.Sessions.Redis.Validate(); err != nil {
			panic(err)
		}
	}
	if config.VectorStore.Backend == "qdrant" {
		if err := config.VectorStore.Qdrant.Validate(); err != nil {
			panic(err)
		}
	}
	return &config
}
