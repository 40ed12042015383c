package ytdash

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the settings of the running command. It is filled by main
// before any command runs.
var Config Settings

// Logger is the structured logger shared by all stages.
var Logger = slog.Default()

// Broker configures the optional NATS connection used for comments-updated events.
type Broker struct {
	Address string `yaml:"address" env:"BROKER_ADDRESS"`
	Subject string `yaml:"subject" env:"BROKER_SUBJECT" env-default:"ytdash.comments.updated"`
}

// AzureOpenAI selects an Azure OpenAI deployment for reply suggestions.
// It is used instead of the OpenAI API when Endpoint is set.
type AzureOpenAI struct {
	Endpoint   string `yaml:"endpoint" env:"AZURE_OPENAI_ENDPOINT"`
	APIKey     string `yaml:"api_key" env:"AZURE_OPENAI_API_KEY"`
	Deployment string `yaml:"deployment" env:"AZURE_OPENAI_DEPLOYMENT"`
	APIVersion string `yaml:"api_version" env:"AZURE_OPENAI_API_VERSION" env-default:"2024-08-01-preview"`
}

// Settings holds all environment variables
type Settings struct {
	LogLevel      string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	DBDriver      string        `yaml:"db_driver" env:"DB_DRIVER" env-default:"sqlite3"`
	DBDSN         string        `yaml:"db_dsn" env:"DB_DSN" env-default:"comments.db"`
	HTTPAddress   string        `yaml:"http_address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	HTTPRate      int           `yaml:"http_rate" env:"HTTP_RATE" env-default:"20"`
	HTTPTimeout   time.Duration `yaml:"http_timeout" env:"HTTP_TIMEOUT" env-default:"30s"`
	CacheTTL      time.Duration `yaml:"cache_ttl" env:"CACHE_TTL" env-default:"5m"`
	ClusterSeed   int64         `yaml:"cluster_seed" env:"CLUSTER_SEED" env-default:"42"`
	WebClusters   int           `yaml:"web_clusters" env:"WEB_CLUSTERS" env-default:"6"`
	GraphLimit    int           `yaml:"graph_limit" env:"GRAPH_LIMIT" env-default:"300"`
	YouTubeAPIKey string        `yaml:"youtube_api_key" env:"YOUTUBE_API_KEY"`
	OpenAIAPIKey  string        `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	OpenAIModel   string        `yaml:"openai_model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	Azure         AzureOpenAI   `yaml:"azure_openai"`
	Broker        Broker        `yaml:"broker"`
}

// LoadConfig reads settings from the YAML file at path, when given, and
// from the environment. Environment variables win over the file.
func LoadConfig(path string) (Settings, error) {
	var cfg Settings
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Settings{}, fmt.Errorf("cannot read config %q: %w", path, err)
		}
		return cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Settings{}, fmt.Errorf("cannot read environment: %w", err)
	}
	return cfg, nil
}

// requireSetting returns an error naming the environment variable when value is empty.
func requireSetting(value, env string) error {
	if value == "" {
		return fmt.Errorf("missing required environment variable: %s", env)
	}
	return nil
}
