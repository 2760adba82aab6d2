package internal

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig represents the main application configuration.
type AppConfig struct {
	// Server holds server-specific configuration.
	Server struct {
		Port           int    `yaml:"port"`
		ReadTimeoutMS  int64  `yaml:"read_timeout_ms"`
		WriteTimeoutMS int64  `yaml:"write_timeout_ms"`
		IdleTimeoutMS  int64  `yaml:"idle_timeout_ms"`
		ReadHeaderMS   int64  `yaml:"read_header_timeout_ms"`
		MaxBodyBytes   int64  `yaml:"max_body_bytes"`
		MaxConns       int    `yaml:"max_conns"`
		RateLimitRPS   int64  `yaml:"rate_limit_rps"`
		RateLimitBurst int64  `yaml:"rate_limit_burst"`
		MetricsEnabled bool   `yaml:"metrics_enabled"`
		MetricsPath    string `yaml:"metrics_path"`
		PublicBaseURL  string `yaml:"public_base_url"`
	} `yaml:"server"`
	// Providers configures the native delivery endpoints per service.
	Providers struct {
		GitHub    ProviderConfig `yaml:"github"`
		GitLab    ProviderConfig `yaml:"gitlab"`
		Bitbucket ProviderConfig `yaml:"bitbucket"`
	} `yaml:"providers"`
	// Storage configures the hook/project/channel store.
	Storage StorageConfig `yaml:"storage"`
	// Shortener configures the summary-line link shortener.
	Shortener ShortenerConfig `yaml:"shortener"`
	// Watermill holds configuration for the line transport.
	Watermill WatermillConfig `yaml:"watermill"`
}

// Config represents the application configuration including routing rules.
type Config struct {
	AppConfig   `yaml:",inline"`
	Rules       []Rule `yaml:"rules"`
	RulesStrict bool   `yaml:"rules_strict"`
}

// ProviderConfig represents one service's native delivery endpoint. Secret is
// the signature/token the service signs deliveries with; Token authenticates
// webhook auto-registration calls against the service's API.
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Secret  string `yaml:"secret"`
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

// StorageConfig selects the GORM dialect for persisted hooks and channels.
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// ShortenerConfig configures the link shortener; disabled means links are
// displayed unshortened.
type ShortenerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// WatermillConfig holds the configuration for the line transport drivers.
type WatermillConfig struct {
	Driver       string             `yaml:"driver"`
	Drivers      []string           `yaml:"drivers"`
	GoChannel    GoChannelConfig    `yaml:"gochannel"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	NATS         NATSConfig         `yaml:"nats"`
	AMQP         AMQPConfig         `yaml:"amqp"`
	SQL          SQLConfig          `yaml:"sql"`
	HTTP         HTTPConfig         `yaml:"http"`
	RiverQueue   RiverQueueConfig   `yaml:"riverqueue"`
	PublishRetry PublishRetryConfig `yaml:"publish_retry"`
}

// GoChannelConfig holds configuration for the GoChannel pub/sub.
type GoChannelConfig struct {
	OutputChannelBuffer            int64 `yaml:"output_buffer"`
	Persistent                     bool  `yaml:"persistent"`
	BlockPublishUntilSubscriberAck bool  `yaml:"block_publish_until_subscriber_ack"`
}

// KafkaConfig holds configuration for the Kafka pub/sub.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

// NATSConfig holds configuration for the NATS Streaming pub/sub.
type NATSConfig struct {
	ClusterID string `yaml:"cluster_id"`
	ClientID  string `yaml:"client_id"`
	URL       string `yaml:"url"`
}

// AMQPConfig holds configuration for the AMQP pub/sub.
type AMQPConfig struct {
	URL  string `yaml:"url"`
	Mode string `yaml:"mode"`
}

// SQLConfig holds configuration for the SQL pub/sub.
type SQLConfig struct {
	Driver               string `yaml:"driver"`
	DSN                  string `yaml:"dsn"`
	Dialect              string `yaml:"dialect"`
	InitializeSchema     bool   `yaml:"initialize_schema"`
	AutoInitializeSchema bool   `yaml:"auto_initialize_schema"`
}

// HTTPConfig holds configuration for the HTTP publisher.
type HTTPConfig struct {
	BaseURL string `yaml:"base_url"`
	Mode    string `yaml:"mode"`
}

// RiverQueueConfig holds configuration for the RiverQueue publisher.
type RiverQueueConfig struct {
	Driver      string   `yaml:"driver"`
	DSN         string   `yaml:"dsn"`
	Table       string   `yaml:"table"`
	Queue       string   `yaml:"queue"`
	Kind        string   `yaml:"kind"`
	MaxAttempts int      `yaml:"max_attempts"`
	Priority    int      `yaml:"priority"`
	Tags        []string `yaml:"tags"`
}

type PublishRetryConfig struct {
	Attempts int `yaml:"attempts"`
	DelayMS  int `yaml:"delay_ms"`
}

// LoadConfig loads the full application configuration, including routing
// rules, from a YAML file. It expands environment variables and applies
// default values.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, err
	}

	applyDefaults(&cfg.AppConfig)
	normalized, err := normalizeRules(cfg.Rules)
	if err != nil {
		return cfg, err
	}
	cfg.Rules = normalized

	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeoutMS == 0 {
		cfg.Server.ReadTimeoutMS = 5000
	}
	if cfg.Server.WriteTimeoutMS == 0 {
		cfg.Server.WriteTimeoutMS = 10000
	}
	if cfg.Server.IdleTimeoutMS == 0 {
		cfg.Server.IdleTimeoutMS = 60000
	}
	if cfg.Server.ReadHeaderMS == 0 {
		cfg.Server.ReadHeaderMS = 5000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Server.MetricsPath == "" {
		cfg.Server.MetricsPath = "/metrics"
	}
	if cfg.Providers.GitHub.Path == "" {
		cfg.Providers.GitHub.Path = "/webhooks/github/"
	}
	if cfg.Providers.GitLab.Path == "" {
		cfg.Providers.GitLab.Path = "/webhooks/gitlab/"
	}
	if cfg.Providers.Bitbucket.Path == "" {
		cfg.Providers.Bitbucket.Path = "/webhooks/bitbucket/"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "chathooks.db"
	}
	if cfg.Watermill.Driver == "" {
		cfg.Watermill.Driver = "gochannel"
	}
	if cfg.Watermill.GoChannel.OutputChannelBuffer == 0 {
		cfg.Watermill.GoChannel.OutputChannelBuffer = 64
	}
	if cfg.Watermill.HTTP.Mode == "" {
		cfg.Watermill.HTTP.Mode = "topic_url"
	}
	if cfg.Watermill.RiverQueue.Table == "" {
		cfg.Watermill.RiverQueue.Table = "river_job"
	}
	if cfg.Watermill.RiverQueue.Queue == "" {
		cfg.Watermill.RiverQueue.Queue = "default"
	}
	if cfg.Watermill.RiverQueue.Kind == "" {
		cfg.Watermill.RiverQueue.Kind = "chathooks.line"
	}
	if cfg.Watermill.RiverQueue.MaxAttempts == 0 {
		cfg.Watermill.RiverQueue.MaxAttempts = 25
	}
	if cfg.Watermill.PublishRetry.Attempts == 0 {
		cfg.Watermill.PublishRetry.Attempts = 3
	}
	if cfg.Watermill.PublishRetry.DelayMS == 0 {
		cfg.Watermill.PublishRetry.DelayMS = 500
	}
}

func normalizeRules(rules []Rule) ([]Rule, error) {
	out := make([]Rule, 0, len(rules))
	for i := range rules {
		rule := rules[i]
		rule.When = strings.TrimSpace(rule.When)
		rule.Topic = strings.TrimSpace(rule.Topic)
		if rule.When == "" || rule.Topic == "" {
			return nil, fmt.Errorf("rule %d is missing when or topic", i)
		}
		if len(rule.Drivers) > 0 {
			drivers := make([]string, 0, len(rule.Drivers))
			for _, driver := range rule.Drivers {
				trimmed := strings.TrimSpace(driver)
				if trimmed != "" {
					drivers = append(drivers, trimmed)
				}
			}
			rule.Drivers = drivers
		}
		out = append(out, rule)
	}
	return out, nil
}

// NewLoggerOrDefault keeps call sites terse when a component logger is
// optional.
func NewLoggerOrDefault(logger *log.Logger, component string) *log.Logger {
	if logger != nil {
		return logger
	}
	return NewLogger(component)
}
