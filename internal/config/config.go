// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Crawler      CrawlerConfig      `mapstructure:"crawler"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Archive      ArchiveConfig      `mapstructure:"archive"`
	DB           DBConfig           `mapstructure:"db"`
	PubSub       PubSubConfig       `mapstructure:"pubsub"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlerConfig governs page fetching behavior.
type CrawlerConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	DelaySeconds   int    `mapstructure:"delay_seconds"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
}

// SchedulerConfig governs race task scheduling.
type SchedulerConfig struct {
	LifecycleTopic    string `mapstructure:"lifecycle_topic"`
	BackfillBatchSize int    `mapstructure:"backfill_batch_size"`
}

// OrchestratorConfig holds the cron specs driving periodic crawls. The
// timezone anchors "today": race days roll over on official-site time,
// not UTC.
type OrchestratorConfig struct {
	DiscoverySpec string `mapstructure:"discovery_spec"`
	ScheduleSpec  string `mapstructure:"schedule_spec"`
	BackfillSpec  string `mapstructure:"backfill_spec"`
	Timezone      string `mapstructure:"timezone"`
}

// ArchiveConfig sets raw page archival behavior.
type ArchiveConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	Driver             string `mapstructure:"driver"`
	Dialect            string `mapstructure:"dialect"`
	DSN                string `mapstructure:"dsn"`
	MaxConns           int32  `mapstructure:"max_conns"`
	MinConns           int32  `mapstructure:"min_conns"`
	MaxConnLifetimeSec int    `mapstructure:"max_conn_lifetime_seconds"`
}

// PubSubConfig holds metadata for lifecycle event notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BOATRACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.user_agent", "metaboatrace-crawler/0.1")
	v.SetDefault("crawler.timeout_seconds", 15)
	v.SetDefault("crawler.delay_seconds", 1)
	v.SetDefault("crawler.respect_robots", false)
	v.SetDefault("scheduler.lifecycle_topic", "race-lifecycle")
	v.SetDefault("scheduler.backfill_batch_size", 50)
	v.SetDefault("orchestrator.discovery_spec", "0 5 * * *")
	v.SetDefault("orchestrator.schedule_spec", "0 3 1 * *")
	v.SetDefault("orchestrator.backfill_spec", "30 4 * * *")
	v.SetDefault("orchestrator.timezone", "Asia/Tokyo")
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.dir", "data/pages")
	v.SetDefault("archive.max_bytes", int64(8<<20))
	v.SetDefault("db.driver", "memory")
	v.SetDefault("db.dialect", "postgres")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.Scheduler.BackfillBatchSize <= 0 {
		return fmt.Errorf("scheduler.backfill_batch_size must be > 0")
	}
	switch c.DB.Driver {
	case "memory":
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when db.driver is postgres")
		}
	default:
		return fmt.Errorf("unsupported db.driver %q", c.DB.Driver)
	}
	if c.PubSub.Enabled && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub is enabled")
	}
	return nil
}

// FetchTimeout converts the crawler timeout to a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Crawler.TimeoutSeconds) * time.Second
}

// FetchDelay converts the crawler politeness delay to a duration.
func (c Config) FetchDelay() time.Duration {
	return time.Duration(c.Crawler.DelaySeconds) * time.Second
}

// ConnLifetime converts the pool lifetime knob to a duration.
func (c Config) ConnLifetime() time.Duration {
	return time.Duration(c.DB.MaxConnLifetimeSec) * time.Second
}
