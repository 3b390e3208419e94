package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Sites    SitesConfig    `mapstructure:"sites"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

// TelegramConfig holds the bot credentials
type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

// SMTPConfig holds the outgoing-mail account
type SMTPConfig struct {
	Server   string `mapstructure:"server"`
	Port     int    `mapstructure:"port"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Sender   string `mapstructure:"sender"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Password    string `mapstructure:"password"`
	Database    int    `mapstructure:"database"`
	TaxonomyTTL int    `mapstructure:"taxonomy_ttl"` // seconds
}

// SitesConfig holds the shared fetch policy for the marketplace adapters
type SitesConfig struct {
	Timeout              int      `mapstructure:"timeout"`       // seconds, per attempt
	MaxRetries           int      `mapstructure:"max_retries"`   // attempts per call
	RetryWait            int      `mapstructure:"retry_wait"`    // seconds between attempts
	RequestDelay         int      `mapstructure:"request_delay"` // optional post-fetch delay, seconds
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	Proxies              []string `mapstructure:"proxies"`
}

// NotifyConfig holds the dispatch-loop timing
type NotifyConfig struct {
	Period         int `mapstructure:"period"`          // seconds between sweeps
	ShutdownPeriod int `mapstructure:"shutdown_period"` // seconds of uptime before planned exit, 0 disables
	DelayMin       int `mapstructure:"delay_min"`       // seconds, randomized inter-call delay lower bound
	DelayMax       int `mapstructure:"delay_max"`       // seconds, upper bound
	MaxJobs        int `mapstructure:"max_jobs"`        // merged digest cap per host
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config.yaml file not found in current directory")
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("telegram.token", "")

	viper.SetDefault("smtp.server", "smtp.gmail.com")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.email", "")
	viper.SetDefault("smtp.password", "")
	viper.SetDefault("smtp.sender", "Freelance Assistant Bot")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "flnotifier")
	viper.SetDefault("database.user", "flnotifier_user")
	viper.SetDefault("database.password", "flnotifier_pass")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.taxonomy_ttl", 86400)

	viper.SetDefault("sites.timeout", 5)
	viper.SetDefault("sites.max_retries", 3)
	viper.SetDefault("sites.retry_wait", 1)
	viper.SetDefault("sites.request_delay", 1)
	viper.SetDefault("sites.max_requests_per_second", 1)

	viper.SetDefault("notify.period", 60)
	viper.SetDefault("notify.shutdown_period", 0)
	viper.SetDefault("notify.delay_min", 2)
	viper.SetDefault("notify.delay_max", 10)
	viper.SetDefault("notify.max_jobs", 10)
}
