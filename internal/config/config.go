package config

import (
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Model    ModelFile      `yaml:"model" mapstructure:"model"`
	Presence PresenceConfig `yaml:"presence" mapstructure:"presence"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Alert    AlertConfig    `yaml:"alert" mapstructure:"alert"`
	Notion   NotionConfig   `yaml:"notion" mapstructure:"notion"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ModelFile points at an optional scoring model YAML file. When Path is
// empty the built-in model is used.
type ModelFile struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PresenceConfig selects the competitor presence source.
type PresenceConfig struct {
	Mode         string  `yaml:"mode" mapstructure:"mode"` // "stub" or "table"
	Seed         uint64  `yaml:"seed" mapstructure:"seed"`
	TablePath    string  `yaml:"table_path" mapstructure:"table_path"`
	ProbabilityA float64 `yaml:"probability_a" mapstructure:"probability_a"`
	ProbabilityB float64 `yaml:"probability_b" mapstructure:"probability_b"`
}

// PipelineConfig configures engine execution.
type PipelineConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig configures the export collaborators.
type OutputConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	XLSX      bool   `yaml:"xlsx" mapstructure:"xlsx"`
	Summary   bool   `yaml:"summary" mapstructure:"summary"`
	Documents bool   `yaml:"documents" mapstructure:"documents"`
}

// AlertConfig configures the model-health webhook.
type AlertConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	TimeoutSecs          int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RetryAttempts        int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	LookbackHours        int     `yaml:"lookback_hours" mapstructure:"lookback_hours"`
}

// NotionConfig holds Notion API credentials for the lead publisher.
type NotionConfig struct {
	Token     string  `yaml:"token" mapstructure:"token"`
	LeadDB    string  `yaml:"lead_db" mapstructure:"lead_db"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// MetricsConfig configures Prometheus textfile output.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" mapstructure:"textfile_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file, and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, eris.Wrap(err, "config: load .env")
		}
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadgen.db")
	v.SetDefault("model.path", "")
	v.SetDefault("presence.mode", "stub")
	v.SetDefault("presence.seed", 42)
	v.SetDefault("presence.table_path", "")
	v.SetDefault("presence.probability_a", 0.60)
	v.SetDefault("presence.probability_b", 0.50)
	v.SetDefault("pipeline.workers", runtime.NumCPU())
	v.SetDefault("output.dir", "data/output")
	v.SetDefault("output.xlsx", false)
	v.SetDefault("output.summary", true)
	v.SetDefault("output.documents", false)
	v.SetDefault("alert.webhook_url", "")
	v.SetDefault("alert.timeout_secs", 10)
	v.SetDefault("alert.retry_attempts", 3)
	v.SetDefault("alert.failure_rate_threshold", 0.5)
	v.SetDefault("alert.lookback_hours", 168)
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.lead_db", "")
	v.SetDefault("notion.rate_limit", 3.0)
	v.SetDefault("metrics.textfile_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the keys a command depends on are present.
// Mode is one of "run", "store", "notify", "publish".
func (c *Config) Validate(mode string) error {
	var missing []string
	switch mode {
	case "run":
		if c.Output.Dir == "" {
			missing = append(missing, "output.dir")
		}
		switch c.Presence.Mode {
		case "stub":
		case "table":
			if c.Presence.TablePath == "" {
				missing = append(missing, "presence.table_path")
			}
		default:
			return eris.Errorf("config: presence.mode must be stub or table (got %q)", c.Presence.Mode)
		}
	case "store":
		if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
			return eris.Errorf("config: store.driver must be sqlite or postgres (got %q)", c.Store.Driver)
		}
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url")
		}
	case "notify":
		if c.Alert.WebhookURL == "" {
			missing = append(missing, "alert.webhook_url")
		}
	case "publish":
		if c.Notion.Token == "" {
			missing = append(missing, "notion.token")
		}
		if c.Notion.LeadDB == "" {
			missing = append(missing, "notion.lead_db")
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing required keys for %s: %s", mode, strings.Join(missing, ", "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
