// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_HOST
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, optional
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env in the working directory and its parents, plus the
// project root, so tests running from package directories pick it up too.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string config values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "sourcing-match"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "listings"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Database.Redis.CacheTTL == 0 {
		cfg.Database.Redis.CacheTTL = 300
	}

	m := &cfg.Matching
	if m.TitleWeight == 0 {
		m.TitleWeight = 0.6
	}
	if m.DescriptionWeight == 0 {
		m.DescriptionWeight = 0.3
	}
	if m.UnderBudgetBonus == 0 {
		m.UnderBudgetBonus = 0.2
	}
	if m.OverBudgetPenalty == 0 {
		m.OverBudgetPenalty = 0.3
	}
	if len(m.ConditionWeights) == 0 {
		m.ConditionWeights = map[string]float64{
			"New":             1.0,
			"Used - Like New": 0.9,
			"Used - Good":     0.8,
			"Used - Fair":     0.6,
		}
	}
	if m.UnknownCondition == 0 {
		m.UnknownCondition = 0.7
	}
	if m.InternalPriority == 0 {
		m.InternalPriority = 1.2
	}
	if m.ReverseThreshold == 0 {
		m.ReverseThreshold = 0.3
	}
	if m.TopN == 0 {
		m.TopN = 20
	}
	if m.AdapterTimeout == 0 {
		m.AdapterTimeout = 3000
	}
	if m.PersistQueueSize == 0 {
		m.PersistQueueSize = 256
	}

	if cfg.Adapters == nil {
		cfg.Adapters = map[string]AdapterConfig{}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Matching.TopN < 1 {
		return fmt.Errorf("matching.top_n must be positive, got %d", cfg.Matching.TopN)
	}
	if cfg.Matching.InternalPriority < 1.0 {
		return fmt.Errorf("matching.internal_priority must be >= 1.0, got %f", cfg.Matching.InternalPriority)
	}
	if cfg.Matching.ReverseThreshold < 0 || cfg.Matching.ReverseThreshold >= 1 {
		return fmt.Errorf("matching.reverse_threshold must be in [0, 1), got %f", cfg.Matching.ReverseThreshold)
	}
	for name, a := range cfg.Adapters {
		if a.Enabled && a.BaseURL == "" {
			return fmt.Errorf("adapter %q is enabled but has no base_url", name)
		}
	}
	return nil
}
