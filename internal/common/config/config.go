// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig                `mapstructure:"app"`
	Server        ServerConfig             `mapstructure:"server"`
	Database      DatabaseConfig           `mapstructure:"database"`
	Adapters      map[string]AdapterConfig `mapstructure:"adapters"`
	Matching      MatchingConfig           `mapstructure:"matching"`
	Notifications NotificationConfig       `mapstructure:"notifications"`
	Logging       LoggingConfig            `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // seconds
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
	URL       string   `mapstructure:"url"` // Single URL alternative to addresses
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds, snapshot read cache
}

// --- Matching Pipeline Config ---

// AdapterConfig holds the settings of one external marketplace adapter.
type AdapterConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	BaseURL    string   `mapstructure:"base_url"`
	APIKey     string   `mapstructure:"api_key"`
	Timeout    int      `mapstructure:"timeout"` // milliseconds
	Categories []string `mapstructure:"categories"`
}

// MatchingConfig holds the scoring constants and pipeline limits. The weight
// values are business tuning preserved from the production ranking formula.
type MatchingConfig struct {
	TitleWeight       float64            `mapstructure:"title_weight"`
	DescriptionWeight float64            `mapstructure:"description_weight"`
	UnderBudgetBonus  float64            `mapstructure:"under_budget_bonus"`
	OverBudgetPenalty float64            `mapstructure:"over_budget_penalty"`
	ConditionWeights  map[string]float64 `mapstructure:"condition_weights"`
	UnknownCondition  float64            `mapstructure:"unknown_condition"`
	InternalPriority  float64            `mapstructure:"internal_priority"`
	ReverseThreshold  float64            `mapstructure:"reverse_threshold"`
	TopN              int                `mapstructure:"top_n"`
	AdapterTimeout    int                `mapstructure:"adapter_timeout"` // milliseconds
	PersistQueueSize  int                `mapstructure:"persist_queue_size"`
}

// NotificationConfig holds settings for buyer/seller match notifications.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
