// Package config provides configuration loading, defaults, and validation for
// the ClaimGuard platform.
package config

import (
	"fmt"
	"time"

	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
)

// Config is the root configuration object for every ClaimGuard process
// (apiserver, worker, CLI).  It is populated by the loader in this package and
// treated as read-only afterwards.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Messaging  MessagingConfig  `mapstructure:"messaging"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Fraud      FraudConfig      `mapstructure:"fraud"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
}

// HTTPConfig holds the HTTP server parameters.
type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig groups relational storage settings.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds the PostgreSQL connection parameters.
type PostgresConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	DBName        string        `mapstructure:"dbname"`
	SSLMode       string        `mapstructure:"sslmode"`
	MaxConns      int32         `mapstructure:"max_conns"`
	MinConns      int32         `mapstructure:"min_conns"`
	ConnLifetime  time.Duration `mapstructure:"conn_lifetime"`
	MigrationsDir string        `mapstructure:"migrations_dir"`
}

// Validate reports whether the connection parameters are complete enough to
// dial.  Commands that open their own database connection call this instead of
// the full Config.Validate.
func (c PostgresConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database.postgres.host must not be empty")
	}
	if c.User == "" {
		return fmt.Errorf("database.postgres.user must not be empty")
	}
	if c.DBName == "" {
		return fmt.Errorf("database.postgres.dbname must not be empty")
	}
	return nil
}

// DSN renders the connection string consumed by pgxpool.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// MigrationDSN renders the connection string consumed by golang-migrate,
// which addresses the pgx/v5 driver through its own URL scheme.
func (c PostgresConfig) MigrationDSN() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// MigrationsURL renders the file source URL for the migrations directory.
func (c PostgresConfig) MigrationsURL() string {
	return "file://" + c.MigrationsDir
}

// CacheConfig groups cache settings.
type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds the Redis connection parameters.
type RedisConfig struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
}

// MessagingConfig groups event streaming settings.
type MessagingConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// KafkaConfig holds the Kafka producer parameters.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
}

// StorageConfig groups object storage settings.
type StorageConfig struct {
	MinIO MinIOConfig `mapstructure:"minio"`
}

// MinIOConfig holds the MinIO object storage parameters.  The audit bucket
// stores immutable fraud reports; the models bucket stores scorer artifacts.
type MinIOConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UseSSL       bool   `mapstructure:"use_ssl"`
	AuditBucket  string `mapstructure:"audit_bucket"`
	ModelsBucket string `mapstructure:"models_bucket"`
}

// FraudConfig carries every tunable point value and threshold used by the
// deterministic fraud checks.  Nothing in the rule engine or identity matcher
// is hard-coded; operators adjust weights here without a redeploy of logic.
type FraudConfig struct {
	Identity IdentityMatchConfig `mapstructure:"identity"`
	Rules    RuleWeightsConfig   `mapstructure:"rules"`
	Review   ReviewConfig        `mapstructure:"review"`
}

// IdentityMatchConfig holds the identity-fraud point values and thresholds.
type IdentityMatchConfig struct {
	NationalIDScore         int     `mapstructure:"national_id_score"`
	EmailScore              int     `mapstructure:"email_score"`
	PhoneScore              int     `mapstructure:"phone_score"`
	SimilarNameScore        int     `mapstructure:"similar_name_score"`
	NameSimilarityThreshold float64 `mapstructure:"name_similarity_threshold"`
	BlockThreshold          int     `mapstructure:"block_threshold"`
}

// RuleWeightsConfig holds the claim rule-engine point values and the risk
// level cut-offs shared by every component that classifies a 0..100 score.
type RuleWeightsConfig struct {
	HighAmount100K          int     `mapstructure:"high_amount_100k"`
	HighAmount50K           int     `mapstructure:"high_amount_50k"`
	SurgeryClaim            int     `mapstructure:"surgery_claim"`
	HighRiskClaimType       int     `mapstructure:"high_risk_claim_type"`
	NoAttachments           int     `mapstructure:"no_attachments"`
	InvalidAttachmentType   int     `mapstructure:"invalid_attachment_type"`
	FrequentClaims          int     `mapstructure:"frequent_claims"`
	LowProviderApprovalRate int     `mapstructure:"low_provider_approval_rate"`
	ProviderFlaggedHistory  int     `mapstructure:"provider_flagged_history"`
	AmountHighThreshold     float64 `mapstructure:"amount_high_threshold"`
	AmountMediumThreshold   float64 `mapstructure:"amount_medium_threshold"`
	FrequentClaimsWindow    time.Duration `mapstructure:"frequent_claims_window"`
	FrequentClaimsMax       int     `mapstructure:"frequent_claims_max"`
	LowApprovalRate         float64 `mapstructure:"low_approval_rate"`
	HighRiskLevelMin        int     `mapstructure:"high_risk_level_min"`
	MediumRiskLevelMin      int     `mapstructure:"medium_risk_level_min"`
}

// ReviewConfig controls the admin-review timeout sweeper.
type ReviewConfig struct {
	// Timeout is how long a flagged claim may sit in admin review before it is
	// auto-rejected.  The comparison is strict: exactly Timeout is still legal.
	Timeout time.Duration `mapstructure:"timeout"`

	// SweepInterval is the worker's periodic sweep cadence.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// ScoringConfig controls the ML scoring pipeline.
type ScoringConfig struct {
	// ModelsDir is the local directory holding metadata.json and policy.json.
	ModelsDir string `mapstructure:"models_dir"`

	// ScorerEndpoint, when set, routes supervised inference to an external
	// model server over HTTP.  Empty means the in-process backend (if any
	// coefficients are present in metadata) or rule-only degradation.
	ScorerEndpoint string `mapstructure:"scorer_endpoint"`

	// InferenceTimeout is the wall-clock budget for a single ensemble pass.
	InferenceTimeout time.Duration `mapstructure:"inference_timeout"`

	// ExpectedAmount is the fallback expected claim amount used by the
	// amount_over_expected_ratio feature when no per-type value is configured.
	ExpectedAmount float64 `mapstructure:"expected_amount"`

	// ExpectedAmountByType optionally overrides ExpectedAmount per claim type.
	ExpectedAmountByType map[string]float64 `mapstructure:"expected_amount_by_type"`

	// WatchMetadata enables the fsnotify hot-reload of model metadata.
	WatchMetadata bool `mapstructure:"watch_metadata"`
}

// WorkerConfig controls the background worker process.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// MonitoringConfig groups observability settings.
type MonitoringConfig struct {
	Logging    logging.LogConfig `mapstructure:"logging"`
	Prometheus PrometheusConfig  `mapstructure:"prometheus"`
}

// PrometheusConfig holds the metrics endpoint parameters.
type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Validate checks the configuration for values that would make the process
// unable to operate.  It is called by the loader after ApplyDefaults, so
// defaulted fields are never reported as missing.
func (c *Config) Validate() error {
	if c.Server.HTTP.Port <= 0 || c.Server.HTTP.Port > 65535 {
		return fmt.Errorf("server.http.port must be in (0, 65535], got %d", c.Server.HTTP.Port)
	}
	if err := c.Database.Postgres.Validate(); err != nil {
		return err
	}
	if c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr must not be empty")
	}
	if len(c.Messaging.Kafka.Brokers) == 0 {
		return fmt.Errorf("messaging.kafka.brokers must not be empty")
	}
	if c.Storage.MinIO.Endpoint == "" {
		return fmt.Errorf("storage.minio.endpoint must not be empty")
	}
	if t := c.Fraud.Identity.NameSimilarityThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("fraud.identity.name_similarity_threshold must be in (0, 1], got %v", t)
	}
	if c.Fraud.Rules.HighRiskLevelMin <= c.Fraud.Rules.MediumRiskLevelMin {
		return fmt.Errorf("fraud.rules.high_risk_level_min (%d) must exceed medium_risk_level_min (%d)",
			c.Fraud.Rules.HighRiskLevelMin, c.Fraud.Rules.MediumRiskLevelMin)
	}
	if c.Fraud.Review.Timeout <= 0 {
		return fmt.Errorf("fraud.review.timeout must be positive, got %v", c.Fraud.Review.Timeout)
	}
	if c.Scoring.InferenceTimeout <= 0 {
		return fmt.Errorf("scoring.inference_timeout must be positive, got %v", c.Scoring.InferenceTimeout)
	}
	return nil
}
