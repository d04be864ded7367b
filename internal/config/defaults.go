package config

import "time"

// Default value constants.  Scoring point values mirror the production rule
// book; every one of them can be overridden through configuration.
const (
	DefaultHTTPHost            = "0.0.0.0"
	DefaultHTTPPort            = 8080
	DefaultHTTPReadTimeout     = 15 * time.Second
	DefaultHTTPWriteTimeout    = 30 * time.Second
	DefaultHTTPShutdownTimeout = 10 * time.Second

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "claimguard"
	DefaultDBSSLMode  = "disable"
	DefaultDBMaxConns = 25
	DefaultDBMinConns = 2

	DefaultMigrationsDir = "migrations"

	DefaultRedisAddr = "localhost:6379"
	DefaultCacheTTL  = 5 * time.Minute

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "claimguard.fraud-events"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultAuditBucket   = "claimguard-fraud-reports"
	DefaultModelsBucket  = "claimguard-models"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultPrometheusPort = 9091

	DefaultWorkerConcurrency = 4

	// Identity matching point values.
	DefaultIdentityNationalIDScore  = 50
	DefaultIdentityEmailScore       = 42
	DefaultIdentityPhoneScore       = 40
	DefaultIdentitySimilarNameScore = 35
	DefaultNameSimilarityThreshold  = 0.85
	DefaultIdentityBlockThreshold   = 50

	// Rule engine point values.
	DefaultRuleHighAmount100K          = 25
	DefaultRuleHighAmount50K           = 15
	DefaultRuleSurgeryClaim            = 10
	DefaultRuleHighRiskClaimType       = 5
	DefaultRuleNoAttachments           = 10
	DefaultRuleInvalidAttachmentType   = 15
	DefaultRuleFrequentClaims          = 10
	DefaultRuleLowProviderApprovalRate = 5
	DefaultRuleProviderFlaggedHistory  = 15

	DefaultAmountHighThreshold   = 100000.0
	DefaultAmountMediumThreshold = 50000.0
	DefaultFrequentClaimsWindow  = 180 * 24 * time.Hour
	DefaultFrequentClaimsMax     = 3
	DefaultLowApprovalRate       = 0.4

	// Risk level cut-offs for a 0..100 score.
	DefaultHighRiskLevelMin   = 61
	DefaultMediumRiskLevelMin = 31

	DefaultReviewTimeout = time.Hour
	DefaultSweepInterval = 5 * time.Minute

	DefaultModelsDir        = "./models"
	DefaultInferenceTimeout = 2 * time.Second
	DefaultExpectedAmount   = 40000.0
)

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.  It must be called
// after unmarshalling and before Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.HTTP.Host == "" {
		cfg.Server.HTTP.Host = DefaultHTTPHost
	}
	if cfg.Server.HTTP.Port == 0 {
		cfg.Server.HTTP.Port = DefaultHTTPPort
	}
	if cfg.Server.HTTP.ReadTimeout == 0 {
		cfg.Server.HTTP.ReadTimeout = DefaultHTTPReadTimeout
	}
	if cfg.Server.HTTP.WriteTimeout == 0 {
		cfg.Server.HTTP.WriteTimeout = DefaultHTTPWriteTimeout
	}
	if cfg.Server.HTTP.ShutdownTimeout == 0 {
		cfg.Server.HTTP.ShutdownTimeout = DefaultHTTPShutdownTimeout
	}

	// ── Database ──────────────────────────────────────────────────────────────
	pg := &cfg.Database.Postgres
	if pg.Host == "" {
		pg.Host = DefaultDBHost
	}
	if pg.Port == 0 {
		pg.Port = DefaultDBPort
	}
	if pg.DBName == "" {
		pg.DBName = DefaultDBName
	}
	if pg.SSLMode == "" {
		pg.SSLMode = DefaultDBSSLMode
	}
	if pg.MaxConns == 0 {
		pg.MaxConns = DefaultDBMaxConns
	}
	if pg.MinConns == 0 {
		pg.MinConns = DefaultDBMinConns
	}
	if pg.MigrationsDir == "" {
		pg.MigrationsDir = DefaultMigrationsDir
	}

	// ── Cache ─────────────────────────────────────────────────────────────────
	if cfg.Cache.Redis.Addr == "" {
		cfg.Cache.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Cache.Redis.DefaultTTL == 0 {
		cfg.Cache.Redis.DefaultTTL = DefaultCacheTTL
	}

	// ── Messaging ─────────────────────────────────────────────────────────────
	if len(cfg.Messaging.Kafka.Brokers) == 0 {
		cfg.Messaging.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Messaging.Kafka.Topic == "" {
		cfg.Messaging.Kafka.Topic = DefaultKafkaTopic
	}

	// ── Storage ───────────────────────────────────────────────────────────────
	if cfg.Storage.MinIO.Endpoint == "" {
		cfg.Storage.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.Storage.MinIO.AuditBucket == "" {
		cfg.Storage.MinIO.AuditBucket = DefaultAuditBucket
	}
	if cfg.Storage.MinIO.ModelsBucket == "" {
		cfg.Storage.MinIO.ModelsBucket = DefaultModelsBucket
	}

	// ── Fraud: identity matching ──────────────────────────────────────────────
	idn := &cfg.Fraud.Identity
	if idn.NationalIDScore == 0 {
		idn.NationalIDScore = DefaultIdentityNationalIDScore
	}
	if idn.EmailScore == 0 {
		idn.EmailScore = DefaultIdentityEmailScore
	}
	if idn.PhoneScore == 0 {
		idn.PhoneScore = DefaultIdentityPhoneScore
	}
	if idn.SimilarNameScore == 0 {
		idn.SimilarNameScore = DefaultIdentitySimilarNameScore
	}
	if idn.NameSimilarityThreshold == 0 {
		idn.NameSimilarityThreshold = DefaultNameSimilarityThreshold
	}
	if idn.BlockThreshold == 0 {
		idn.BlockThreshold = DefaultIdentityBlockThreshold
	}

	// ── Fraud: rule engine ────────────────────────────────────────────────────
	r := &cfg.Fraud.Rules
	if r.HighAmount100K == 0 {
		r.HighAmount100K = DefaultRuleHighAmount100K
	}
	if r.HighAmount50K == 0 {
		r.HighAmount50K = DefaultRuleHighAmount50K
	}
	if r.SurgeryClaim == 0 {
		r.SurgeryClaim = DefaultRuleSurgeryClaim
	}
	if r.HighRiskClaimType == 0 {
		r.HighRiskClaimType = DefaultRuleHighRiskClaimType
	}
	if r.NoAttachments == 0 {
		r.NoAttachments = DefaultRuleNoAttachments
	}
	if r.InvalidAttachmentType == 0 {
		r.InvalidAttachmentType = DefaultRuleInvalidAttachmentType
	}
	if r.FrequentClaims == 0 {
		r.FrequentClaims = DefaultRuleFrequentClaims
	}
	if r.LowProviderApprovalRate == 0 {
		r.LowProviderApprovalRate = DefaultRuleLowProviderApprovalRate
	}
	if r.ProviderFlaggedHistory == 0 {
		r.ProviderFlaggedHistory = DefaultRuleProviderFlaggedHistory
	}
	if r.AmountHighThreshold == 0 {
		r.AmountHighThreshold = DefaultAmountHighThreshold
	}
	if r.AmountMediumThreshold == 0 {
		r.AmountMediumThreshold = DefaultAmountMediumThreshold
	}
	if r.FrequentClaimsWindow == 0 {
		r.FrequentClaimsWindow = DefaultFrequentClaimsWindow
	}
	if r.FrequentClaimsMax == 0 {
		r.FrequentClaimsMax = DefaultFrequentClaimsMax
	}
	if r.LowApprovalRate == 0 {
		r.LowApprovalRate = DefaultLowApprovalRate
	}
	if r.HighRiskLevelMin == 0 {
		r.HighRiskLevelMin = DefaultHighRiskLevelMin
	}
	if r.MediumRiskLevelMin == 0 {
		r.MediumRiskLevelMin = DefaultMediumRiskLevelMin
	}

	// ── Fraud: review ─────────────────────────────────────────────────────────
	if cfg.Fraud.Review.Timeout == 0 {
		cfg.Fraud.Review.Timeout = DefaultReviewTimeout
	}
	if cfg.Fraud.Review.SweepInterval == 0 {
		cfg.Fraud.Review.SweepInterval = DefaultSweepInterval
	}

	// ── Scoring ───────────────────────────────────────────────────────────────
	if cfg.Scoring.ModelsDir == "" {
		cfg.Scoring.ModelsDir = DefaultModelsDir
	}
	if cfg.Scoring.InferenceTimeout == 0 {
		cfg.Scoring.InferenceTimeout = DefaultInferenceTimeout
	}
	if cfg.Scoring.ExpectedAmount == 0 {
		cfg.Scoring.ExpectedAmount = DefaultExpectedAmount
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}

	// ── Monitoring ────────────────────────────────────────────────────────────
	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = DefaultLogLevel
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = DefaultLogFormat
	}
	if cfg.Monitoring.Prometheus.Port == 0 {
		cfg.Monitoring.Prometheus.Port = DefaultPrometheusPort
	}
}
