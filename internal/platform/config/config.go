package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	pstrings "turia/pkg/platform/strings"
)

// Config is the full service configuration. It is built once in main and
// passed down explicitly.
type Config struct {
	Server    Server
	MasterGST MasterGST
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// MasterGST holds upstream API settings. Empty credentials are allowed; the
// verification pipeline then serves the fallback table only.
type MasterGST struct {
	BaseURL          string
	ClientID         string
	ClientSecret     string
	Email            string
	Timeout          time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// DatabaseConfig selects the client store. An empty URL means in-memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig holds the rate limiter backend. An empty URL means in-memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the audit sink. No brokers means audit events are logged.
type KafkaConfig struct {
	Brokers           []string
	AuditTopic        string
	Partitions        int32
	ReplicationFactor int16
}

type RateLimitConfig struct {
	VerifyPerMinute int
}

// Environment keys.
const (
	keyAddr            = "ADDR"
	keyLogLevel        = "LOG_LEVEL"
	keyLogFormat       = "LOG_FORMAT"
	keyShutdownTimeout = "SHUTDOWN_TIMEOUT"

	keyMasterGSTURL      = "MASTERGST_API_URL"
	keyMasterGSTClientID = "MASTERGST_CLIENT_ID"
	keyMasterGSTSecret   = "MASTERGST_CLIENT_SECRET"
	keyMasterGSTEmail    = "MASTERGST_EMAIL"
	keyMasterGSTTimeout  = "MASTERGST_TIMEOUT"
	keyBreakerThreshold  = "MASTERGST_BREAKER_THRESHOLD"
	keyBreakerCooldown   = "MASTERGST_BREAKER_COOLDOWN"

	keyDatabaseURL    = "DATABASE_URL"
	keyDBMaxOpenConns = "DATABASE_MAX_OPEN_CONNS"
	keyDBMaxIdleConns = "DATABASE_MAX_IDLE_CONNS"
	keyDBConnLifetime = "DATABASE_CONN_MAX_LIFETIME"
	keyDBAutoMigrate  = "DATABASE_AUTO_MIGRATE"

	keyRedisURL          = "REDIS_URL"
	keyRedisPoolSize     = "REDIS_POOL_SIZE"
	keyRedisMinIdleConns = "REDIS_MIN_IDLE_CONNS"
	keyRedisDialTimeout  = "REDIS_DIAL_TIMEOUT"
	keyRedisReadTimeout  = "REDIS_READ_TIMEOUT"
	keyRedisWriteTimeout = "REDIS_WRITE_TIMEOUT"

	keyKafkaBrokers     = "KAFKA_BROKERS"
	keyKafkaAuditTopic  = "KAFKA_AUDIT_TOPIC"
	keyKafkaPartitions  = "KAFKA_AUDIT_PARTITIONS"
	keyKafkaReplication = "KAFKA_AUDIT_REPLICATION_FACTOR"

	keyVerifyPerMinute = "RATE_LIMIT_VERIFY_PER_MINUTE"
)

func defaults(v *viper.Viper) {
	v.SetDefault(keyAddr, ":5000")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "json")
	v.SetDefault(keyShutdownTimeout, 15*time.Second)

	v.SetDefault(keyMasterGSTURL, "https://api.mastergst.com")
	v.SetDefault(keyMasterGSTEmail, "apisales@mastergst.com")
	v.SetDefault(keyMasterGSTTimeout, 15*time.Second)
	v.SetDefault(keyBreakerThreshold, 5)
	v.SetDefault(keyBreakerCooldown, 30*time.Second)

	v.SetDefault(keyDBMaxOpenConns, 10)
	v.SetDefault(keyDBMaxIdleConns, 5)
	v.SetDefault(keyDBConnLifetime, 30*time.Minute)
	v.SetDefault(keyDBAutoMigrate, true)

	v.SetDefault(keyRedisPoolSize, 10)
	v.SetDefault(keyRedisMinIdleConns, 2)
	v.SetDefault(keyRedisDialTimeout, 5*time.Second)
	v.SetDefault(keyRedisReadTimeout, 3*time.Second)
	v.SetDefault(keyRedisWriteTimeout, 3*time.Second)

	v.SetDefault(keyKafkaAuditTopic, "gstin.verification.audit")
	v.SetDefault(keyKafkaPartitions, 3)
	v.SetDefault(keyKafkaReplication, 1)

	v.SetDefault(keyVerifyPerMinute, 30)
}

// Load reads an optional .env file, then the environment. Values already in
// the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return Config{}, err
	}
	v := viper.New()
	v.AutomaticEnv()
	defaults(v)
	return FromViper(v)
}

func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Server: Server{
			Addr:            v.GetString(keyAddr),
			LogLevel:        v.GetString(keyLogLevel),
			LogFormat:       v.GetString(keyLogFormat),
			ShutdownTimeout: v.GetDuration(keyShutdownTimeout),
		},
		MasterGST: MasterGST{
			BaseURL:          v.GetString(keyMasterGSTURL),
			ClientID:         strings.TrimSpace(v.GetString(keyMasterGSTClientID)),
			ClientSecret:     strings.TrimSpace(v.GetString(keyMasterGSTSecret)),
			Email:            v.GetString(keyMasterGSTEmail),
			Timeout:          v.GetDuration(keyMasterGSTTimeout),
			BreakerThreshold: v.GetInt(keyBreakerThreshold),
			BreakerCooldown:  v.GetDuration(keyBreakerCooldown),
		},
		Database: DatabaseConfig{
			URL:             v.GetString(keyDatabaseURL),
			MaxOpenConns:    v.GetInt(keyDBMaxOpenConns),
			MaxIdleConns:    v.GetInt(keyDBMaxIdleConns),
			ConnMaxLifetime: v.GetDuration(keyDBConnLifetime),
			AutoMigrate:     v.GetBool(keyDBAutoMigrate),
		},
		Redis: RedisConfig{
			URL:          v.GetString(keyRedisURL),
			PoolSize:     v.GetInt(keyRedisPoolSize),
			MinIdleConns: v.GetInt(keyRedisMinIdleConns),
			DialTimeout:  v.GetDuration(keyRedisDialTimeout),
			ReadTimeout:  v.GetDuration(keyRedisReadTimeout),
			WriteTimeout: v.GetDuration(keyRedisWriteTimeout),
		},
		Kafka: KafkaConfig{
			Brokers:           pstrings.SplitList(v.GetString(keyKafkaBrokers), ","),
			AuditTopic:        v.GetString(keyKafkaAuditTopic),
			Partitions:        v.GetInt32(keyKafkaPartitions),
			ReplicationFactor: int16(v.GetInt(keyKafkaReplication)),
		},
		RateLimit: RateLimitConfig{
			VerifyPerMinute: v.GetInt(keyVerifyPerMinute),
		},
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("ADDR must not be empty"))
	}
	if c.MasterGST.Timeout <= 0 {
		errs = append(errs, errors.New("MASTERGST_TIMEOUT must be positive"))
	}
	if c.MasterGST.BreakerThreshold < 1 {
		errs = append(errs, errors.New("MASTERGST_BREAKER_THRESHOLD must be at least 1"))
	}
	if c.RateLimit.VerifyPerMinute < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_VERIFY_PER_MINUTE must be at least 1"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.AuditTopic == "" {
		errs = append(errs, errors.New("KAFKA_AUDIT_TOPIC must be set when KAFKA_BROKERS is"))
	}
	return errors.Join(errs...)
}
