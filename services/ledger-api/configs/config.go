package configs

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	EmailCaseSensitive   = "case_sensitive"
	EmailCaseInsensitive = "case_insensitive"
)

// Config holds application configuration for ledger-api.
type Config struct {
	Port             string        `mapstructure:"PORT" validate:"required"`
	PrimaryDbAddr    string        `mapstructure:"PRIMARY_DB_ADDR" validate:"required"`
	ReplicaDbAddr    string        `mapstructure:"REPLICA_DB_ADDR"`
	MaxDbCons        int32         `mapstructure:"MAX_DB_CONNECTIONS" validate:"min=1"`
	MinDbCons        int32         `mapstructure:"MIN_DB_CONNECTIONS" validate:"min=1"`
	JwtSecret        string        `mapstructure:"JWT_SECRET" validate:"required,min=16"`
	JwtTTL           time.Duration `mapstructure:"JWT_TTL" validate:"required"`
	MinDeposit       string        `mapstructure:"MIN_DEPOSIT" validate:"required,numeric"`
	MaxDeposit       string        `mapstructure:"MAX_DEPOSIT" validate:"required,numeric"`
	MinWithdrawal    string        `mapstructure:"MIN_WITHDRAWAL" validate:"required,numeric"`
	MaxWithdrawal    string        `mapstructure:"MAX_WITHDRAWAL" validate:"required,numeric"`
	EmailCollation   string        `mapstructure:"EMAIL_COLLATION" validate:"oneof=case_sensitive case_insensitive"`
	AdminEmail       string        `mapstructure:"ADMIN_EMAIL" validate:"omitempty,email"`
	AdminPassword    string        `mapstructure:"ADMIN_PASSWORD" validate:"required_with=AdminEmail"`
	AdminName        string        `mapstructure:"ADMIN_NAME"`
	CorsOrigins      string        `mapstructure:"CORS_ORIGINS"`
	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	IntakeRatePerSec int           `mapstructure:"INTAKE_RATE_PER_SEC" validate:"min=0"`
	IntakeBurst      int           `mapstructure:"INTAKE_BURST" validate:"min=1"`
	KafkaBrokers     string        `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic       string        `mapstructure:"KAFKA_TOPIC" validate:"required"`
	KafkaPartition   uint32        `mapstructure:"KAFKA_PARTITION" validate:"min=1"`
	KafkaRetry       int           `mapstructure:"KAFKA_RETRY" validate:"min=1"`
	KafkaRetention   time.Duration `mapstructure:"KAFKA_RETENTION" validate:"required"`
}

// CaseInsensitiveEmails reports whether emails are lower-cased before storage and lookup.
func (c *Config) CaseInsensitiveEmails() bool {
	return c.EmailCollation == EmailCaseInsensitive
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(c.CorsOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func Load(logger *zap.Logger) (*Config, error) {
	viper.SetEnvPrefix("app") // Prefix for env vars
	viper.AutomaticEnv()

	// Default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("MAX_DB_CONNECTIONS", "10")
	viper.SetDefault("MIN_DB_CONNECTIONS", "2")
	viper.SetDefault("JWT_TTL", "168h")
	viper.SetDefault("MIN_DEPOSIT", "250")
	viper.SetDefault("MAX_DEPOSIT", "1000000")
	viper.SetDefault("MIN_WITHDRAWAL", "100")
	viper.SetDefault("MAX_WITHDRAWAL", "100000")
	viper.SetDefault("EMAIL_COLLATION", EmailCaseSensitive)
	viper.SetDefault("ADMIN_NAME", "Admin User")
	viper.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	viper.SetDefault("INTAKE_RATE_PER_SEC", "5")
	viper.SetDefault("INTAKE_BURST", "10")
	viper.SetDefault("KAFKA_TOPIC", "ledger-events")
	viper.SetDefault("KAFKA_PARTITION", "4")
	viper.SetDefault("KAFKA_RETRY", "3")
	viper.SetDefault("KAFKA_RETENTION", "168h")

	// Optional: Read from config.yaml if exists
	if gin.ReleaseMode == gin.Mode() {
		viper.SetConfigName("config.prod")
	} else if gin.TestMode == gin.Mode() {
		logger.Warn("running in test mode")
		viper.SetConfigName("config.test")
	} else {
		logger.Warn("running in development mode")
		viper.SetConfigName("config.dev")
	}
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./services/ledger-api/configs")
	_ = viper.ReadInConfig() // Ignore if no file

	var cfg Config
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}
	// Validate after unmarshal
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err)
	}
	return &cfg, nil
}
