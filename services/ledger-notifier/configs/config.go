package configs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds application configuration for ledger-notifier.
type Config struct {
	MetricsAddr        string        `mapstructure:"METRICS_ADDR" validate:"required"`
	KafkaBrokers       string        `mapstructure:"KAFKA_BROKERS" validate:"required"`
	KafkaTopic         string        `mapstructure:"KAFKA_TOPIC" validate:"required"`
	KafkaConsumerGroup string        `mapstructure:"KAFKA_CONSUMER_GROUP" validate:"required"`
	KafkaDLQTopic      string        `mapstructure:"KAFKA_DLQ_TOPIC" validate:"required,nefield=KafkaTopic"`
	KafkaDLQRetention  time.Duration `mapstructure:"KAFKA_DLQ_RETENTION" validate:"required"`
	KafkaRetry         int           `mapstructure:"KAFKA_RETRY" validate:"min=1"`
	WebhookURL         string        `mapstructure:"WEBHOOK_URL" validate:"required,url"`
	WebhookTimeout     time.Duration `mapstructure:"WEBHOOK_TIMEOUT" validate:"required"`
	MaxRetryCount      int           `mapstructure:"MAX_RETRY_COUNT" validate:"min=1,max=10"`
	RetryBaseBackoff   time.Duration `mapstructure:"RETRY_BASE_BACKOFF" validate:"required"`
	MaxRetryBackoff    time.Duration `mapstructure:"MAX_RETRY_BACKOFF" validate:"required,gtefield=RetryBaseBackoff"`
	MaxConcurrentJobs  int           `mapstructure:"MAX_CONCURRENT_JOBS" validate:"min=1"`
}

func Load(logger *zap.Logger) (*Config, error) {
	viper.SetEnvPrefix("app") // Prefix for env vars
	viper.AutomaticEnv()

	// Default values
	viper.SetDefault("METRICS_ADDR", ":9102")
	viper.SetDefault("KAFKA_TOPIC", "ledger-events")
	viper.SetDefault("KAFKA_CONSUMER_GROUP", "ledger-notifiers")
	viper.SetDefault("KAFKA_DLQ_TOPIC", "ledger-events-dlq")
	viper.SetDefault("KAFKA_DLQ_RETENTION", "336h")
	viper.SetDefault("KAFKA_RETRY", "3")
	viper.SetDefault("WEBHOOK_TIMEOUT", "5s")
	viper.SetDefault("MAX_RETRY_COUNT", "3")
	viper.SetDefault("RETRY_BASE_BACKOFF", "500ms")
	viper.SetDefault("MAX_RETRY_BACKOFF", "10s")
	viper.SetDefault("MAX_CONCURRENT_JOBS", "8")

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
	viper.AddConfigPath("./services/ledger-notifier/configs")
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
