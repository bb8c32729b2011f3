package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServiceName string    `mapstructure:"service_name"`
	Env         string    `mapstructure:"env"`
	Port        string    `mapstructure:"port"`
	LogLevel    string    `mapstructure:"log_level"`
	Database    Database  `mapstructure:"database"`
	AWS         AWS       `mapstructure:"aws"`
	Redis       Redis     `mapstructure:"redis"`
	Services    Services  `mapstructure:"services"`
	Workflow    Workflow  `mapstructure:"workflow"`
	Telemetry   Telemetry `mapstructure:"telemetry"`
}

type Telemetry struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

type Database struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type AWS struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Region          string `mapstructure:"region"`
	EndpointSNS     string `mapstructure:"endpoint_sns"`
	EndpointSQS     string `mapstructure:"endpoint_sqs"`
	SNSTopicArn     string `mapstructure:"sns_topic_arn"`
	SQSQueueURL     string `mapstructure:"sqs_queue_url"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Services holds the base URLs of the collaborating services
type Services struct {
	ProductServiceURL string `mapstructure:"product_service_url"`
	UserServiceURL    string `mapstructure:"user_service_url"`
}

// Workflow tunes the order processing workflow
type Workflow struct {
	// ApprovalThresholdCents is the order total above which manual approval
	// is required
	ApprovalThresholdCents int64 `mapstructure:"approval_threshold_cents"`
	// Currency used for the approval threshold comparison
	Currency string `mapstructure:"currency"`
	// ApprovalTimeout bounds how long the workflow waits for a decision
	ApprovalTimeout time.Duration `mapstructure:"approval_timeout"`
	// ShippingDelay is the durable wait before fulfillment
	ShippingDelay time.Duration `mapstructure:"shipping_delay"`
	// PollInterval is the timer poller cadence
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// MaxActivityRetries caps transient-failure retries per activity
	MaxActivityRetries uint64 `mapstructure:"max_activity_retries"`
	// ValidateOnUnreachable is "strict" or "permissive"
	ValidateOnUnreachable string `mapstructure:"validate_on_unreachable"`
	// PaymentDeclineThresholdCents drives the simulated gateway
	PaymentDeclineThresholdCents int64 `mapstructure:"payment_decline_threshold_cents"`
	// PaymentLatency and ShippingLatency simulate provider round trips
	PaymentLatency  time.Duration `mapstructure:"payment_latency"`
	ShippingLatency time.Duration `mapstructure:"shipping_latency"`
}

func ReadConfig() (*Config, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return nil, fmt.Errorf("unable to get current file")
	}

	configDir := filepath.Join(filepath.Dir(filename))
	viper.SetConfigName(getConfigName())
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	// Allow environment variables to override config
	viper.AutomaticEnv()
	viper.SetEnvPrefix("ORDER")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Defaults cover local runs without a config file
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

func getConfigName() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return "local"
	}
	return env
}

func setDefaults() {
	// Service defaults
	viper.SetDefault("service_name", "order-service")
	viper.SetDefault("env", getEnv("ENV", "local"))
	viper.SetDefault("port", getEnv("PORT", "8080"))
	viper.SetDefault("log_level", getEnv("LOG_LEVEL", "info"))

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "order_system")
	viper.SetDefault("database.ssl_mode", "disable")

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		viper.Set("database.url", dbURL)
	}

	// AWS defaults
	viper.SetDefault("aws.access_key_id", getEnv("AWS_ACCESS_KEY_ID", "test"))
	viper.SetDefault("aws.secret_access_key", getEnv("AWS_SECRET_ACCESS_KEY", "test"))
	viper.SetDefault("aws.region", getEnv("AWS_DEFAULT_REGION", "us-east-1"))
	viper.SetDefault("aws.endpoint_sns", getEnv("AWS_ENDPOINT_URL_SNS", "http://localhost:4566"))
	viper.SetDefault("aws.endpoint_sqs", getEnv("AWS_ENDPOINT_URL_SQS", "http://localhost:4566"))
	viper.SetDefault("aws.sns_topic_arn", getEnv("SNS_TOPIC_ARN", "arn:aws:sns:us-east-1:000000000000:order-events"))
	viper.SetDefault("aws.sqs_queue_url", getEnv("SQS_QUEUE_URL", "http://localhost:4566/000000000000/order-events"))

	// Redis defaults
	viper.SetDefault("redis.addr", getEnv("REDIS_ADDR", "localhost:6379"))
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Collaborating services
	viper.SetDefault("services.product_service_url", getEnv("PRODUCT_SERVICE_URL", "http://localhost:8081"))
	viper.SetDefault("services.user_service_url", getEnv("USER_SERVICE_URL", "http://localhost:8082"))

	// Workflow defaults
	viper.SetDefault("workflow.approval_threshold_cents", 100000)
	viper.SetDefault("workflow.currency", "USD")
	viper.SetDefault("workflow.approval_timeout", "30m")
	viper.SetDefault("workflow.shipping_delay", "24h")
	viper.SetDefault("workflow.poll_interval", "5s")
	viper.SetDefault("workflow.max_activity_retries", 3)
	viper.SetDefault("workflow.validate_on_unreachable", "strict")
	viper.SetDefault("workflow.payment_decline_threshold_cents", 500000)
	viper.SetDefault("workflow.payment_latency", "100ms")
	viper.SetDefault("workflow.shipping_latency", "150ms")

	// Telemetry defaults
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.otlp_endpoint", getEnv("OTLP_ENDPOINT", "localhost:4317"))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetDatabaseURL constructs database URL from config
func (c *Config) GetDatabaseURL() string {
	if url := viper.GetString("database.url"); url != "" {
		return url
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}
