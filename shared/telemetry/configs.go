package telemetry

// Predefined service configurations
var (
	// OrderServiceConfig is the telemetry configuration for the order service
	OrderServiceConfig = Config{
		ServiceName:    "order-service",
		ServiceVersion: "1.0.0",
	}

	// ProductServiceConfig is the telemetry configuration for the product service
	ProductServiceConfig = Config{
		ServiceName:    "product-service",
		ServiceVersion: "1.0.0",
	}

	// UserServiceConfig is the telemetry configuration for the user service
	UserServiceConfig = Config{
		ServiceName:    "user-service",
		ServiceVersion: "1.0.0",
	}

	// NotificationServiceConfig is the telemetry configuration for the notification service
	NotificationServiceConfig = Config{
		ServiceName:    "notification-service",
		ServiceVersion: "1.0.0",
	}
)

// NewConfigForService creates a new telemetry config for a custom service
func NewConfigForService(serviceName, version, otlpEndpoint string) Config {
	return Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		OTLPEndpoint:   otlpEndpoint,
	}
}

// WithOTLPEndpoint sets the OTLP endpoint for a config
func (c Config) WithOTLPEndpoint(endpoint string) Config {
	c.OTLPEndpoint = endpoint
	return c
}

// WithVersion sets the service version for a config
func (c Config) WithVersion(version string) Config {
	c.ServiceVersion = version
	return c
}
