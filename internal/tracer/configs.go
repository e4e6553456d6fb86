package tracer

import "os"

// Config holds the tracer settings.
type Config struct {
	// ServiceName identifies this service on every exported span.
	ServiceName string `yaml:"service_name" env:"TRACER_SERVICE_NAME"`

	// Environment tags spans with the deployment environment.
	Environment string `yaml:"environment" env:"APP_ENV"`

	// EnableExport turns on OTLP/HTTP span export. Off by default so
	// deployments without a collector run without one.
	EnableExport bool `yaml:"enable_export" env:"TRACER_ENABLE_EXPORT"`
}

// NewConfig reads the tracer configuration from environment variables.
func NewConfig() Config {
	service := os.Getenv("TRACER_SERVICE_NAME")
	if service == "" {
		service = "simri"
	}

	environment := os.Getenv("APP_ENV")
	if environment == "" {
		environment = "development"
	}

	return Config{
		ServiceName:  service,
		Environment:  environment,
		EnableExport: os.Getenv("TRACER_ENABLE_EXPORT") == "true",
	}
}
