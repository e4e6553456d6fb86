package httpapi

import "os"

// Config provides the fields necessary to run the HTTP server.
type Config struct {
	// Address is the listen address of the API server, e.g. ":8080".
	Address string

	// DebugErrors attaches the originating error chain as `details` to
	// error responses. Keep off in production.
	DebugErrors bool

	// BodyLimit caps request body size. MRI volumes are large; the
	// default allows a full five-sequence study.
	BodyLimit string
}

// NewConfig reads the server configuration from environment variables.
func NewConfig() Config {
	address := os.Getenv("HTTP_ADDRESS")
	if address == "" {
		address = ":8080"
	}

	bodyLimit := os.Getenv("HTTP_BODY_LIMIT")
	if bodyLimit == "" {
		bodyLimit = "2G"
	}

	return Config{
		Address:     address,
		DebugErrors: os.Getenv("HTTP_DEBUG_ERRORS") == "true",
		BodyLimit:   bodyLimit,
	}
}
