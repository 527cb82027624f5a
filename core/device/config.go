package device

import "time"

// Config holds connection settings for the managed device.
type Config struct {
	// Host is the device management address, with or without scheme.
	Host string `mapstructure:"host" default:""`
	// Port is the management port.
	Port int `mapstructure:"port" default:"443"`
	// Username for basic authentication.
	Username string `mapstructure:"username" default:"admin"`
	// Password for basic authentication.
	Password string `mapstructure:"password" default:""`
	// UseSSL selects https when Host carries no scheme.
	UseSSL bool `mapstructure:"use_ssl" default:"true"`
	// Insecure skips TLS certificate verification.
	Insecure bool `mapstructure:"insecure" default:"false"`
	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
	// RetryMaxTries is the number of attempts for CreateOrModify.
	RetryMaxTries int `mapstructure:"retry_max_tries" default:"3"`
	// RetryMaxElapsedSeconds bounds the time spent retrying.
	RetryMaxElapsedSeconds int `mapstructure:"retry_max_elapsed_seconds" default:"60"`
}

// RetryPolicy builds the retry policy described by the configuration.
func (c Config) RetryPolicy() *RetryPolicy {
	tries := c.RetryMaxTries
	if tries <= 0 {
		tries = 1
	}
	return &RetryPolicy{
		MaxTries:        uint(tries),
		InitialInterval: 500 * time.Millisecond,
		MaxElapsed:      time.Duration(c.RetryMaxElapsedSeconds) * time.Second,
	}
}
