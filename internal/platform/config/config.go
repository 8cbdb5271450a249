package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"votegate"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`

	UpstreamBaseURL      string        `env:"UPSTREAM_BASE_URL" envDefault:"http://localhost:9000/api/v1"`
	UpstreamTimeout      time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"15s"`
	UpstreamAccessToken  string        `env:"UPSTREAM_ACCESS_TOKEN"`
	UpstreamRefreshToken string        `env:"UPSTREAM_REFRESH_TOKEN"`
	TokenRefreshLeeway   time.Duration `env:"TOKEN_REFRESH_LEEWAY" envDefault:"30s"`

	CameraCaptureCmd        string `env:"CAMERA_CAPTURE_CMD" envDefault:"fswebcam --no-banner --save -"`
	VerificationMaxAttempts int    `env:"VERIFICATION_MAX_ATTEMPTS" envDefault:"3"`

	ResultsPollInterval    time.Duration `env:"RESULTS_POLL_INTERVAL" envDefault:"10s"`
	EnableResultsAutostart bool          `env:"ENABLE_RESULTS_AUTOSTART" envDefault:"false"`
	DefaultElectionID      string        `env:"DEFAULT_ELECTION_ID"`
}

func Load() (Config, error) {
	// A missing .env file is fine; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
