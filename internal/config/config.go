package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains gallery client configuration parameters.
type Config struct {
	LogLevel    int    `env:"LOG_LEVEL" envDefault:"0"`
	API         API    `envPrefix:"API_"`
	Credentials string `env:"CREDENTIALS_FILE" envDefault:".gallery/credentials.yaml"`
}

// API contains backend connection parameters.
type API struct {
	BaseURL string        `env:"BASE_URL" envDefault:"http://localhost:8000/api/v1"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// DevServer contains parameters of the development auth backend.
type DevServer struct {
	LogLevel      int           `env:"LOG_LEVEL" envDefault:"0"`
	Addr          string        `env:"DEVAUTH_ADDR" envDefault:":8000"`
	BasePath      string        `env:"DEVAUTH_BASE_PATH" envDefault:"/api/v1"`
	JWTSecret     string        `env:"DEVAUTH_JWT_SECRET" envDefault:"devsecret"`
	AccessTTL     time.Duration `env:"DEVAUTH_ACCESS_TTL" envDefault:"1h"`
	RefreshTTL    time.Duration `env:"DEVAUTH_REFRESH_TTL" envDefault:"168h"`
	SecureCookies bool          `env:"DEVAUTH_SECURE_COOKIES" envDefault:"false"`
	StorageURL    string        `env:"DEVAUTH_STORAGE_URL" envDefault:"http://localhost:54321/storage/v1/object/public/images"`
	TLS           TLS           `envPrefix:"DEVAUTH_TLS_"`
}

// TLS contains optional certificate parameters for the dev backend.
type TLS struct {
	Enabled            bool   `env:"ENABLED" envDefault:"false"`
	CertFileName       string `env:"CERT_FILE_NAME" envDefault:"cert.pem"`
	PrivateKeyFileName string `env:"PRIVATE_KEY_FILE_NAME" envDefault:"key.pem"`
}

// NewConfig loads client configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// NewDevServerConfig loads dev backend configuration from environment variables.
func NewDevServerConfig() (*DevServer, error) {
	cfg := DevServer{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse dev server config: %w", err)
	}

	return &cfg, nil
}
