package infrastructure

import (
	"errors"

	"github.com/kelseyhightower/envconfig"
)

// Config carries every tunable the process needs. It is loaded once at
// startup and handed to constructors explicitly; nothing reads the
// environment after this point.
type Config struct {
	Port            string `envconfig:"PORT" default:"8080"`
	Namespace       string `envconfig:"LOG_NAMESPACE" default:"account-gateway"`
	Region          string `envconfig:"AWS_REGION"`
	TableName       string `envconfig:"TABLE_NAME"`
	AuthMode        string `envconfig:"AUTH_MODE" default:"none"`
	OneLoginJWKSURL string `envconfig:"ONELOGIN_JWKS_URL"`
	OneLoginIssuer  string `envconfig:"ONELOGIN_ISSUER"`
	AdminBypassRole string `envconfig:"ADMIN_BYPASS_ROLE" default:"internal-admin"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if cfg.TableName == "" || cfg.Region == "" {
		return Config{}, errors.New("TABLE_NAME and AWS_REGION are required")
	}
	if cfg.AuthMode == "onelogin" && (cfg.OneLoginJWKSURL == "" || cfg.OneLoginIssuer == "") {
		return Config{}, errors.New("ONELOGIN_JWKS_URL and ONELOGIN_ISSUER are required for onelogin auth mode")
	}
	return cfg, nil
}
