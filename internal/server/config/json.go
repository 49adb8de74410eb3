package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avdeyev/tokensmith/internal/flagx"
	"github.com/avdeyev/tokensmith/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for lifetime fields, which allows
// parsing both string values such as "15m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files; after unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr                 string         `json:"endpoint_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessSecret                 string         `json:"access_secret"`
	RefreshSecret                string         `json:"refresh_secret"`
	TokenDigestKey               string         `json:"token_digest_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	ResetTokenValidityDuration   timex.Duration `json:"reset_token_validity_duration"`
	BcryptCost                   int            `json:"bcrypt_cost"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; when neither is set, no JSON file is loaded. Empty fields leave the
// current value untouched. If the file cannot be read or contains invalid
// JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessSecret != "" {
		config.AccessSecret = c.AccessSecret
	}
	if c.RefreshSecret != "" {
		config.RefreshSecret = c.RefreshSecret
	}
	if c.TokenDigestKey != "" {
		config.TokenDigestKey = c.TokenDigestKey
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = time.Duration(c.RefreshTokenValidityDuration.Duration)
	}
	if c.ResetTokenValidityDuration.Duration != 0 {
		config.ResetTokenValidityDuration = time.Duration(c.ResetTokenValidityDuration.Duration)
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
}
