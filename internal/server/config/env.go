package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables. A .env file in
// the working directory is loaded first if present; real environment
// variables win over the file.
//
// Recognized variables:
//
//	ADDRESS                  HTTP bind address
//	DATABASE_DSN             PostgreSQL DSN
//	SECRET_KEY               shared JWT signing secret
//	ACCESS_SECRET            access-token signing secret (optional)
//	REFRESH_SECRET           refresh-token signing secret (optional)
//	TOKEN_DIGEST_KEY         storage-digest key for refresh/reset tokens (optional)
//	ACCESS_TOKEN_TTL_MIN     access token lifetime, minutes
//	REFRESH_TOKEN_TTL_DAYS   refresh token lifetime, days
//	RESET_TOKEN_TTL_MIN      reset token lifetime, minutes
//	BCRYPT_COST              password hashing cost
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("ADDRESS", &config.EndpointAddr)
	setString("DATABASE_DSN", &config.DatabaseDSN)
	setString("SECRET_KEY", &config.SecretKey)
	setString("ACCESS_SECRET", &config.AccessSecret)
	setString("REFRESH_SECRET", &config.RefreshSecret)
	setString("TOKEN_DIGEST_KEY", &config.TokenDigestKey)
	setInt("BCRYPT_COST", &config.BcryptCost)

	var minutes, days int
	setInt("ACCESS_TOKEN_TTL_MIN", &minutes)
	if minutes > 0 {
		config.AccessTokenValidityDuration = time.Duration(minutes) * time.Minute
	}
	setInt("REFRESH_TOKEN_TTL_DAYS", &days)
	if days > 0 {
		config.RefreshTokenValidityDuration = time.Duration(days) * 24 * time.Hour
	}
	minutes = 0
	setInt("RESET_TOKEN_TTL_MIN", &minutes)
	if minutes > 0 {
		config.ResetTokenValidityDuration = time.Duration(minutes) * time.Minute
	}
}
