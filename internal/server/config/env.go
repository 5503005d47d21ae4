package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// parseEnv overlays values from environment variables. Names follow the
// deployment conventions of the service (DATABASE_URL, SECRET_KEY, ...).
// A malformed number panics.
func parseEnv(config *Config) {
	lookupString("HTTP_ADDR", &config.HTTPAddr)
	lookupString("GRPC_ADDR", &config.GRPCAddr)
	lookupString("DATABASE_URL", &config.DatabaseDSN)
	lookupString("SECRET_KEY", &config.SecretKey)
	lookupString("LOG_LEVEL", &config.LogLevel)
	lookupString("CORS_ALLOW_ORIGINS", &config.CORSAllowOrigins)

	if minutes, ok := lookupInt("ACCESS_TOKEN_EXPIRE_MINUTES"); ok {
		config.AccessTokenValidityDuration = time.Duration(minutes) * time.Minute
	}
	if cost, ok := lookupInt("BCRYPT_COST"); ok {
		config.BcryptCost = cost
	}
	if limit, ok := lookupInt("AUTH_RATE_LIMIT"); ok {
		config.AuthRateLimit = limit
	}
}

func lookupString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func lookupInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("env %s: %w", key, err))
	}
	return n, true
}
