package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/taskkeeper/internal/flagx"
	"github.com/dmitrijs2005/taskkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept both "30m" strings and integer nanoseconds.
type JsonConfig struct {
	HTTPAddr                    string         `json:"http_addr"`
	GRPCAddr                    string         `json:"grpc_addr"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	BcryptCost                  int            `json:"bcrypt_cost"`
	LogLevel                    string         `json:"log_level"`
	CORSAllowOrigins            string         `json:"cors_allow_origins"`
	AuthRateLimit               *int           `json:"auth_rate_limit"`
	DBMaxOpenConns              int            `json:"db_max_open_conns"`
	DBMaxIdleConns              int            `json:"db_max_idle_conns"`
}

// parseJson overlays values from the file named by -c/-config (or CONFIG).
// Keys missing from the file keep their current values. An unreadable file
// or invalid JSON panics: the server must not start half-configured.
func parseJson(config *Config) {
	path := flagx.ConfigPath()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.CORSAllowOrigins, c.CORSAllowOrigins)
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.AuthRateLimit != nil {
		config.AuthRateLimit = *c.AuthRateLimit
	}
	if c.DBMaxOpenConns != 0 {
		config.DBMaxOpenConns = c.DBMaxOpenConns
	}
	if c.DBMaxIdleConns != 0 {
		config.DBMaxIdleConns = c.DBMaxIdleConns
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
