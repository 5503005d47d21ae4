// Package config loads runtime configuration for the taskkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c, -config or CONFIG.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "request_timeout": "10s",
//	  "online_check_interval": "5s",
//	  "state_dir": ".taskkeeper"
//	}
package config
