// Package config handles configuration loading for personal-crm.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from CRM_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/crm/config.yaml
//  3. ~/.config/crm/config.yaml
//
// Files ending in .toml are read as TOML; everything else is YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${CRM_JWT_SECRET}"
//
// A .env file in the same directory as the config file is loaded before
// expansion. Variables already present in the environment are not replaced.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	server:
//	  shutdown_timeout: "5s"
//	idempotency:
//	  ttl: "10m"
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//	database:
//	  path: "/home/me/.local/share/crm/crm.db"
//	auth:
//	  jwt_secret: ""          # empty leaves /api open
//	logging:
//	  level: "info"           # debug, info, warn, error
//	  format: "text"          # text or json
//	metrics:
//	  enabled: true
//	  path: "/metrics"
//
// Only database.path is required; every other field has a default.
package config
