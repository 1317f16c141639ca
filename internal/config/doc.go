// Package config loads and validates service configuration from environment
// variables and an optional config file. Every tunable of the engine (pool
// caps, retry policy timings, queue size) and of the platform layers
// (database, redis, gateway, LLM) is declared here so wiring code never
// reads the environment directly.
package config
