// Package config loads application configuration from environment
// variables (ABP_ prefix) with an optional YAML overlay, and resolves
// the per-user data directory where the embedded database and logs
// live. Environment always wins over the file.
package config
