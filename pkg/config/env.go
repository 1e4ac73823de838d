package config

import "strings"

// Known environment names
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// NormalizeEnv lowercases an environment name. An empty name means the
// service was started without configuration and counts as development.
func NormalizeEnv(env string) string {
	if env == "" {
		return EnvDevelopment
	}
	return strings.ToLower(env)
}

// IsProductionLike reports whether the environment runs against shared
// infrastructure. Localhost defaults and dev secrets are rejected there.
func IsProductionLike(env string) bool {
	switch NormalizeEnv(env) {
	case EnvProduction, EnvStaging:
		return true
	}
	return false
}
