package config

import (
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by parseEnv, e.g.
// GOPHMARKET_GRPC_ADDR or GOPHMARKET_ENCRYPTION_SECRET.
const EnvPrefix = "GOPHMARKET"

// parseEnv overlays values from the environment. Unset variables leave the
// current value in place; malformed values panic like the other loaders.
func parseEnv(config *Config) {
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		panic(err)
	}
}
