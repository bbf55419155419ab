package config

import "os"

// Key is the environment variable Load consults to pick the active
// config file (configs/<env>.yaml), e.g. "dev", "stg", "prod".
const (
	Key        = "APP_ENV"
	DefaultEnv = "tst001"
)

// GetAppEnv returns the APP_ENV environment variable, falling back to
// DefaultEnv when it is unset.
func GetAppEnv() (string, error) {
	env := os.Getenv(Key)
	if env == "" {
		return DefaultEnv, nil
	}
	return env, nil
}
