package config

import "os"

// Env looks up an environment-style configuration value.
type Env func(key string) (string, bool)

// OSEnv reads from the process environment.
var OSEnv Env = os.LookupEnv

// MapEnv serves values from a fixed map, mostly for tests.
func MapEnv(values map[string]string) Env {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}
