package pawn

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// LocalEnvConfig describes the environment the process was started in.
type LocalEnvConfig struct {
	Initialized bool
	Version     string
	EnvName     string
}

var (
	localEnvConfig     *LocalEnvConfig
	localEnvConfigOnce sync.Once
)

// InitLocalEnvConfig loads a `.env` file from the working directory when
// ENV_NAME is "local" (or unset) and returns the resolved environment. It only
// runs once per process.
func InitLocalEnvConfig() *LocalEnvConfig {
	localEnvConfigOnce.Do(func() {
		version := GetenvOrDefault("VERSION", "NO-VERSION")
		envName := GetenvOrDefault("ENV_NAME", "local")

		fmt.Printf("VERSION: %s\nENVIRONMENT NAME: %s\n", version, envName)

		if envName != "local" {
			localEnvConfig = &LocalEnvConfig{Version: version, EnvName: envName}

			return
		}

		if err := godotenv.Load(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				fmt.Printf("skipping .env file: %v\n", err)
			}

			localEnvConfig = &LocalEnvConfig{Version: version, EnvName: envName}

			return
		}

		localEnvConfig = &LocalEnvConfig{Initialized: true, Version: version, EnvName: envName}
	})

	return localEnvConfig
}

// GetenvOrDefault returns the trimmed value of key, or defaultValue when the
// variable is unset or blank.
func GetenvOrDefault(key string, defaultValue string) string {
	str := strings.TrimSpace(os.Getenv(key))
	if str == "" {
		return defaultValue
	}

	return str
}

// GetenvBoolOrDefault parses key as a bool, falling back to defaultValue.
func GetenvBoolOrDefault(key string, defaultValue bool) bool {
	str := GetenvOrDefault(key, "")

	val, err := strconv.ParseBool(str)
	if err != nil {
		return defaultValue
	}

	return val
}

// GetenvIntOrDefault parses key as an int64, falling back to defaultValue.
func GetenvIntOrDefault(key string, defaultValue int64) int64 {
	str := GetenvOrDefault(key, "")

	val, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return defaultValue
	}

	return val
}

// GetenvDurationOrDefault parses key with time.ParseDuration, falling back to
// defaultValue for missing, malformed or non-positive values.
func GetenvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	str := GetenvOrDefault(key, "")

	val, err := time.ParseDuration(str)
	if err != nil || val <= 0 {
		return defaultValue
	}

	return val
}
