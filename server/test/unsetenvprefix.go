package test

import (
	"os"
	"strings"
)

// UnsetEnvPrefix removes every environment variable whose name starts with
// prefix, for example the config overrides read by server.ReadConfigFromEnv.
func UnsetEnvPrefix(prefix string) {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")

		if strings.HasPrefix(name, prefix) {
			os.Unsetenv(name)
		}
	}
}
