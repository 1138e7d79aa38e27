package logger

import (
	"strings"
)

// Config provides the logging Level for a namespace.
type Config interface {
	// LevelForNamespace returns a logging Level for particular namespace.
	LevelForNamespace(namespace string) Level
}

// ConfigMap maps namespaces to levels. The empty namespace configures the
// root logger.
type ConfigMap map[string]Level

// NewConfigFromString parses a CSV of namespace[:level] pairs, for example
// "track:trace,backend:debug,:info". A namespace without a level is enabled
// at LevelInfo. It returns nil for an empty string so that it can be passed
// to WithConfig without overriding a previous configuration.
func NewConfigFromString(stringConfig string) Config {
	if stringConfig == "" {
		return nil
	}

	parts := strings.Split(stringConfig, ",")

	ret := make(ConfigMap, len(parts))

	for _, ns := range parts {
		ns = strings.TrimSpace(ns)
		level := LevelInfo

		if index := strings.LastIndex(ns, ":"); index > -1 {
			if cfgLevel, ok := LevelFromString(ns[index+1:]); ok {
				level = cfgLevel
				ns = ns[:index]
			}
		}

		ret[ns] = level
	}

	return ret
}

// LevelForNamespace implements Config. The full namespace is matched first,
// then each shorter prefix, then the last section alone, and finally the
// root namespace.
func (c ConfigMap) LevelForNamespace(namespace string) Level {
	if level, ok := c[namespace]; ok {
		return level
	}

	for prefix := namespace; ; {
		index := strings.LastIndex(prefix, ":")
		if index < 0 {
			break
		}

		prefix = prefix[:index]

		if level, ok := c[prefix]; ok {
			return level
		}
	}

	if index := strings.LastIndex(namespace, ":"); index > -1 {
		if level, ok := c[namespace[index+1:]]; ok {
			return level
		}
	}

	return c[""]
}
